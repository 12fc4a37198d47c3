// Package reader supervises the session with a fixed-location RFID
// reader and turns its tag events into bounded, counted readings.
//
// The Supervisor owns the connection lifecycle (connect, keep-alive,
// health checks, auto-restart, reconnect with backoff) as a small state
// machine: Disconnected -> Connecting -> Connected -> Reading. All
// periodic work runs through one named-task Scheduler so timers are
// started and stopped as a group and never leak across reconnects.
//
// Decoded tag events arrive over a channel from a Device
// implementation (the vendor TCP driver or the in-process emulator),
// are appended to the bounded reading Buffer, counted, broadcast, and
// handed to the match pipeline through an injected sink.
package reader
