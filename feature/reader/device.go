package reader

import "context"

// TagEvent is one decoded tag observation pushed by a Device. All
// fields are optional on the wire and defaulted on absence.
type TagEvent struct {
	TID     string
	EPC     string
	RSSI    int
	Antenna int
}

// Device is the vendor-neutral contract for an RFID reader channel.
// Implementations push decoded events into the channel returned by
// Events; the channel is closed when the underlying connection is
// lost, which the supervisor treats as a connection-loss signal.
//
// Connect, StartScan, StopScan, Send and Close are the only blocking
// operations in the session pipeline.
type Device interface {
	// Connect establishes the session using the given settings and
	// applies the radio configuration (power, antennas).
	Connect(ctx context.Context, settings Settings) error
	// StartScan puts the reader into continuous inventory mode.
	StartScan(ctx context.Context) error
	// StopScan halts continuous inventory.
	StopScan(ctx context.Context) error
	// Send writes a raw vendor command frame on the live session.
	Send(ctx context.Context, frame []byte) error
	// Events returns the channel of decoded tag events for the current
	// connection.
	Events() <-chan TagEvent
	// Close tears the connection down. Safe to call when disconnected.
	Close() error
}
