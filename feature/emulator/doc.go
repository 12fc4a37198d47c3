// Package emulator provides a software RFID reader for development
// and tests. It satisfies the reader device contract and emits
// synthetic tag events from a fixed pool, so the whole portal can run
// without hardware.
package emulator
