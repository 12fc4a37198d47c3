package reader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Vendor command frames. Layout: A5 5A 00 LEN CMD SUB [ARG CHK] 0D 0A,
// checksum is the byte sum of CMD+SUB+ARG.
var (
	frameReset       = []byte{0xA5, 0x5A, 0x00, 0x07, 0x70, 0x77, 0x0D, 0x0A}
	frameStartScan   = []byte{0xA5, 0x5A, 0x00, 0x0A, 0x82, 0x27, 0x10, 0xBF, 0x0D, 0x0A}
	frameApplyConfig = []byte{0xA5, 0x5A, 0x00, 0x08, 0x82, 0x29, 0x01, 0xBF, 0x0D, 0x0A}

	frameTerminator = []byte{0x0D, 0x0A}
)

// CommandSetPower builds the transmit-power frame. Power is clamped to
// the reader's 0-30 dBm range.
func CommandSetPower(power int) []byte {
	if power < 0 {
		power = 0
	}
	if power > 30 {
		power = 30
	}
	chk := byte((0x82 + 0x27 + power) & 0xFF)
	return []byte{0xA5, 0x5A, 0x00, 0x08, 0x82, 0x27, byte(power), chk, 0x0D, 0x0A}
}

// CommandSetAntennas builds the antenna-mask frame. Antennas 1-4 map to
// mask bits 0-3; out-of-range values are ignored.
func CommandSetAntennas(antennas []int) []byte {
	mask := 0
	for _, a := range antennas {
		if a >= 1 && a <= 4 {
			mask |= 1 << (a - 1)
		}
	}
	chk := byte((0x82 + 0x28 + mask) & 0xFF)
	return []byte{0xA5, 0x5A, 0x00, 0x08, 0x82, 0x28, byte(mask), chk, 0x0D, 0x0A}
}

// FrameDecoder turns one raw notification frame (terminator stripped)
// into a decoded tag event. Returning false drops the frame.
//
// No decoder ships enabled by default: the notification payload admits
// several plausible field layouts and picking one requires validation
// against the target hardware. See the candidate fixtures in the
// package tests.
type FrameDecoder func(frame []byte) (TagEvent, bool)

// ChainwayDevice is the TCP driver for Chainway fixed readers.
type ChainwayDevice struct {
	logger  *zap.Logger
	decoder FrameDecoder

	dialTimeout  time.Duration
	writeTimeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	events chan TagEvent
}

// NewChainwayDevice creates a driver. decoder may be nil, in which case
// notification frames are dropped (the session itself still works:
// connect, radio config, scan commands).
func NewChainwayDevice(logger *zap.Logger, decoder FrameDecoder) *ChainwayDevice {
	return &ChainwayDevice{
		logger:       logger,
		decoder:      decoder,
		dialTimeout:  5 * time.Second,
		writeTimeout: 5 * time.Second,
	}
}

// Connect dials the reader and applies the radio configuration in the
// vendor's documented order: reset, power, antennas, apply.
func (d *ChainwayDevice) Connect(ctx context.Context, settings Settings) error {
	d.mu.Lock()
	if d.conn != nil {
		d.mu.Unlock()
		return errors.New("chainway: already connected")
	}
	d.mu.Unlock()

	dialer := net.Dialer{Timeout: d.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", settings.Addr())
	if err != nil {
		return fmt.Errorf("chainway: connect %s: %w", settings.Addr(), err)
	}

	events := make(chan TagEvent, 256)
	d.mu.Lock()
	d.conn = conn
	d.events = events
	d.mu.Unlock()

	go d.readLoop(conn, events)

	for _, frame := range [][]byte{
		frameReset,
		CommandSetPower(settings.Power),
		CommandSetAntennas(settings.Antennas),
		frameApplyConfig,
	} {
		if err := d.Send(ctx, frame); err != nil {
			_ = d.Close()
			return fmt.Errorf("chainway: apply config: %w", err)
		}
	}
	return nil
}

// StartScan puts the reader into continuous inventory mode.
func (d *ChainwayDevice) StartScan(ctx context.Context) error {
	return d.Send(ctx, frameStartScan)
}

// StopScan halts inventory. The reset frame is the documented way to
// bring the reader back to idle.
func (d *ChainwayDevice) StopScan(ctx context.Context) error {
	return d.Send(ctx, frameReset)
}

// Send writes a raw command frame on the live session.
func (d *ChainwayDevice) Send(ctx context.Context, frame []byte) error {
	d.mu.Lock()
	conn := d.conn
	d.mu.Unlock()
	if conn == nil {
		return errors.New("chainway: not connected")
	}

	deadline := time.Now().Add(d.writeTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetWriteDeadline(deadline)
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("chainway: write: %w", err)
	}
	return nil
}

// Events returns the event channel for the current connection.
func (d *ChainwayDevice) Events() <-chan TagEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.events
}

// Close tears down the connection. The read loop notices and closes
// the event channel.
func (d *ChainwayDevice) Close() error {
	d.mu.Lock()
	conn := d.conn
	d.conn = nil
	d.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// readLoop accumulates wire bytes, splits them on the frame terminator
// and forwards decodable frames. Malformed frames are dropped and the
// rest of the stream continues.
func (d *ChainwayDevice) readLoop(conn net.Conn, events chan TagEvent) {
	defer close(events)

	var acc []byte
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			acc = append(acc, buf[:n]...)
			for {
				idx := bytes.Index(acc, frameTerminator)
				if idx < 0 {
					break
				}
				frame := acc[:idx]
				acc = acc[idx+len(frameTerminator):]
				d.dispatch(frame, events)
			}
		}
		if err != nil {
			d.logger.Debug("Chainway read loop ended", zap.Error(err))
			d.mu.Lock()
			if d.conn == conn {
				d.conn = nil
			}
			d.mu.Unlock()
			return
		}
	}
}

func (d *ChainwayDevice) dispatch(frame []byte, events chan TagEvent) {
	if len(frame) == 0 {
		return
	}
	if d.decoder == nil {
		d.logger.Debug("Dropping notification frame: no decoder configured",
			zap.Int("bytes", len(frame)))
		return
	}
	ev, ok := d.decoder(frame)
	if !ok {
		d.logger.Debug("Dropping undecodable frame", zap.Int("bytes", len(frame)))
		return
	}
	select {
	case events <- ev:
	default:
		// Consumer is behind; shedding here keeps the socket drained.
		d.logger.Warn("Event channel full, dropping tag event")
	}
}
