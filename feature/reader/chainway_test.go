package reader

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCommandSetPower(t *testing.T) {
	t.Run("checksum covers cmd, sub and arg", func(t *testing.T) {
		frame := CommandSetPower(20)
		assert.Equal(t, []byte{0xA5, 0x5A, 0x00, 0x08, 0x82, 0x27, 0x14, 0xBD, 0x0D, 0x0A}, frame)
	})

	t.Run("out of range clamps", func(t *testing.T) {
		assert.Equal(t, byte(30), CommandSetPower(99)[6])
		assert.Equal(t, byte(0), CommandSetPower(-5)[6])
	})
}

func TestCommandSetAntennas(t *testing.T) {
	t.Run("mask bits", func(t *testing.T) {
		frame := CommandSetAntennas([]int{1, 2, 3, 4})
		assert.Equal(t, byte(0x0F), frame[6])

		frame = CommandSetAntennas([]int{2, 4})
		assert.Equal(t, byte(0x0A), frame[6])
	})

	t.Run("out of range antennas ignored", func(t *testing.T) {
		frame := CommandSetAntennas([]int{0, 1, 5})
		assert.Equal(t, byte(0x01), frame[6])
	})

	t.Run("checksum", func(t *testing.T) {
		frame := CommandSetAntennas([]int{1})
		assert.Equal(t, byte((0x82+0x28+0x01)&0xFF), frame[7])
	})
}

func TestDispatch_NoDecoderDropsFrames(t *testing.T) {
	d := NewChainwayDevice(zap.NewNop(), nil)
	events := make(chan TagEvent, 1)

	d.dispatch([]byte{0xA5, 0x5A, 0x01, 0x02}, events)
	assert.Empty(t, events)
}

func TestDispatch_DecoderFeedsEvents(t *testing.T) {
	decoder := func(frame []byte) (TagEvent, bool) {
		if len(frame) < 4 {
			return TagEvent{}, false
		}
		return TagEvent{EPC: hex.EncodeToString(frame)}, true
	}
	d := NewChainwayDevice(zap.NewNop(), decoder)
	events := make(chan TagEvent, 1)

	d.dispatch([]byte{0xAA, 0xBB, 0xCC, 0xDD}, events)
	require.Len(t, events, 1)
	assert.Equal(t, "aabbccdd", (<-events).EPC)

	d.dispatch([]byte{0x01}, events)
	assert.Empty(t, events)
}

// Candidate notification layouts observed on Chainway streams. None is
// enabled by default; these fixtures document the shapes a decoder has
// to choose between once validated against hardware.
func TestDecoderCandidates(t *testing.T) {
	// 12-byte EPC followed by a signed RSSI byte and the antenna index.
	epcRSSIAntenna := func(frame []byte) (TagEvent, bool) {
		if len(frame) < 14 {
			return TagEvent{}, false
		}
		return TagEvent{
			EPC:     hex.EncodeToString(frame[:12]),
			RSSI:    int(int8(frame[12])),
			Antenna: int(frame[13]),
		}, true
	}

	// Length-prefixed payload: LEN EPC[LEN] TID[12].
	lengthPrefixed := func(frame []byte) (TagEvent, bool) {
		if len(frame) < 1 {
			return TagEvent{}, false
		}
		n := int(frame[0])
		if len(frame) < 1+n+12 {
			return TagEvent{}, false
		}
		return TagEvent{
			EPC: hex.EncodeToString(frame[1 : 1+n]),
			TID: hex.EncodeToString(frame[1+n : 1+n+12]),
		}, true
	}

	t.Run("epc rssi antenna", func(t *testing.T) {
		frame := append(make([]byte, 12), 0xC5, 0x02) // RSSI -59, antenna 2
		ev, ok := epcRSSIAntenna(frame)
		require.True(t, ok)
		assert.Equal(t, -59, ev.RSSI)
		assert.Equal(t, 2, ev.Antenna)
	})

	t.Run("length prefixed", func(t *testing.T) {
		frame := []byte{2, 0xAB, 0xCD}
		frame = append(frame, make([]byte, 12)...)
		ev, ok := lengthPrefixed(frame)
		require.True(t, ok)
		assert.Equal(t, "abcd", ev.EPC)
		assert.Len(t, ev.TID, 24)
	})

	t.Run("short frames rejected", func(t *testing.T) {
		_, ok := epcRSSIAntenna([]byte{0x01})
		assert.False(t, ok)
		_, ok = lengthPrefixed(nil)
		assert.False(t, ok)
	})
}
