package reader

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestScheduler_RunsRegisteredTasks(t *testing.T) {
	var ticks atomic.Int32
	s := NewScheduler(zap.NewNop())
	s.Register("tick", 5*time.Millisecond, func() { ticks.Add(1) })

	s.StartAll()
	defer s.StopAll()

	assert.Eventually(t, func() bool { return ticks.Load() >= 3 },
		time.Second, time.Millisecond)
	assert.True(t, s.Running())
}

func TestScheduler_DisabledTaskNeverRuns(t *testing.T) {
	var ticks atomic.Int32
	s := NewScheduler(zap.NewNop())
	s.Register("disabled", 0, func() { ticks.Add(1) })

	s.StartAll()
	time.Sleep(20 * time.Millisecond)
	s.StopAll()

	assert.Equal(t, int32(0), ticks.Load())
}

func TestScheduler_StartStopIdempotent(t *testing.T) {
	var ticks atomic.Int32
	s := NewScheduler(zap.NewNop())
	s.Register("tick", 5*time.Millisecond, func() { ticks.Add(1) })

	s.StartAll()
	s.StartAll() // second start is a no-op, no duplicate timers
	assert.Eventually(t, func() bool { return ticks.Load() >= 2 },
		time.Second, time.Millisecond)

	s.StopAll()
	s.StopAll() // stopping a stopped group is safe
	assert.False(t, s.Running())

	stopped := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, ticks.Load())
}

func TestScheduler_RestartsCleanly(t *testing.T) {
	var ticks atomic.Int32
	s := NewScheduler(zap.NewNop())
	s.Register("tick", 5*time.Millisecond, func() { ticks.Add(1) })

	s.StartAll()
	assert.Eventually(t, func() bool { return ticks.Load() >= 1 },
		time.Second, time.Millisecond)
	s.StopAll()

	before := ticks.Load()
	s.StartAll()
	defer s.StopAll()
	assert.Eventually(t, func() bool { return ticks.Load() > before },
		time.Second, time.Millisecond)
}
