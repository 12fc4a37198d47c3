package reader

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs a fixed set of named periodic tasks as one group.
// Tasks are registered once; StartAll and StopAll toggle the whole
// group atomically, so a reconnect can never leak or duplicate timers.
type Scheduler struct {
	logger *zap.Logger

	mu      sync.Mutex
	tasks   []scheduledTask
	stop    chan struct{}
	wg      sync.WaitGroup
	running bool
}

type scheduledTask struct {
	name     string
	interval time.Duration
	run      func()
}

// NewScheduler creates an empty scheduler.
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{logger: logger}
}

// Register adds a named task. Tasks with a non-positive interval are
// accepted but never run, which lets callers disable a task by config.
// Register must not be called while the scheduler is running.
func (s *Scheduler) Register(name string, interval time.Duration, run func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, scheduledTask{name: name, interval: interval, run: run})
}

// StartAll starts every registered task. Calling it while running is a
// no-op: the group either runs once or not at all.
func (s *Scheduler) StartAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})

	for _, t := range s.tasks {
		if t.interval <= 0 {
			s.logger.Debug("Periodic task disabled", zap.String("task", t.name))
			continue
		}
		s.wg.Add(1)
		go s.loop(t, s.stop)
	}
	s.logger.Debug("Periodic tasks started", zap.Int("count", len(s.tasks)))
}

// StopAll stops the whole group and waits for in-flight runs to
// return. Safe to call when not running.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Debug("Periodic tasks stopped")
}

// Running reports whether the group is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(t scheduledTask, stop <-chan struct{}) {
	defer s.wg.Done()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.run()
		}
	}
}
