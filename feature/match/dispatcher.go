package match

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"rfid-portal/core/events"
	"rfid-portal/feature/inventory"
	"rfid-portal/feature/reader"
)

// MatchEvent is one correlated hit as pushed to clients.
type MatchEvent struct {
	Reading   reader.TagReading `json:"reading"`
	Item      inventory.Item    `json:"item"`
	Timestamp time.Time         `json:"timestamp"`
}

// Dispatcher batches match notifications. Events are keyed: a burst of
// hits for the same pair collapses to the latest one while it waits.
// The flush timer only runs while something is queued.
type Dispatcher struct {
	interval    time.Duration
	maxPerFlush int
	pub         events.Publisher
	logger      *zap.Logger

	mu      sync.Mutex
	pending map[string]MatchEvent
	order   []string
	timer   *time.Timer
	closed  bool

	dispatched uint64
}

func NewDispatcher(interval time.Duration, maxPerFlush int, pub events.Publisher, logger *zap.Logger) *Dispatcher {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	if maxPerFlush <= 0 {
		maxPerFlush = 30
	}
	return &Dispatcher{
		interval:    interval,
		maxPerFlush: maxPerFlush,
		pub:         pub,
		logger:      logger,
		pending:     make(map[string]MatchEvent),
	}
}

// Enqueue queues an event under key, starting the flush timer if it
// was idle. A key already waiting keeps its queue position but takes
// the newer payload.
func (d *Dispatcher) Enqueue(key string, ev MatchEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if _, ok := d.pending[key]; !ok {
		d.order = append(d.order, key)
	}
	d.pending[key] = ev
	if d.timer == nil {
		d.timer = time.AfterFunc(d.interval, d.flush)
	}
}

func (d *Dispatcher) flush() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	n := min(len(d.order), d.maxPerFlush)
	batch := make([]MatchEvent, 0, n)
	for _, key := range d.order[:n] {
		batch = append(batch, d.pending[key])
		delete(d.pending, key)
	}
	d.order = d.order[n:]
	if len(d.order) > 0 {
		d.timer.Reset(d.interval)
	} else {
		// Idle: no timer until the next enqueue.
		d.timer = nil
		d.order = nil
	}
	d.dispatched += uint64(len(batch))
	d.mu.Unlock()

	for _, ev := range batch {
		d.pub.Publish(events.EventMatchFound, ev)
	}
}

// Clear drops everything queued and stops the timer.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = make(map[string]MatchEvent)
	d.order = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports how many events are waiting to flush.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.order)
}

// Dispatched reports how many notifications have been published.
func (d *Dispatcher) Dispatched() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dispatched
}

// Close stops the dispatcher, discarding anything still queued.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.pending = make(map[string]MatchEvent)
	d.order = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
