package match

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"rfid-portal/feature/inventory"
	"rfid-portal/feature/reader"
)

// Engine correlates readings against the inventory index. It is fed
// from the reader's read path, so every stage is cheap and never
// blocks: a rate gate, an index lookup and a cooldown check.
type Engine struct {
	cfg        Config
	index      *inventory.Index
	dispatcher *Dispatcher
	limiter    *rate.Limiter
	cooldown   *cooldownSet
	logger     *zap.Logger

	matched    atomic.Uint64
	suppressed atomic.Uint64
	throttled  atomic.Uint64

	mu      sync.Mutex
	stop    chan struct{}
	running bool
	wg      sync.WaitGroup
}

func NewEngine(cfg Config, index *inventory.Index, dispatcher *Dispatcher, logger *zap.Logger) *Engine {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 100
	}
	// A token bucket admits its burst on top of the steady refill, so
	// the per-second bound is split between the two: any one-second
	// window then stays at or under RatePerSecond.
	burst := cfg.RatePerSecond / 2
	if burst < 1 {
		burst = 1
	}
	refill := cfg.RatePerSecond - burst
	if refill < 1 {
		refill = 1
	}
	return &Engine{
		cfg:        cfg,
		index:      index,
		dispatcher: dispatcher,
		limiter:    rate.NewLimiter(rate.Limit(refill), burst),
		cooldown:   newCooldownSet(cfg.cooldown(), cfg.MaxCooldownEntries),
		logger:     logger,
	}
}

// Start launches the periodic cooldown sweep.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.stop = make(chan struct{})
	e.wg.Add(1)
	go e.sweepLoop(e.stop)
}

// Stop halts the sweep and closes the dispatcher.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stop)
	e.mu.Unlock()
	e.wg.Wait()
	e.dispatcher.Close()
}

func (e *Engine) sweepLoop(stop <-chan struct{}) {
	defer e.wg.Done()
	ticker := time.NewTicker(e.cfg.sweepInterval())
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.cooldown.Sweep()
		}
	}
}

// Offer runs one reading through the match pipeline. Safe to call from
// the reader's event goroutine; drops rather than blocks when the rate
// gate is closed.
func (e *Engine) Offer(r reader.TagReading) {
	if !e.limiter.Allow() {
		e.throttled.Add(1)
		return
	}
	key := inventory.NormalizeKey(r.TID)
	if key == "" {
		return
	}
	items := e.index.Lookup(key)
	if len(items) == 0 {
		return
	}
	item := items[0]

	pairKey := key + "_" + item.Key
	if !e.cooldown.TryAcquire(pairKey) {
		e.suppressed.Add(1)
		return
	}
	e.matched.Add(1)
	e.logger.Info("tag matched inventory",
		zap.String("tid", key),
		zap.Int("item", item.ID),
		zap.Int("row", item.Row))
	e.dispatcher.Enqueue(pairKey, MatchEvent{
		Reading:   r,
		Item:      item,
		Timestamp: time.Now().UTC(),
	})
}

// ResetComparisons clears the cooldown set so every pair may match
// again immediately.
func (e *Engine) ResetComparisons() {
	e.cooldown.Clear()
	e.logger.Info("match cooldowns reset")
}

// Status summarizes the pipeline counters.
func (e *Engine) Status() map[string]any {
	return map[string]any{
		"matched":         e.matched.Load(),
		"suppressed":      e.suppressed.Load(),
		"throttled":       e.throttled.Load(),
		"cooldownEntries": e.cooldown.Len(),
		"pending":         e.dispatcher.Pending(),
		"dispatched":      e.dispatcher.Dispatched(),
	}
}
