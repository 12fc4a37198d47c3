package match

import (
	"sync"
	"time"
)

// cooldownSet suppresses repeat matches of the same tag/item pair for
// a fixed window. Size is bounded: when a sweep cannot bring the set
// under the cap, the whole set is dropped rather than letting it grow
// without limit.
type cooldownSet struct {
	mu    sync.Mutex
	ttl   time.Duration
	max   int
	seen  map[string]time.Time
	clock func() time.Time
}

func newCooldownSet(ttl time.Duration, max int) *cooldownSet {
	return &cooldownSet{
		ttl:   ttl,
		max:   max,
		seen:  make(map[string]time.Time),
		clock: time.Now,
	}
}

// TryAcquire reports whether key is outside its cooldown window and,
// when it is, starts a new window.
func (c *cooldownSet) TryAcquire(key string) bool {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	if last, ok := c.seen[key]; ok && now.Sub(last) < c.ttl {
		return false
	}
	c.seen[key] = now
	return true
}

// Sweep drops expired entries, then the whole set when it is still
// over the cap.
func (c *cooldownSet) Sweep() {
	now := c.clock()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, last := range c.seen {
		if now.Sub(last) >= c.ttl {
			delete(c.seen, key)
		}
	}
	if c.max > 0 && len(c.seen) > c.max {
		c.seen = make(map[string]time.Time)
	}
}

func (c *cooldownSet) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// Clear forgets all cooldowns so pairs can match again immediately.
func (c *cooldownSet) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = make(map[string]time.Time)
}
