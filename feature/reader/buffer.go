package reader

import "sync"

// Buffer holds the most recent readings plus lifetime counters. The
// ring never grows past its capacity: once full, the oldest reading is
// evicted on every insert. The distinct-TID set is a lifetime counter
// and is never evicted from.
type Buffer struct {
	mu       sync.Mutex
	entries  []TagReading
	head     int // index of the oldest entry
	size     int
	total    uint64
	distinct map[string]struct{}
}

// NewBuffer creates a buffer holding at most capacity readings.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		entries:  make([]TagReading, capacity),
		distinct: make(map[string]struct{}),
	}
}

// Add appends a reading, evicting the oldest when at capacity.
func (b *Buffer) Add(r TagReading) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tail := (b.head + b.size) % len(b.entries)
	b.entries[tail] = r
	if b.size < len(b.entries) {
		b.size++
	} else {
		b.head = (b.head + 1) % len(b.entries)
	}

	b.total++
	if r.TID != "" {
		b.distinct[r.TID] = struct{}{}
	}
}

// Snapshot returns the buffered readings in arrival order.
func (b *Buffer) Snapshot() []TagReading {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]TagReading, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.entries[(b.head+i)%len(b.entries)]
	}
	return out
}

// Len returns the number of buffered readings.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Total returns the lifetime reading count.
func (b *Buffer) Total() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// Distinct returns the lifetime count of distinct TIDs.
func (b *Buffer) Distinct() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.distinct)
}

// Clear resets the buffer and all counters.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.size = 0
	b.total = 0
	b.distinct = make(map[string]struct{})
}
