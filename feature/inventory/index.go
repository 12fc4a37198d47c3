package inventory

import "sync/atomic"

// Snapshot is one immutable generation of the inventory: the items of
// an upload plus their key index. Readers never see a partially built
// snapshot.
type Snapshot struct {
	Items []Item
	Meta  Metadata

	keys map[string][]int
}

// Lookup returns the items whose correlation key equals the already
// normalized key, in spreadsheet order.
func (s *Snapshot) Lookup(key string) []Item {
	if s == nil || key == "" {
		return nil
	}
	idx := s.keys[key]
	if len(idx) == 0 {
		return nil
	}
	out := make([]Item, len(idx))
	for i, j := range idx {
		out[i] = s.Items[j]
	}
	return out
}

// Len reports the number of items in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Items)
}

// KeyCount reports how many distinct correlation keys are indexed.
func (s *Snapshot) KeyCount() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// BuildSnapshot indexes items into a fresh snapshot. Items without a
// key are kept (they remain searchable) but not indexed.
func BuildSnapshot(items []Item, meta Metadata) *Snapshot {
	keys := make(map[string][]int, len(items))
	for i, it := range items {
		if it.Key != "" {
			keys[it.Key] = append(keys[it.Key], i)
		}
	}
	meta.TotalItems = len(items)
	return &Snapshot{Items: items, Meta: meta, keys: keys}
}

// Index holds the current snapshot behind an atomic pointer. Loads
// publish whole snapshots; readers pay no locks.
type Index struct {
	v atomic.Pointer[Snapshot]
}

func NewIndex() *Index {
	ix := &Index{}
	ix.v.Store(BuildSnapshot(nil, Metadata{}))
	return ix
}

// Snapshot returns the current generation. Never nil.
func (ix *Index) Snapshot() *Snapshot { return ix.v.Load() }

// Publish swaps in a new generation.
func (ix *Index) Publish(s *Snapshot) { ix.v.Store(s) }

// Lookup is a convenience over the current snapshot.
func (ix *Index) Lookup(key string) []Item { return ix.Snapshot().Lookup(key) }

// Clear replaces the current snapshot with an empty one.
func (ix *Index) Clear() { ix.v.Store(BuildSnapshot(nil, Metadata{})) }
