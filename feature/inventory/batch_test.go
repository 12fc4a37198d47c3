package inventory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rfid-portal/core/events"
)

// capturePub records published events for assertions.
type capturePub struct {
	mu     sync.Mutex
	events []struct {
		name    string
		payload any
	}
}

func (p *capturePub) Publish(name string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, struct {
		name    string
		payload any
	}{name, payload})
}

func (p *capturePub) byName(name string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []any
	for _, e := range p.events {
		if e.name == name {
			out = append(out, e.payload)
		}
	}
	return out
}

func makeTable(rows int) *Table {
	t := &Table{Headers: []string{"id", "uhf", "desc"}}
	for i := 1; i <= rows; i++ {
		t.Rows = append(t.Rows, map[string]any{
			"id":   float64(i),
			"uhf":  fmt.Sprintf("E280%06d", i),
			"desc": fmt.Sprintf("item %d", i),
		})
	}
	return t
}

func testLoaderConfig() Config {
	return Config{ChunkSize: 1000, MaxItems: 50000, Marker: "uhf", ChunkPauseMillis: 0}
}

func TestLoader_SmallSheetSingleStep(t *testing.T) {
	ix := NewIndex()
	pub := &capturePub{}
	l := NewLoader(testLoaderConfig(), ix, pub, zap.NewNop())

	snap, err := l.Load(context.Background(), makeTable(10), "small.csv")
	require.NoError(t, err)
	assert.Equal(t, 10, snap.Len())
	assert.Equal(t, "small.csv", snap.Meta.FileName)
	assert.Same(t, snap, ix.Snapshot())

	// no batch ceremony for small sheets
	assert.Empty(t, pub.byName(events.EventInventoryProcessingStarted))
	assert.Empty(t, pub.byName(events.EventInventoryProcessingProgress))
	assert.Len(t, pub.byName(events.EventInventoryUpdated), 1)

	hits := ix.Lookup("E280000003")
	require.Len(t, hits, 1)
	assert.Equal(t, 3, hits[0].ID)
	assert.Equal(t, 4, hits[0].Row)
}

func TestLoader_ChunkedProgressEvents(t *testing.T) {
	ix := NewIndex()
	pub := &capturePub{}
	l := NewLoader(testLoaderConfig(), ix, pub, zap.NewNop())

	snap, err := l.Load(context.Background(), makeTable(12000), "big.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 12000, snap.Len())

	assert.Len(t, pub.byName(events.EventInventoryProcessingStarted), 1)
	assert.Len(t, pub.byName(events.EventInventoryProcessingCompleted), 1)
	assert.Len(t, pub.byName(events.EventInventoryUpdated), 1)

	progress := pub.byName(events.EventInventoryProcessingProgress)
	require.Len(t, progress, 12)
	prev := 0
	for _, p := range progress {
		pct := p.(map[string]any)["progress"].(int)
		assert.GreaterOrEqual(t, pct, prev)
		prev = pct
	}
	assert.Equal(t, 100, prev)
	last := progress[11].(map[string]any)
	assert.Equal(t, 12, last["batchIndex"])
	assert.Equal(t, 12000, last["processedRows"])
}

func TestLoader_ChunkedMatchesUnchunked(t *testing.T) {
	table := makeTable(2500)

	chunkedIx := NewIndex()
	chunked := NewLoader(testLoaderConfig(), chunkedIx, &capturePub{}, zap.NewNop())
	chunkedSnap, err := chunked.Load(context.Background(), table, "f.csv")
	require.NoError(t, err)

	cfg := testLoaderConfig()
	cfg.ChunkSize = 5000
	plainIx := NewIndex()
	plain := NewLoader(cfg, plainIx, &capturePub{}, zap.NewNop())
	plainSnap, err := plain.Load(context.Background(), table, "f.csv")
	require.NoError(t, err)

	assert.Equal(t, plainSnap.Items, chunkedSnap.Items)
	assert.Equal(t, plainSnap.KeyCount(), chunkedSnap.KeyCount())
}

func TestLoader_TruncatesOverCap(t *testing.T) {
	cfg := testLoaderConfig()
	cfg.ChunkSize = 40
	cfg.MaxItems = 50
	ix := NewIndex()
	l := NewLoader(cfg, ix, &capturePub{}, zap.NewNop())

	snap, err := l.Load(context.Background(), makeTable(120), "cap.csv")
	require.NoError(t, err)

	require.Equal(t, 50, snap.Len())
	// most recent rows survive
	assert.Equal(t, 71, snap.Items[0].ID)
	assert.Equal(t, 120, snap.Items[49].ID)
	assert.Empty(t, snap.Lookup("E280000001"))
	assert.Len(t, snap.Lookup("E280000120"), 1)
}

func TestLoader_IntermediateChunksVisible(t *testing.T) {
	cfg := testLoaderConfig()
	cfg.ChunkSize = 100
	cfg.ChunkPauseMillis = 30
	ix := NewIndex()
	l := NewLoader(cfg, ix, &capturePub{}, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background(), makeTable(300), "slow.csv")
		done <- err
	}()

	// readers see a fully indexed prefix before the load finishes
	assert.Eventually(t, func() bool {
		n := ix.Snapshot().Len()
		return n > 0 && n < 300
	}, time.Second, time.Millisecond)

	require.NoError(t, <-done)
	assert.Equal(t, 300, ix.Snapshot().Len())
}

func TestLoader_SupersededByNewerUpload(t *testing.T) {
	cfg := testLoaderConfig()
	cfg.ChunkSize = 100
	cfg.ChunkPauseMillis = 50
	ix := NewIndex()
	l := NewLoader(cfg, ix, &capturePub{}, zap.NewNop())

	first := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background(), makeTable(500), "old.csv")
		first <- err
	}()
	// let the first load publish at least one chunk
	assert.Eventually(t, func() bool { return ix.Snapshot().Len() > 0 },
		time.Second, time.Millisecond)

	snap, err := l.Load(context.Background(), makeTable(10), "new.csv")
	require.NoError(t, err)
	assert.Equal(t, 10, snap.Len())

	assert.ErrorIs(t, <-first, ErrSuperseded)
	assert.Equal(t, "new.csv", ix.Snapshot().Meta.FileName)
	assert.Equal(t, 10, ix.Snapshot().Len())
}

func TestLoader_ContextCancellation(t *testing.T) {
	cfg := testLoaderConfig()
	cfg.ChunkSize = 100
	cfg.ChunkPauseMillis = 20
	pub := &capturePub{}
	l := NewLoader(cfg, NewIndex(), pub, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Load(ctx, makeTable(500), "cancelled.csv")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, pub.byName(events.EventInventoryProcessingError), 1)
}
