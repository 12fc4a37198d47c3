package inventory

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"rfid-portal/core/events"
)

// ErrSuperseded is returned when a newer upload started while a
// chunked load was still running. The newer load owns the index.
var ErrSuperseded = errors.New("inventory load superseded by a newer upload")

// Loader builds snapshots from parsed tables and publishes them to the
// index. Sheets above ChunkSize rows are indexed in batches with
// progress events so clients can render large uploads incrementally.
type Loader struct {
	cfg    Config
	index  *Index
	pub    events.Publisher
	logger *zap.Logger

	gen atomic.Uint64
}

func NewLoader(cfg Config, index *Index, pub events.Publisher, logger *zap.Logger) *Loader {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 50000
	}
	return &Loader{cfg: cfg, index: index, pub: pub, logger: logger}
}

// Load indexes a table and publishes the resulting snapshot. Small
// sheets go in one step; larger ones chunk with progress events. The
// returned snapshot is the final generation, nil when superseded.
func (l *Loader) Load(ctx context.Context, table *Table, fileName string) (*Snapshot, error) {
	gen := l.gen.Add(1)
	meta := Metadata{
		FileName:   fileName,
		UploadDate: time.Now().UTC(),
		Columns:    append([]string(nil), table.Headers...),
	}
	keyColumn := DetectKeyColumn(table.Headers, l.cfg.Marker)

	if len(table.Rows) <= l.cfg.ChunkSize {
		items := l.buildItems(table.Rows, 0, keyColumn)
		items = l.truncate(items)
		snap := BuildSnapshot(items, meta)
		if !l.current(gen) {
			return nil, ErrSuperseded
		}
		l.index.Publish(snap)
		l.publishUpdated(snap)
		return snap, nil
	}
	return l.loadChunked(ctx, gen, table, meta, keyColumn)
}

func (l *Loader) loadChunked(ctx context.Context, gen uint64, table *Table, meta Metadata, keyColumn string) (*Snapshot, error) {
	totalRows := len(table.Rows)
	totalBatches := (totalRows + l.cfg.ChunkSize - 1) / l.cfg.ChunkSize

	l.pub.Publish(events.EventInventoryProcessingStarted, map[string]any{
		"fileName":     meta.FileName,
		"totalRows":    totalRows,
		"batchSize":    l.cfg.ChunkSize,
		"totalBatches": totalBatches,
	})
	l.logger.Info("processing spreadsheet in batches",
		zap.String("file", meta.FileName),
		zap.Int("rows", totalRows),
		zap.Int("batches", totalBatches))

	var (
		items []Item
		snap  *Snapshot
	)
	for batch := 0; batch < totalBatches; batch++ {
		if err := ctx.Err(); err != nil {
			l.pub.Publish(events.EventInventoryProcessingError, map[string]any{
				"fileName": meta.FileName,
				"error":    err.Error(),
			})
			return nil, err
		}
		if !l.current(gen) {
			l.logger.Info("abandoning superseded inventory load",
				zap.String("file", meta.FileName),
				zap.Int("batch", batch))
			return nil, ErrSuperseded
		}

		start := batch * l.cfg.ChunkSize
		end := min(start+l.cfg.ChunkSize, totalRows)
		items = append(items, l.buildItems(table.Rows[start:end], start, keyColumn)...)
		items = l.truncate(items)

		// Each completed batch becomes a visible, fully indexed
		// generation so readers never observe half a chunk.
		snap = BuildSnapshot(items, meta)
		l.index.Publish(snap)

		processed := end
		l.pub.Publish(events.EventInventoryProcessingProgress, map[string]any{
			"fileName":      meta.FileName,
			"batchIndex":    batch + 1,
			"totalBatches":  totalBatches,
			"processedRows": processed,
			"totalRows":     totalRows,
			"progress":      int(math.Round(float64(processed) / float64(totalRows) * 100)),
		})

		if batch < totalBatches-1 && l.cfg.ChunkPauseMillis > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(time.Duration(l.cfg.ChunkPauseMillis) * time.Millisecond):
			}
		}
	}

	if !l.current(gen) {
		return nil, ErrSuperseded
	}
	l.pub.Publish(events.EventInventoryProcessingCompleted, map[string]any{
		"fileName":   meta.FileName,
		"totalItems": snap.Len(),
		"columns":    meta.Columns,
	})
	l.publishUpdated(snap)
	return snap, nil
}

func (l *Loader) buildItems(rows []map[string]any, offset int, keyColumn string) []Item {
	items := make([]Item, 0, len(rows))
	for i, fields := range rows {
		items = append(items, Item{
			ID:     offset + i + 1,
			Row:    offset + i + 2, // header occupies the first sheet row
			Fields: fields,
			Key:    keyOf(fields, keyColumn, l.cfg.Marker),
		})
	}
	return items
}

// truncate enforces the memory cap, keeping the most recent rows.
func (l *Loader) truncate(items []Item) []Item {
	if over := len(items) - l.cfg.MaxItems; over > 0 {
		l.logger.Warn("inventory exceeds item cap, dropping oldest rows",
			zap.Int("dropped", over),
			zap.Int("cap", l.cfg.MaxItems))
		items = items[over:]
	}
	return items
}

func (l *Loader) current(gen uint64) bool { return l.gen.Load() == gen }

func (l *Loader) publishUpdated(snap *Snapshot) {
	l.pub.Publish(events.EventInventoryUpdated, map[string]any{
		"items":    snap.Items,
		"metadata": snap.Meta,
	})
}
