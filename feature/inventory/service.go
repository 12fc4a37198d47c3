package inventory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"rfid-portal/core/events"
	"rfid-portal/core/storage"
	"rfid-portal/core/store"
)

// ErrTooLarge is returned for uploads above the configured size limit.
var ErrTooLarge = errors.New("spreadsheet exceeds the upload size limit")

// Service owns the inventory lifecycle: uploads, the live index,
// search, persistence and optional archival of the raw file.
type Service struct {
	cfg     Config
	loader  *Loader
	index   *Index
	db      *gorm.DB
	archive storage.Client
	bucket  string
	pub     events.Publisher
	logger  *zap.Logger
}

// NewService wires the service. archive may be nil when archival is
// disabled; db may be nil in tests that skip persistence.
func NewService(cfg Config, index *Index, db *gorm.DB, archive storage.Client, bucket string, pub events.Publisher, logger *zap.Logger) *Service {
	return &Service{
		cfg:     cfg,
		loader:  NewLoader(cfg, index, pub, logger),
		index:   index,
		db:      db,
		archive: archive,
		bucket:  bucket,
		pub:     pub,
		logger:  logger,
	}
}

// Upload parses and indexes a spreadsheet, then persists and archives
// the result. Persistence and archival failures are logged, not
// surfaced: the in-memory index is already live.
func (s *Service) Upload(ctx context.Context, fileName string, data []byte) (*Snapshot, error) {
	if int64(len(data)) > s.cfg.maxUploadBytes() {
		return nil, ErrTooLarge
	}
	table, err := ParseUpload(fileName, data)
	if err != nil {
		return nil, err
	}
	snap, err := s.loader.Load(ctx, table, fileName)
	if err != nil {
		return nil, err
	}
	s.logger.Info("inventory loaded",
		zap.String("file", fileName),
		zap.Int("items", snap.Len()),
		zap.Int("keys", snap.KeyCount()))

	if s.db != nil {
		if err := SaveSnapshot(s.db, snap); err != nil {
			s.logger.Error("failed to persist inventory snapshot", zap.Error(err))
		}
	}
	s.archiveUpload(ctx, fileName, data)
	return snap, nil
}

func (s *Service) archiveUpload(ctx context.Context, fileName string, data []byte) {
	if s.archive == nil {
		return
	}
	object := fmt.Sprintf("%s/%s", time.Now().UTC().Format("2006-01-02"), fileName)
	_, err := s.archive.PutObject(ctx, s.bucket, object,
		bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		s.logger.Warn("failed to archive spreadsheet",
			zap.String("object", object), zap.Error(err))
		return
	}
	s.logger.Debug("spreadsheet archived", zap.String("object", object))
}

// Restore loads the last persisted snapshot into the index. Called
// once at startup; absence of a snapshot is not an error.
func (s *Service) Restore(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	snap, err := LoadSnapshot(s.db)
	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}
	s.index.Publish(snap)
	s.logger.Info("inventory restored from store",
		zap.String("file", snap.Meta.FileName),
		zap.Int("items", snap.Len()))
	return nil
}

// Data returns the current items and their upload metadata.
func (s *Service) Data() ([]Item, Metadata) {
	snap := s.index.Snapshot()
	return snap.Items, snap.Meta
}

// Search filters the current items by a case-insensitive substring
// query. When columns are given only those fields are examined,
// otherwise every field.
func (s *Service) Search(query string, columns []string) []Item {
	snap := s.index.Snapshot()
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return snap.Items
	}
	var out []Item
	for _, it := range snap.Items {
		if itemMatches(it, query, columns) {
			out = append(out, it)
		}
	}
	return out
}

func itemMatches(it Item, query string, columns []string) bool {
	if len(columns) > 0 {
		for _, col := range columns {
			if v, ok := it.Fields[col]; ok &&
				strings.Contains(strings.ToLower(cellString(v)), query) {
				return true
			}
		}
		return false
	}
	for _, v := range it.Fields {
		if strings.Contains(strings.ToLower(cellString(v)), query) {
			return true
		}
	}
	return false
}

// Clear drops the index and the persisted snapshot.
func (s *Service) Clear(ctx context.Context) error {
	s.index.Clear()
	if s.db != nil {
		if err := store.ClearSnapshot(s.db); err != nil {
			return err
		}
	}
	s.pub.Publish(events.EventInventoryUpdated, map[string]any{
		"items":    []Item{},
		"metadata": Metadata{},
	})
	s.logger.Info("inventory cleared")
	return nil
}

// Status summarizes the loaded inventory.
func (s *Service) Status() map[string]any {
	snap := s.index.Snapshot()
	return map[string]any{
		"loaded":     snap.Len() > 0,
		"totalItems": snap.Len(),
		"uniqueKeys": snap.KeyCount(),
		"fileName":   snap.Meta.FileName,
		"uploadDate": snap.Meta.UploadDate,
		"columns":    snap.Meta.Columns,
	}
}
