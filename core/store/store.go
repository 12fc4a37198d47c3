package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SnapshotRecord is the persisted form of an inventory snapshot.
// Items and Columns are JSON-encoded by the inventory feature; the
// store treats them as opaque payloads.
type SnapshotRecord struct {
	ID         uint      `gorm:"primaryKey"`
	FileName   string    `gorm:"column:file_name"`
	UploadDate time.Time `gorm:"column:upload_date"`
	TotalItems int       `gorm:"column:total_items"`
	Columns    []byte    `gorm:"column:columns"`
	Items      []byte    `gorm:"column:items"`
	UpdatedAt  time.Time
}

func (SnapshotRecord) TableName() string {
	return "inventory_snapshot"
}

// Open opens (creating if needed) the snapshot database and migrates
// its schema.
func Open(cfg Config) (*gorm.DB, error) {
	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	// Suppress GORM logging; the application logger reports store errors.
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	if err := db.AutoMigrate(&SnapshotRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate snapshot schema: %w", err)
	}
	return db, nil
}

// SaveSnapshot replaces the persisted snapshot with rec. The table
// holds at most one row.
func SaveSnapshot(db *gorm.DB, rec *SnapshotRecord) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&SnapshotRecord{}).Error; err != nil {
			return err
		}
		rec.ID = 0
		return tx.Create(rec).Error
	})
}

// LoadSnapshot returns the persisted snapshot, or (nil, nil) when none
// has been saved yet.
func LoadSnapshot(db *gorm.DB) (*SnapshotRecord, error) {
	var rec SnapshotRecord
	err := db.First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ClearSnapshot removes any persisted snapshot.
func ClearSnapshot(db *gorm.DB) error {
	return db.Where("1 = 1").Delete(&SnapshotRecord{}).Error
}
