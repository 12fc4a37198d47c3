package inventory

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"rfid-portal/core/store"
)

// itemRecord is the persisted shape of an Item. The flat event JSON
// loses the derived key, so storage keeps its own layout.
type itemRecord struct {
	ID     int            `json:"id"`
	Row    int            `json:"row"`
	Key    string         `json:"key,omitempty"`
	Fields map[string]any `json:"fields"`
}

// SaveSnapshot writes the snapshot to the store, replacing whatever
// upload was persisted before it.
func SaveSnapshot(db *gorm.DB, snap *Snapshot) error {
	records := make([]itemRecord, len(snap.Items))
	for i, it := range snap.Items {
		records[i] = itemRecord{ID: it.ID, Row: it.Row, Key: it.Key, Fields: it.Fields}
	}
	items, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode inventory items: %w", err)
	}
	columns, err := json.Marshal(snap.Meta.Columns)
	if err != nil {
		return fmt.Errorf("failed to encode inventory columns: %w", err)
	}
	return store.SaveSnapshot(db, &store.SnapshotRecord{
		FileName:   snap.Meta.FileName,
		UploadDate: snap.Meta.UploadDate,
		TotalItems: len(snap.Items),
		Columns:    columns,
		Items:      items,
	})
}

// LoadSnapshot restores the last persisted upload, or (nil, nil) when
// nothing was saved.
func LoadSnapshot(db *gorm.DB) (*Snapshot, error) {
	rec, err := store.LoadSnapshot(db)
	if err != nil || rec == nil {
		return nil, err
	}
	var records []itemRecord
	if err := json.Unmarshal(rec.Items, &records); err != nil {
		return nil, fmt.Errorf("failed to decode inventory items: %w", err)
	}
	var columns []string
	if len(rec.Columns) > 0 {
		if err := json.Unmarshal(rec.Columns, &columns); err != nil {
			return nil, fmt.Errorf("failed to decode inventory columns: %w", err)
		}
	}
	items := make([]Item, len(records))
	for i, r := range records {
		items[i] = Item{ID: r.ID, Row: r.Row, Key: r.Key, Fields: r.Fields}
	}
	return BuildSnapshot(items, Metadata{
		FileName:   rec.FileName,
		UploadDate: rec.UploadDate,
		Columns:    columns,
	}), nil
}
