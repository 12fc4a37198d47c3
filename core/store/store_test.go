package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesDataDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "portal.db")
	db, err := Open(Config{Path: path})
	require.NoError(t, err)
	assert.NotNil(t, db)
}

func TestSnapshotRoundTrip(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)

	rec := &SnapshotRecord{
		FileName:   "assets.xlsx",
		UploadDate: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		TotalItems: 2,
		Columns:    []byte(`["id","uhf"]`),
		Items:      []byte(`[{"id":1},{"id":2}]`),
	}
	require.NoError(t, SaveSnapshot(db, rec))

	got, err := LoadSnapshot(db)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "assets.xlsx", got.FileName)
	assert.Equal(t, 2, got.TotalItems)
	assert.JSONEq(t, `["id","uhf"]`, string(got.Columns))
}

func TestSaveSnapshot_ReplacesPrevious(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)

	require.NoError(t, SaveSnapshot(db, &SnapshotRecord{FileName: "first.csv"}))
	require.NoError(t, SaveSnapshot(db, &SnapshotRecord{FileName: "second.csv"}))

	var count int64
	require.NoError(t, db.Model(&SnapshotRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	got, err := LoadSnapshot(db)
	require.NoError(t, err)
	assert.Equal(t, "second.csv", got.FileName)
}

func TestLoadSnapshot_Empty(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)

	got, err := LoadSnapshot(db)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClearSnapshot(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)

	require.NoError(t, SaveSnapshot(db, &SnapshotRecord{FileName: "f.csv"}))
	require.NoError(t, ClearSnapshot(db))

	got, err := LoadSnapshot(db)
	require.NoError(t, err)
	assert.Nil(t, got)
}
