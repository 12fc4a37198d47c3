package inventory

import (
	"context"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"rfid-portal/core/storage/mocks"
	"rfid-portal/core/store"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := store.Open(store.Config{Path: ":memory:"})
	require.NoError(t, err)
	return db
}

func newTestService(t *testing.T, db *gorm.DB) (*Service, *Index) {
	t.Helper()
	ix := NewIndex()
	cfg := Config{ChunkSize: 1000, MaxItems: 50000, Marker: "uhf", MaxUploadMB: 10}
	svc := NewService(cfg, ix, db, nil, "", &capturePub{}, zap.NewNop())
	return svc, ix
}

const sampleCSV = "id,uhf,desc\n1,E280A001,Chair\n2,E280A002,Desk\n3,E280A003,Lamp\n"

func TestService_UploadAndLookup(t *testing.T) {
	svc, ix := newTestService(t, testDB(t))

	snap, err := svc.Upload(context.Background(), "assets.csv", []byte(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Len())

	hits := ix.Lookup("E280A002")
	require.Len(t, hits, 1)
	assert.Equal(t, "Desk", hits[0].Fields["desc"])
}

func TestService_UploadLimits(t *testing.T) {
	svc, _ := newTestService(t, nil)

	t.Run("too large", func(t *testing.T) {
		cfg := Config{MaxUploadMB: 0, ChunkSize: 10, MaxItems: 10, Marker: "uhf"}
		small := NewService(cfg, NewIndex(), nil, nil, "", &capturePub{}, zap.NewNop())
		_, err := small.Upload(context.Background(), "big.csv", []byte(sampleCSV))
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := svc.Upload(context.Background(), "notes.txt", []byte("hello"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestService_PersistAndRestore(t *testing.T) {
	db := testDB(t)
	svc, _ := newTestService(t, db)
	_, err := svc.Upload(context.Background(), "assets.csv", []byte(sampleCSV))
	require.NoError(t, err)

	// a fresh service over the same DB sees the upload
	restored, ix2 := newTestService(t, db)
	require.NoError(t, restored.Restore(context.Background()))

	snap := ix2.Snapshot()
	assert.Equal(t, 3, snap.Len())
	assert.Equal(t, "assets.csv", snap.Meta.FileName)
	assert.Equal(t, []string{"id", "uhf", "desc"}, snap.Meta.Columns)
	require.Len(t, ix2.Lookup("E280A003"), 1)
	assert.Equal(t, "Lamp", ix2.Lookup("E280A003")[0].Fields["desc"])
}

func TestService_ArchivesUpload(t *testing.T) {
	archive := new(mocks.Client)
	archive.On("PutObject", mock.Anything, "uploads", mock.Anything,
		mock.Anything, int64(len(sampleCSV)), mock.Anything).
		Return(minio.UploadInfo{}, nil)

	cfg := Config{ChunkSize: 1000, MaxItems: 50000, Marker: "uhf", MaxUploadMB: 10}
	svc := NewService(cfg, NewIndex(), nil, archive, "uploads", &capturePub{}, zap.NewNop())

	_, err := svc.Upload(context.Background(), "assets.csv", []byte(sampleCSV))
	require.NoError(t, err)
	archive.AssertExpectations(t)
}

func TestService_ArchiveFailureIsNonFatal(t *testing.T) {
	archive := new(mocks.Client)
	archive.On("PutObject", mock.Anything, "uploads", mock.Anything,
		mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, assert.AnError)

	cfg := Config{ChunkSize: 1000, MaxItems: 50000, Marker: "uhf", MaxUploadMB: 10}
	svc := NewService(cfg, NewIndex(), nil, archive, "uploads", &capturePub{}, zap.NewNop())

	snap, err := svc.Upload(context.Background(), "assets.csv", []byte(sampleCSV))
	require.NoError(t, err, "the index load succeeded, archival is best effort")
	assert.Equal(t, 3, snap.Len())
}

func TestService_RestoreWithoutSnapshot(t *testing.T) {
	svc, ix := newTestService(t, testDB(t))
	require.NoError(t, svc.Restore(context.Background()))
	assert.Equal(t, 0, ix.Snapshot().Len())
}

func TestService_Search(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Upload(context.Background(), "assets.csv", []byte(sampleCSV))
	require.NoError(t, err)

	t.Run("free text across all fields", func(t *testing.T) {
		hits := svc.Search("desk", nil)
		require.Len(t, hits, 1)
		assert.Equal(t, 2, hits[0].ID)
	})

	t.Run("restricted to columns", func(t *testing.T) {
		assert.Empty(t, svc.Search("desk", []string{"uhf"}))
		assert.Len(t, svc.Search("e280", []string{"uhf"}), 3)
	})

	t.Run("empty query returns everything", func(t *testing.T) {
		assert.Len(t, svc.Search("  ", nil), 3)
	})
}

func TestService_Clear(t *testing.T) {
	db := testDB(t)
	svc, ix := newTestService(t, db)
	_, err := svc.Upload(context.Background(), "assets.csv", []byte(sampleCSV))
	require.NoError(t, err)

	require.NoError(t, svc.Clear(context.Background()))
	assert.Equal(t, 0, ix.Snapshot().Len())

	rec, err := store.LoadSnapshot(db)
	require.NoError(t, err)
	assert.Nil(t, rec)

	status := svc.Status()
	assert.Equal(t, false, status["loaded"])
}

func TestService_Status(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Upload(context.Background(), "assets.csv", []byte(sampleCSV))
	require.NoError(t, err)

	status := svc.Status()
	assert.Equal(t, true, status["loaded"])
	assert.Equal(t, 3, status["totalItems"])
	assert.Equal(t, 3, status["uniqueKeys"])
	assert.Equal(t, "assets.csv", status["fileName"])
}
