package storage

import (
	"context"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rfid-portal/core/storage/mocks"
)

func TestNewClient_StripsScheme(t *testing.T) {
	client, err := NewClient(Config{Endpoint: "http://localhost:9000"})
	require.NoError(t, err)
	assert.NotNil(t, client)

	client, err = NewClient(Config{Endpoint: "https://minio.internal:9000", UseSSL: true})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestEnsureBucket(t *testing.T) {
	t.Run("existing bucket untouched", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", mock.Anything, "rfid-uploads").Return(true, nil)

		require.NoError(t, EnsureBucket(context.Background(), m, "rfid-uploads", ""))
		m.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing bucket created", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", mock.Anything, "rfid-uploads").Return(false, nil)
		m.On("MakeBucket", mock.Anything, "rfid-uploads", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil)

		require.NoError(t, EnsureBucket(context.Background(), m, "rfid-uploads", "us-east-1"))
		m.AssertExpectations(t)
	})

	t.Run("exists check failure surfaces", func(t *testing.T) {
		m := new(mocks.Client)
		m.On("BucketExists", mock.Anything, "rfid-uploads").Return(false, assert.AnError)

		assert.Error(t, EnsureBucket(context.Background(), m, "rfid-uploads", ""))
	})
}
