package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gallery/internal/config"
)

func TestPresignUploadIsOffline(t *testing.T) {
	store, err := NewObjectStore(config.StorageConfig{
		Endpoint:        "http://127.0.0.1:9",
		AccessKey:       "minio",
		SecretKey:       "minio-secret",
		BucketOriginals: "gallery-originals",
		Region:          "us-east-1",
	})
	require.NoError(t, err)

	u, err := store.PresignUpload(context.Background(), "uploads/abc", 15*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "127.0.0.1:9", u.Host)
	assert.True(t, strings.HasSuffix(u.Path, "/gallery-originals/uploads/abc"))
	q := u.Query()
	assert.Equal(t, "900", q.Get("X-Amz-Expires"))
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
}

func TestNewObjectStoreHonoursScheme(t *testing.T) {
	store, err := NewObjectStore(config.StorageConfig{
		Endpoint:        "https://s3.gallery.test",
		AccessKey:       "k",
		SecretKey:       "s",
		BucketOriginals: "b",
		Region:          "us-east-1",
	})
	require.NoError(t, err)

	u, err := store.PresignUpload(context.Background(), "uploads/x", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
}
