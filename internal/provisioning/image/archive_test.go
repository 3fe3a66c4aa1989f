package image

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	bucket, key, contentType string
	data                     []byte
	err                      error
}

func (f *fakeStore) PutObject(_ context.Context, bucket, key, contentType string, data []byte) error {
	f.bucket, f.key, f.contentType, f.data = bucket, key, contentType, data
	return f.err
}

func TestBucketArchiver(t *testing.T) {
	store := &fakeStore{}
	a := NewBucketArchiver(store, "build-logs", "spotbuild/")

	require.NoError(t, a.Archive(context.Background(), "run-1", []byte("transcript")))
	assert.Equal(t, "build-logs", store.bucket)
	assert.Equal(t, "spotbuild/run-1.log", store.key)
	assert.Equal(t, "text/plain; charset=utf-8", store.contentType)
	assert.Equal(t, "transcript", string(store.data))
}

func TestBucketArchiver_Error(t *testing.T) {
	store := &fakeStore{err: errors.New("access denied")}
	err := NewBucketArchiver(store, "build-logs", "").Archive(context.Background(), "run-1", nil)
	assert.ErrorContains(t, err, "access denied")
}
