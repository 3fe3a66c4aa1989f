package image

import (
	"context"

	"github.com/imamik/spotbuild/internal/platform/s3"
)

// ObjectPutter uploads objects. Satisfied by the s3 platform client.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucket, key, contentType string, data []byte) error
}

// BucketArchiver stores transcripts as <prefix>/<runID>.log in a bucket.
type BucketArchiver struct {
	store  ObjectPutter
	bucket string
	prefix string
}

// NewBucketArchiver creates a BucketArchiver.
func NewBucketArchiver(store ObjectPutter, bucket, prefix string) *BucketArchiver {
	return &BucketArchiver{store: store, bucket: bucket, prefix: prefix}
}

// Key returns the object key for runID.
func (a *BucketArchiver) Key(runID string) string {
	return s3.TranscriptKey(a.prefix, runID)
}

// Archive uploads transcript.
func (a *BucketArchiver) Archive(ctx context.Context, runID string, transcript []byte) error {
	return a.store.PutObject(ctx, a.bucket, a.Key(runID), "text/plain; charset=utf-8", transcript)
}
