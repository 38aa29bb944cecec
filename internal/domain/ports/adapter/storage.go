package adapter

import (
	"context"
	"time"
)

// ObjectStorage is the port for the external object store. Jobs reference
// objects by (bucket, path); bytes never touch the database.
type ObjectStorage interface {
	// SignReadURL returns a time-limited URL granting read access.
	SignReadURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error)

	// PutObject stores bytes and returns the storage path actually used.
	PutObject(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error)
}
