// Package storage defines the object-store abstraction the file subsystem
// writes content through. Keys are opaque strings produced by the object
// path generator; implementations own nothing but bytes.
package storage

import (
	"context"
	"time"
)

// ObjectStore is the interface for S3-compatible content storage.
// Implementations must be safe for concurrent use and must bound every call
// with their own timeout.
type ObjectStore interface {
	// Put stores a payload at key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get retrieves the payload stored at key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// PresignUpload returns a time-limited URL a client can PUT content to.
	PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)

	// PresignDownload returns a time-limited URL a client can GET content from.
	PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error)

	// HeadBucket verifies the bucket exists and credentials are valid.
	HeadBucket(ctx context.Context) error
}
