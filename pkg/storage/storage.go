// Package storage defines the object store used for evidence files and
// generated proof-of-delivery artifacts.
package storage

import (
	"context"
	"time"
)

// ObjectStore is implemented by the GCS client and by the in-memory store
// used in tests.
type ObjectStore interface {
	// Put uploads data under key, overwriting any existing object.
	Put(ctx context.Context, key string, contentType string, data []byte) error
	// Get downloads the object stored under key.
	Get(ctx context.Context, key string) (data []byte, contentType string, err error)
	// SignedURL returns a time-limited download URL for key.
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	// Ping verifies the store is reachable with the configured credentials.
	Ping(ctx context.Context) error
}
