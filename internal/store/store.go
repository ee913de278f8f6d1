// Package store provides the key-value configuration store the federation
// layer persists scope configuration and cached brand config through. The
// interface keeps the core testable without a live backing store.
package store

import (
	"context"
	"time"
)

// ConfigStore is a small TTL-aware key-value store.
type ConfigStore interface {
	// Get returns the stored value and whether the key exists and is
	// unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
