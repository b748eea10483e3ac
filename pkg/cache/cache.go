// Package cache provides the caching layer for scope snapshots and HTTP
// responses: a storage-agnostic Cache interface with file, Redis, and
// null backends, plus Keyer implementations that derive stable cache keys.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented cache with TTL support.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A non-positive ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer derives cache keys for the things the application caches.
type Keyer interface {
	// HTTPKey generates a key for a cached HTTP response.
	HTTPKey(namespace, key string) string

	// SnapshotKey generates a key for a scope snapshot. scope is the
	// focused group's ID string, or "" for the baseline scope.
	SnapshotKey(scope string) string
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// SnapshotKey generates a hashed key for a scope snapshot. Hashing keeps
// keys fixed-length and safe for any backend.
func (k *DefaultKeyer) SnapshotKey(scope string) string {
	return hashKey("snapshot", scope)
}
