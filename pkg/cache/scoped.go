package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// Useful when several graph datasets share one cache backend and need
// separate namespaces.
//
// Example usage:
//
//	// Dataset-specific keys
//	dsKeyer := NewScopedKeyer(NewDefaultKeyer(), "dataset:abc123:")
//
//	// Global keys
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// SnapshotKey generates a prefixed key for snapshot caching.
func (k *ScopedKeyer) SnapshotKey(scope string) string {
	return k.prefix + k.inner.SnapshotKey(scope)
}
