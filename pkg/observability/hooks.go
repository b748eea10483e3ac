// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about focus transitions, cache operations, and API calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetTransitionHooks(&myTransitionHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Transition().OnTransitionStart(ctx, "enter", nodeID)
//	// ... run the transition ...
//	observability.Transition().OnTransitionComplete(ctx, "enter", nodeID, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Transition Hooks
// =============================================================================

// TransitionHooks receives events from the focus transition orchestrator.
// kind is "enter", "exit" or "rebuild"; nodeID is the focus target's ID
// string, empty for rebuilds.
type TransitionHooks interface {
	// Transition lifecycle
	OnTransitionStart(ctx context.Context, kind, nodeID string)
	OnTransitionComplete(ctx context.Context, kind, nodeID string, duration time.Duration, err error)

	// OnTransitionRejected records an input that arrived while a
	// transition was already in flight.
	OnTransitionRejected(ctx context.Context, kind, nodeID string)

	// OnAttachTimeout records a layer that failed to attach in time,
	// forcing a rollback.
	OnAttachTimeout(ctx context.Context, nodeID string, waited time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopTransitionHooks is a no-op implementation of TransitionHooks.
type NoopTransitionHooks struct{}

func (NoopTransitionHooks) OnTransitionStart(context.Context, string, string) {}
func (NoopTransitionHooks) OnTransitionComplete(context.Context, string, string, time.Duration, error) {
}
func (NoopTransitionHooks) OnTransitionRejected(context.Context, string, string)     {}
func (NoopTransitionHooks) OnAttachTimeout(context.Context, string, time.Duration)   {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	transitionHooks TransitionHooks = NoopTransitionHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	httpHooks       HTTPHooks       = NoopHTTPHooks{}
	hooksMu         sync.RWMutex
)

// SetTransitionHooks registers custom transition hooks.
// This should be called once at application startup before any transitions run.
func SetTransitionHooks(h TransitionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		transitionHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Transition returns the registered transition hooks.
func Transition() TransitionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return transitionHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	transitionHooks = NoopTransitionHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
