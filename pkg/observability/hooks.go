// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about configuration extraction and snapshot submission.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetExtractionHooks(&myExtractionHooks{})
//	    observability.SetHTTPHooks(&myHTTPHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Extraction().OnConfigurationResolved(ctx, root, configuration, components, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Extraction Hooks
// =============================================================================

// ExtractionHooks receives events from the dependency extractor.
type ExtractionHooks interface {
	// OnConfigurationResolved records a walked configuration. err is non-nil
	// when the walk or merge failed.
	OnConfigurationResolved(ctx context.Context, root, configuration string, components int, duration time.Duration, err error)

	// OnConfigurationSkipped records a configuration that was not extracted.
	OnConfigurationSkipped(ctx context.Context, buildPath, configuration, reason string)

	// OnSnapshotAssembled records a finished snapshot.
	OnSnapshotAssembled(ctx context.Context, manifests, components int)
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

// NoopExtractionHooks is a no-op implementation of ExtractionHooks.
type NoopExtractionHooks struct{}

func (NoopExtractionHooks) OnConfigurationResolved(context.Context, string, string, int, time.Duration, error) {
}
func (NoopExtractionHooks) OnConfigurationSkipped(context.Context, string, string, string) {}
func (NoopExtractionHooks) OnSnapshotAssembled(context.Context, int, int)                  {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	extractionHooks ExtractionHooks = NoopExtractionHooks{}
	httpHooks       HTTPHooks       = NoopHTTPHooks{}
	hooksMu         sync.RWMutex
)

// SetExtractionHooks registers custom extraction hooks.
// This should be called once at application startup before any extraction.
func SetExtractionHooks(h ExtractionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		extractionHooks = h
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

// Extraction returns the registered extraction hooks.
func Extraction() ExtractionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return extractionHooks
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
	extractionHooks = NoopExtractionHooks{}
	httpHooks = NoopHTTPHooks{}
}
