// Package observability provides hooks for metrics about image loading and
// exports.
//
// Libraries call the registered hooks; main registers an implementation at
// startup. The defaults do nothing, so packages and tests that never
// register hooks pay nothing. [Counters] is a ready-made implementation that
// keeps totals in memory for the booth's /api/metrics endpoint.
//
//	counters := observability.NewCounters()
//	observability.SetImageHooks(counters)
//	observability.SetExportHooks(counters)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Hook interfaces
// =============================================================================

// ImageHooks receives events from the image loader. kind is the source
// kind: "file", "http", "data" or "upload".
type ImageHooks interface {
	OnCacheHit(ctx context.Context, kind string)
	OnCacheMiss(ctx context.Context, kind string)
	OnFetch(ctx context.Context, kind string, size int, duration time.Duration, err error)
	OnDecode(ctx context.Context, format string, duration time.Duration, err error)
}

// ExportHooks receives events from composite exports.
type ExportHooks interface {
	OnExportStart(ctx context.Context, format string, photos int)
	OnExportComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopImageHooks is a no-op implementation of ImageHooks.
type NoopImageHooks struct{}

func (NoopImageHooks) OnCacheHit(context.Context, string)                         {}
func (NoopImageHooks) OnCacheMiss(context.Context, string)                        {}
func (NoopImageHooks) OnFetch(context.Context, string, int, time.Duration, error) {}
func (NoopImageHooks) OnDecode(context.Context, string, time.Duration, error)     {}

// NoopExportHooks is a no-op implementation of ExportHooks.
type NoopExportHooks struct{}

func (NoopExportHooks) OnExportStart(context.Context, string, int)                          {}
func (NoopExportHooks) OnExportComplete(context.Context, string, int, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	imageHooks  ImageHooks  = NoopImageHooks{}
	exportHooks ExportHooks = NoopExportHooks{}
	hooksMu     sync.RWMutex
)

// SetImageHooks registers image hooks. Call it once at startup.
func SetImageHooks(h ImageHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		imageHooks = h
	}
}

// SetExportHooks registers export hooks. Call it once at startup.
func SetExportHooks(h ExportHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		exportHooks = h
	}
}

// Images returns the registered image hooks.
func Images() ImageHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return imageHooks
}

// Export returns the registered export hooks.
func Export() ExportHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return exportHooks
}

// Reset restores the no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	imageHooks = NoopImageHooks{}
	exportHooks = NoopExportHooks{}
}
