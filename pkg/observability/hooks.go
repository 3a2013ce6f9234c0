// Package observability provides hooks for metrics and tracing.
//
// The generation engine stays free of hard dependencies on any metrics
// backend: the hook interfaces defined here have no-op defaults, and
// main can register real implementations (Prometheus, OpenTelemetry,
// ...) at startup.
//
// Register hooks once, before any generation runs:
//
//	func main() {
//	    observability.SetGenerationHooks(&myHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Generation().OnPrepareStart(ctx, total, workers)
//	// ... generate cards ...
//	observability.Generation().OnPrepareComplete(ctx, accepted, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Generation Hooks
// =============================================================================

// GenerationHooks receives events from card generation sessions.
type GenerationHooks interface {
	// OnPrepareStart fires when a session starts producing a batch.
	OnPrepareStart(ctx context.Context, total, workers int)

	// OnCardAccepted fires for every card admitted into the batch.
	OnCardAccepted(ctx context.Context, index int)

	// OnDuplicate fires when a candidate collides with the registry.
	OnDuplicate(ctx context.Context)

	// OnPrepareComplete fires when the batch finishes or fails.
	OnPrepareComplete(ctx context.Context, accepted int, duration time.Duration, err error)
}

// =============================================================================
// Registry Hooks
// =============================================================================

// RegistryHooks receives events from fingerprint registry backends.
type RegistryHooks interface {
	// OnAdd records an insert attempt; inserted is false for duplicates.
	OnAdd(ctx context.Context, backend string, inserted bool)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopGenerationHooks is a no-op implementation of GenerationHooks.
type NoopGenerationHooks struct{}

func (NoopGenerationHooks) OnPrepareStart(context.Context, int, int)                     {}
func (NoopGenerationHooks) OnCardAccepted(context.Context, int)                          {}
func (NoopGenerationHooks) OnDuplicate(context.Context)                                  {}
func (NoopGenerationHooks) OnPrepareComplete(context.Context, int, time.Duration, error) {}

// NoopRegistryHooks is a no-op implementation of RegistryHooks.
type NoopRegistryHooks struct{}

func (NoopRegistryHooks) OnAdd(context.Context, string, bool) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	generationHooks GenerationHooks = NoopGenerationHooks{}
	registryHooks   RegistryHooks   = NoopRegistryHooks{}
	hooksMu         sync.RWMutex
)

// SetGenerationHooks registers custom generation hooks.
// This should be called once at application startup before any session runs.
func SetGenerationHooks(h GenerationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		generationHooks = h
	}
}

// SetRegistryHooks registers custom registry hooks.
// This should be called once at application startup before any session runs.
func SetRegistryHooks(h RegistryHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		registryHooks = h
	}
}

// Generation returns the registered generation hooks.
func Generation() GenerationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return generationHooks
}

// Registry returns the registered registry hooks.
func Registry() RegistryHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return registryHooks
}

// Reset restores the no-op defaults. Intended for tests.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	generationHooks = NoopGenerationHooks{}
	registryHooks = NoopRegistryHooks{}
}
