// Package registry tracks the fingerprints of every card accepted
// during a generation session and answers the one question that keeps
// a batch duplicate-free: "has this card been seen before?".
//
// The [Registry] interface exposes a single atomic insert-if-absent
// primitive so that concurrent generator workers can never both accept
// the same card. Two backends are provided:
//
//   - [MemoryRegistry]: the default, scoped to one process and thrown
//     away with the session.
//   - [RedisRegistry]: shares one fingerprint set across processes so a
//     whole event stays duplicate-free even when cards are printed from
//     several machines.
package registry

import (
	"context"
	"errors"
	"sync"

	"github.com/polsolde/bingo-fes-te-jove/pkg/observability"
)

// ErrUnavailable is returned when a registry backend cannot be reached.
var ErrUnavailable = errors.New("registry unavailable")

// Registry is a set of card fingerprints shared by all generator
// workers in a session.
type Registry interface {
	// Add inserts fingerprint fp if absent. It reports whether the
	// insert happened: false means the fingerprint was already present
	// and the card must be discarded. Check and insert are atomic.
	Add(ctx context.Context, fp string) (bool, error)

	// Len returns the number of fingerprints registered so far.
	Len(ctx context.Context) (int, error)

	// Close releases any resources held by the backend.
	Close() error
}

// MemoryRegistry is an in-process fingerprint set guarded by a mutex.
// It is safe for concurrent use and is discarded with the session.
type MemoryRegistry struct {
	mu  sync.Mutex
	set map[string]struct{}
}

// NewMemory creates an empty in-memory registry.
func NewMemory() *MemoryRegistry {
	return &MemoryRegistry{set: make(map[string]struct{})}
}

// Add inserts fp if absent and reports whether it did.
func (r *MemoryRegistry) Add(ctx context.Context, fp string) (bool, error) {
	r.mu.Lock()
	_, dup := r.set[fp]
	if !dup {
		r.set[fp] = struct{}{}
	}
	r.mu.Unlock()

	observability.Registry().OnAdd(ctx, "memory", !dup)
	return !dup, nil
}

// Len returns the number of registered fingerprints.
func (r *MemoryRegistry) Len(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.set), nil
}

// Close does nothing for the in-memory backend.
func (r *MemoryRegistry) Close() error {
	return nil
}

// Ensure MemoryRegistry implements Registry.
var _ Registry = (*MemoryRegistry)(nil)
