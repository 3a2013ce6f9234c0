// Package session drives card generation for one event round and
// guarantees that every card it hands out is unique.
//
// A [Session] owns a pool of generator workers, a fingerprint
// [registry.Registry], and the ordered collection of accepted cards.
// Generation is demand-driven: workers propose candidate cards one at a
// time, the session fingerprints each candidate and keeps it only when
// the registry has never seen that fingerprint. The collection grows in
// acceptance order until the requested total is reached.
//
// # Usage
//
// Produce a batch of unique cards:
//
//	sess := session.New(session.Options{Workers: 4})
//	defer sess.Close()
//
//	cards, err := sess.Prepare(ctx, 10000)
//	if err != nil {
//	    return err
//	}
//	ok := session.ValidateUnique(cards) // post-hoc oracle
//
// Share a registry across processes so a whole event stays
// duplicate-free:
//
//	reg, err := registry.NewRedis(ctx, registry.RedisConfig{
//	    Addr:  "localhost:6379",
//	    Event: "festa-major-2026",
//	})
//	sess := session.New(session.Options{Registry: reg})
package session

import (
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/polsolde/bingo-fes-te-jove/pkg/card"
	apperrors "github.com/polsolde/bingo-fes-te-jove/pkg/errors"
	"github.com/polsolde/bingo-fes-te-jove/pkg/observability"
	"github.com/polsolde/bingo-fes-te-jove/pkg/registry"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultWorkers is the number of generator workers when Options
	// leaves it unset. Generation is CPU-light, so a small pool keeps
	// registry contention low while still covering tens of thousands
	// of cards in seconds.
	DefaultWorkers = 4

	// DefaultBatchSize is the progress-reporting granularity. Batching
	// has no effect on correctness; it only paces log output and
	// progress callbacks.
	DefaultBatchSize = 1000

	// DefaultMaxDuplicateRun is how many consecutive duplicate
	// rejections the session tolerates before concluding that the
	// requested total exceeds what the card space can reasonably
	// supply. Realistic batches never get anywhere near this bound.
	DefaultMaxDuplicateRun = 100_000
)

// =============================================================================
// Types
// =============================================================================

// Source produces candidate cards. *card.Generator is the production
// implementation; tests substitute stubs to force collisions.
type Source interface {
	Generate() (card.Card, error)
	Stats() card.Stats
}

// Options configures a session.
type Options struct {
	// Workers is the number of parallel generator workers.
	// Zero means DefaultWorkers.
	Workers int

	// BatchSize is the progress-reporting granularity.
	// Zero means DefaultBatchSize.
	BatchSize int

	// Seed makes generation reproducible: worker i derives its stream
	// from Seed and i, so the same seed and worker count replay the
	// same candidates. Zero seeds every worker independently from the
	// system randomness source.
	Seed uint64

	// MaxDuplicateRun bounds consecutive duplicate rejections before
	// Prepare fails with EXHAUSTED_SPACE. Zero means
	// DefaultMaxDuplicateRun.
	MaxDuplicateRun int

	// Registry is the fingerprint set shared by all workers.
	// Nil means a fresh in-memory registry owned by the session.
	Registry registry.Registry

	// Logger receives progress output. Nil discards it.
	Logger *log.Logger

	// OnProgress, when set, is called after every accepted card with
	// the running acceptance count. Used by the CLI progress bar.
	OnProgress func(accepted, total int)

	// NewSource overrides worker construction. Nil uses card
	// generators seeded per the Seed field.
	NewSource func(worker int) Source
}

// setDefaults fills unset options in place.
func (o *Options) setDefaults() {
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxDuplicateRun == 0 {
		o.MaxDuplicateRun = DefaultMaxDuplicateRun
	}
	if o.Registry == nil {
		o.Registry = registry.NewMemory()
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	if o.NewSource == nil {
		seed := o.Seed
		o.NewSource = func(worker int) Source {
			if seed == 0 {
				return card.NewGenerator()
			}
			// Golden-ratio increment keeps per-worker streams apart.
			return card.NewSeededGenerator(seed + uint64(worker)*0x9e3779b97f4a7c15)
		}
	}
}

// Stats aggregates generation counters across all workers plus the
// session's own duplicate count.
type Stats struct {
	// Attempts is the number of candidate constructions started.
	Attempts uint64

	// Accepted is the number of cards admitted into the collection.
	Accepted uint64

	// RejectedDuplicate is the number of candidates discarded because
	// their fingerprint was already registered.
	RejectedDuplicate uint64

	// RejectedInvalid is the number of candidates the generators
	// discarded internally (infeasible assignment or failed
	// validation).
	RejectedInvalid uint64

	// Elapsed is the wall time of the last Prepare call.
	Elapsed time.Duration
}

// Session produces and owns one ordered collection of unique cards.
// Accessors are safe for concurrent use.
type Session struct {
	id   string
	opts Options

	mu        sync.Mutex
	cards     []card.Card
	sources   []Source
	duplicate uint64
	elapsed   time.Duration
}

// New creates a session with the given options.
func New(opts Options) *Session {
	opts.setDefaults()
	return &Session{
		id:   uuid.NewString(),
		opts: opts,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Close releases the session's registry backend.
func (s *Session) Close() error {
	return s.opts.Registry.Close()
}

// =============================================================================
// Generation
// =============================================================================

// Prepare generates exactly total pairwise-distinct cards and returns
// them in acceptance order. Workers propose candidates independently;
// the fingerprint check and insert form the only critical section, so
// no two workers can ever both accept colliding cards.
//
// Prepare(0) returns an empty batch without error. A run of duplicate
// rejections longer than Options.MaxDuplicateRun fails with
// EXHAUSTED_SPACE, the signal that total approaches the size of the
// reachable card space.
func (s *Session) Prepare(ctx context.Context, total int) ([]card.Card, error) {
	if err := apperrors.ValidateTotal(total); err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	start := time.Now()
	observability.Generation().OnPrepareStart(ctx, total, s.opts.Workers)
	s.opts.Logger.Info("preparing cards", "total", total, "workers", s.opts.Workers, "session", s.id)

	cards, err := s.run(ctx, total)

	s.mu.Lock()
	s.elapsed = time.Since(start)
	elapsed := s.elapsed
	s.mu.Unlock()

	observability.Generation().OnPrepareComplete(ctx, len(cards), elapsed, err)
	if err != nil {
		return nil, err
	}
	s.opts.Logger.Info("batch complete", "cards", len(cards), "elapsed", elapsed.Round(time.Millisecond))
	return cards, nil
}

// run executes the worker pool and collects accepted cards.
func (s *Session) run(parent context.Context, total int) ([]card.Card, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	s.mu.Lock()
	s.cards = make([]card.Card, 0, total)
	s.sources = make([]Source, s.opts.Workers)
	for i := range s.sources {
		s.sources[i] = s.opts.NewSource(i)
	}
	s.mu.Unlock()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
		dupRun   int // consecutive duplicates, guarded by s.mu
	)
	fail := func(err error) {
		errOnce.Do(func() { firstErr = err })
		cancel()
	}

	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			for ctx.Err() == nil {
				c, err := src.Generate()
				if err != nil {
					fail(apperrors.Wrap(apperrors.ErrCodeValidationFailed, err, "generator gave up"))
					return
				}
				done, err := s.accept(ctx, c, total, &dupRun)
				if err != nil {
					fail(err)
					return
				}
				if done {
					cancel()
					return
				}
			}
		}(s.sources[i])
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cards) < total {
		// Cancelled from outside before the batch filled up.
		return nil, parent.Err()
	}
	return slices.Clone(s.cards), nil
}

// accept fingerprints a candidate and admits it unless the registry has
// seen it before. It reports whether the batch is complete. The mutex
// spans the registry insert and the append so the collection and the
// registry can never disagree.
func (s *Session) accept(ctx context.Context, c card.Card, total int, dupRun *int) (bool, error) {
	fp := c.Fingerprint()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.cards) >= total {
		return true, nil
	}

	inserted, err := s.opts.Registry.Add(ctx, fp)
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrCodeRegistry, err, "registering fingerprint")
	}
	if !inserted {
		s.duplicate++
		*dupRun++
		observability.Generation().OnDuplicate(ctx)
		if *dupRun >= s.opts.MaxDuplicateRun {
			return false, apperrors.New(apperrors.ErrCodeExhaustedSpace,
				"%d consecutive duplicate cards; requested total %d approaches the reachable card space", *dupRun, total)
		}
		return false, nil
	}
	*dupRun = 0

	s.cards = append(s.cards, c)
	accepted := len(s.cards)
	observability.Generation().OnCardAccepted(ctx, accepted-1)
	if s.opts.OnProgress != nil {
		s.opts.OnProgress(accepted, total)
	}
	if accepted%s.opts.BatchSize == 0 && accepted < total {
		s.opts.Logger.Info("batch progress", "accepted", accepted, "total", total)
	}
	return accepted >= total, nil
}

// =============================================================================
// Accessors
// =============================================================================

// Cards returns a copy of the prepared collection in acceptance order.
func (s *Session) Cards() []card.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cards)
}

// Get returns the card at the given position in the prepared
// collection. The index must be in [0, total).
func (s *Session) Get(index int) (card.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.cards) {
		return card.Card{}, apperrors.New(apperrors.ErrCodeIndexOutOfRange,
			"card index %d out of range (have %d cards)", index, len(s.cards))
	}
	return s.cards[index], nil
}

// Stats returns aggregated generation counters for the session.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		RejectedDuplicate: s.duplicate,
		Elapsed:           s.elapsed,
	}
	for _, src := range s.sources {
		gs := src.Stats()
		stats.Attempts += gs.Attempts
		stats.RejectedInvalid += gs.RejectedInvalid
	}
	stats.Accepted = uint64(len(s.cards))
	return stats
}

// ValidateUnique recomputes fingerprints for an arbitrary card sequence
// and reports whether all are pairwise distinct. It builds its own set,
// independent of any registry used during generation, so it serves as a
// post-hoc oracle. It has no side effects and is idempotent.
func ValidateUnique(cards []card.Card) bool {
	seen := make(map[string]struct{}, len(cards))
	for _, c := range cards {
		fp := c.Fingerprint()
		if _, dup := seen[fp]; dup {
			return false
		}
		seen[fp] = struct{}{}
	}
	return true
}
