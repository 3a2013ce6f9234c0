package session

import (
	"context"
	"testing"

	"github.com/polsolde/bingo-fes-te-jove/pkg/card"
	apperrors "github.com/polsolde/bingo-fes-te-jove/pkg/errors"
)

// stuckSource always proposes the same card, forcing every candidate
// after the first into a duplicate rejection.
type stuckSource struct {
	card  card.Card
	stats card.Stats
}

func newStuckSource(t *testing.T) *stuckSource {
	t.Helper()
	c, err := card.NewSeededGenerator(1).Generate()
	if err != nil {
		t.Fatal(err)
	}
	return &stuckSource{card: c}
}

func (s *stuckSource) Generate() (card.Card, error) {
	s.stats.Attempts++
	s.stats.Accepted++
	return s.card, nil
}

func (s *stuckSource) Stats() card.Stats { return s.stats }

func TestPrepareProducesUniqueValidCards(t *testing.T) {
	sess := New(Options{Seed: 99, Workers: 1})
	defer sess.Close()

	cards, err := sess.Prepare(context.Background(), 1000)
	if err != nil {
		t.Fatalf("Prepare error: %v", err)
	}
	if len(cards) != 1000 {
		t.Fatalf("Prepare returned %d cards, want 1000", len(cards))
	}
	for i, c := range cards {
		if err := c.Validate(); err != nil {
			t.Fatalf("card %d invalid: %v", i, err)
		}
	}
	if !ValidateUnique(cards) {
		t.Error("Prepare returned duplicate cards")
	}
}

func TestPrepareParallelWorkers(t *testing.T) {
	sess := New(Options{Workers: 8})
	defer sess.Close()

	cards, err := sess.Prepare(context.Background(), 500)
	if err != nil {
		t.Fatalf("Prepare error: %v", err)
	}
	if len(cards) != 500 {
		t.Fatalf("Prepare returned %d cards, want 500", len(cards))
	}
	if !ValidateUnique(cards) {
		t.Error("parallel Prepare returned duplicate cards")
	}
}

func TestPrepareZero(t *testing.T) {
	sess := New(Options{})
	defer sess.Close()

	cards, err := sess.Prepare(context.Background(), 0)
	if err != nil {
		t.Fatalf("Prepare(0) error: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("Prepare(0) returned %d cards, want 0", len(cards))
	}
}

func TestPrepareNegativeTotal(t *testing.T) {
	sess := New(Options{})
	defer sess.Close()

	_, err := sess.Prepare(context.Background(), -5)
	if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("Prepare(-5) error = %v, want INVALID_INPUT", err)
	}
}

func TestPrepareExhaustedSpace(t *testing.T) {
	// A source that can only ever produce one distinct card exhausts
	// the duplicate budget as soon as a second card is requested.
	sess := New(Options{
		Workers:         1,
		MaxDuplicateRun: 50,
		NewSource:       func(int) Source { return newStuckSource(t) },
	})
	defer sess.Close()

	_, err := sess.Prepare(context.Background(), 2)
	if !apperrors.Is(err, apperrors.ErrCodeExhaustedSpace) {
		t.Fatalf("Prepare error = %v, want EXHAUSTED_SPACE", err)
	}
}

func TestPrepareCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sess := New(Options{Workers: 1})
	defer sess.Close()

	if _, err := sess.Prepare(ctx, 100); err == nil {
		t.Error("Prepare with cancelled context should fail")
	}
}

func TestGet(t *testing.T) {
	sess := New(Options{Seed: 7, Workers: 1})
	defer sess.Close()

	cards, err := sess.Prepare(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}

	got, err := sess.Get(3)
	if err != nil {
		t.Fatalf("Get(3) error: %v", err)
	}
	if got.Fingerprint() != cards[3].Fingerprint() {
		t.Error("Get(3) returned a different card than the collection")
	}

	for _, index := range []int{-1, 10, 100} {
		if _, err := sess.Get(index); !apperrors.Is(err, apperrors.ErrCodeIndexOutOfRange) {
			t.Errorf("Get(%d) error = %v, want INDEX_OUT_OF_RANGE", index, err)
		}
	}
}

func TestStats(t *testing.T) {
	sess := New(Options{Seed: 3, Workers: 2})
	defer sess.Close()

	if _, err := sess.Prepare(context.Background(), 100); err != nil {
		t.Fatal(err)
	}

	s := sess.Stats()
	if s.Accepted != 100 {
		t.Errorf("Accepted = %d, want 100", s.Accepted)
	}
	if s.Attempts < s.Accepted {
		t.Errorf("Attempts (%d) < Accepted (%d)", s.Attempts, s.Accepted)
	}
	if s.Elapsed <= 0 {
		t.Error("Elapsed should be positive after Prepare")
	}
}

func TestProgressCallback(t *testing.T) {
	var calls int
	var last int
	sess := New(Options{
		Seed:    11,
		Workers: 1,
		OnProgress: func(accepted, total int) {
			calls++
			last = accepted
		},
	})
	defer sess.Close()

	if _, err := sess.Prepare(context.Background(), 25); err != nil {
		t.Fatal(err)
	}
	if calls != 25 {
		t.Errorf("OnProgress called %d times, want 25", calls)
	}
	if last != 25 {
		t.Errorf("last OnProgress accepted = %d, want 25", last)
	}
}

func TestValidateUnique(t *testing.T) {
	g := card.NewSeededGenerator(5)
	a, err := g.Generate()
	if err != nil {
		t.Fatal(err)
	}
	b, err := g.Generate()
	if err != nil {
		t.Fatal(err)
	}

	t.Run("distinct cards", func(t *testing.T) {
		if !ValidateUnique([]card.Card{a, b}) {
			t.Error("distinct cards reported as duplicates")
		}
	})

	t.Run("duplicated card", func(t *testing.T) {
		if ValidateUnique([]card.Card{a, b, a}) {
			t.Error("duplicate card not detected")
		}
	})

	t.Run("empty and single", func(t *testing.T) {
		if !ValidateUnique(nil) {
			t.Error("empty sequence should validate")
		}
		if !ValidateUnique([]card.Card{a}) {
			t.Error("single card should validate")
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		cards := []card.Card{a, b}
		first := ValidateUnique(cards)
		second := ValidateUnique(cards)
		if first != second {
			t.Error("ValidateUnique is not idempotent")
		}
	})
}

func TestSessionID(t *testing.T) {
	a := New(Options{})
	defer a.Close()
	b := New(Options{})
	defer b.Close()

	if a.ID() == "" {
		t.Error("session ID should not be empty")
	}
	if a.ID() == b.ID() {
		t.Error("sessions should have distinct IDs")
	}
}
