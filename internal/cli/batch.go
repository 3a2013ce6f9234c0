package cli

import (
	"time"

	"github.com/polsolde/bingo-fes-te-jove/pkg/card"
	"github.com/polsolde/bingo-fes-te-jove/pkg/session"
)

// stripSize is the number of cards per printed strip. Six cards cover
// all 90 numbers on a traditional strip, and six fit one printed page.
const stripSize = 6

// Batch is the JSON document produced by the generate command and the
// HTTP API: the event labels plus the ordered, verified card sequence.
// Exactly one of Cards or Strips is populated depending on whether
// strip grouping was requested.
type Batch struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Round     int           `json:"round"`
	Event     string        `json:"event,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	Total     int           `json:"total"`
	Cards     []card.Card   `json:"cards,omitempty"`
	Strips    [][]card.Card `json:"strips,omitempty"`
	Stats     BatchStats    `json:"stats"`
}

// BatchStats is the JSON shape of session generation counters.
type BatchStats struct {
	Attempts          uint64 `json:"attempts"`
	Accepted          uint64 `json:"accepted"`
	RejectedDuplicate uint64 `json:"rejected_duplicate"`
	RejectedInvalid   uint64 `json:"rejected_invalid"`
	ElapsedMS         int64  `json:"elapsed_ms"`
}

// newBatchStats converts session counters to their JSON shape.
func newBatchStats(s session.Stats) BatchStats {
	return BatchStats{
		Attempts:          s.Attempts,
		Accepted:          s.Accepted,
		RejectedDuplicate: s.RejectedDuplicate,
		RejectedInvalid:   s.RejectedInvalid,
		ElapsedMS:         s.Elapsed.Milliseconds(),
	}
}

// newBatch assembles the output document for a prepared session.
func newBatch(cfg *EventConfig, sess *session.Session, cards []card.Card, strips bool) Batch {
	b := Batch{
		ID:        sess.ID(),
		Title:     cfg.Title,
		Round:     cfg.Round,
		Event:     cfg.Event,
		CreatedAt: time.Now().UTC(),
		Total:     len(cards),
		Stats:     newBatchStats(sess.Stats()),
	}
	if strips {
		b.Strips = groupStrips(cards)
	} else {
		b.Cards = cards
	}
	return b
}

// groupStrips splits cards into strips of six in acceptance order.
// The final strip may be short when the total is not a multiple of six.
func groupStrips(cards []card.Card) [][]card.Card {
	strips := make([][]card.Card, 0, (len(cards)+stripSize-1)/stripSize)
	for start := 0; start < len(cards); start += stripSize {
		end := start + stripSize
		if end > len(cards) {
			end = len(cards)
		}
		strips = append(strips, cards[start:end])
	}
	return strips
}
