package card

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync/atomic"
	"time"
)

// maxCardAttempts bounds the number of full construction restarts per
// Generate call. The constraint system is always satisfiable, so hitting
// the bound signals a bookkeeping or randomness defect, not bad luck.
const maxCardAttempts = 64

// Stats holds generation counters since the generator was created.
type Stats struct {
	// Attempts is the number of candidate constructions started.
	Attempts uint64

	// Accepted is the number of cards returned to the caller.
	Accepted uint64

	// RejectedInvalid is the number of candidates discarded because a
	// row assignment was infeasible or validation failed.
	RejectedInvalid uint64
}

// Generator produces structurally valid cards from a single randomness
// stream. Each generator owns its stream, so independent generators can
// run in parallel without coordination; a single generator's Generate
// method is not safe for concurrent use. Stats may be read concurrently.
type Generator struct {
	rng *rand.Rand

	attempts        atomic.Uint64
	accepted        atomic.Uint64
	rejectedInvalid atomic.Uint64
}

// NewGenerator creates a generator seeded from crypto/rand, so repeated
// short-lived processes never share a stream. Falls back to the wall
// clock only if the system randomness source is unavailable.
func NewGenerator() *Generator {
	var buf [16]byte
	if _, err := cryptorand.Read(buf[:]); err != nil {
		now := uint64(time.Now().UnixNano())
		return NewSeededGenerator(now)
	}
	s1 := binary.LittleEndian.Uint64(buf[:8])
	s2 := binary.LittleEndian.Uint64(buf[8:])
	return &Generator{rng: rand.New(rand.NewPCG(s1, s2))}
}

// NewSeededGenerator creates a generator with a deterministic stream.
// The same seed reproduces the same card sequence.
func NewSeededGenerator(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0xdeadbeef))}
}

// Generate constructs one structurally valid card in three phases:
// column occupancy counts, row assignment, then number fill. Infeasible
// intermediate states restart the whole construction. An error is
// returned only when the restart budget runs out, which indicates a
// defect rather than infeasibility.
func (g *Generator) Generate() (Card, error) {
	for attempt := 0; attempt < maxCardAttempts; attempt++ {
		g.attempts.Add(1)

		counts := g.columnCounts()
		marks, ok := g.assignRows(counts)
		if !ok {
			g.rejectedInvalid.Add(1)
			continue
		}

		c := Card{grid: g.fill(counts, marks)}
		if err := c.Validate(); err != nil {
			g.rejectedInvalid.Add(1)
			continue
		}

		g.accepted.Add(1)
		return c, nil
	}
	return Card{}, fmt.Errorf("no valid card after %d attempts", maxCardAttempts)
}

// Stats returns a snapshot of the generation counters.
func (g *Generator) Stats() Stats {
	return Stats{
		Attempts:        g.attempts.Load(),
		Accepted:        g.accepted.Load(),
		RejectedInvalid: g.rejectedInvalid.Load(),
	}
}

// columnCounts picks how many numbers each column holds. Every column
// starts at the minimum of 1 (9 cells), and the 6 remaining cells are
// handed out one at a time among columns still below the cap. Eligible
// columns always exist (spare capacity is 18 for 6 units), so this
// phase cannot fail.
func (g *Generator) columnCounts() [Cols]int {
	var counts [Cols]int
	for col := range counts {
		counts[col] = MinPerColumn
	}
	for extra := CellCount - MinPerColumn*Cols; extra > 0; extra-- {
		eligible := make([]int, 0, Cols)
		for col, n := range counts {
			if n < MaxPerColumn {
				eligible = append(eligible, col)
			}
		}
		counts[eligible[g.rng.IntN(len(eligible))]]++
	}
	return counts
}

// assignRows builds the 3×9 incidence matrix: marks[col][row] is true
// where column col places a number in row. Column sums are prescribed
// by counts and every row must end at exactly 5 marks.
//
// Columns are visited in random order. Before choosing rows for a
// column, any row whose outstanding quota equals the number of columns
// left is forced in (it needs a mark from every remaining column); the
// rest are drawn at random from rows with spare quota. The assignment
// fails when a row's quota can no longer be met, and the caller
// restarts from a fresh column distribution.
func (g *Generator) assignRows(counts [Cols]int) ([Cols][Rows]bool, bool) {
	var marks [Cols][Rows]bool
	remaining := [Rows]int{CellsPerRow, CellsPerRow, CellsPerRow}

	for i, col := range g.rng.Perm(Cols) {
		colsLeft := Cols - i // columns not yet assigned, this one included

		chosen := make([]int, 0, Rows)
		for r := 0; r < Rows; r++ {
			if remaining[r] > colsLeft {
				return marks, false // row can no longer reach its quota
			}
			if remaining[r] == colsLeft {
				chosen = append(chosen, r)
			}
		}
		if len(chosen) > counts[col] {
			return marks, false
		}

		open := make([]int, 0, Rows)
		for r := 0; r < Rows; r++ {
			if remaining[r] > 0 && remaining[r] < colsLeft {
				open = append(open, r)
			}
		}
		g.rng.Shuffle(len(open), func(a, b int) { open[a], open[b] = open[b], open[a] })
		for _, r := range open {
			if len(chosen) == counts[col] {
				break
			}
			chosen = append(chosen, r)
		}
		if len(chosen) != counts[col] {
			return marks, false
		}

		for _, r := range chosen {
			marks[col][r] = true
			remaining[r]--
		}
	}

	return marks, remaining == [Rows]int{}
}

// fill draws each column's numbers without replacement from its range,
// sorts them ascending, and writes them into the marked rows
// top-to-bottom.
func (g *Generator) fill(counts [Cols]int, marks [Cols][Rows]bool) [Rows][Cols]int {
	var grid [Rows][Cols]int
	for col := 0; col < Cols; col++ {
		lo, hi := ColumnRange(col)
		pool := make([]int, 0, hi-lo+1)
		for v := lo; v <= hi; v++ {
			pool = append(pool, v)
		}
		g.rng.Shuffle(len(pool), func(a, b int) { pool[a], pool[b] = pool[b], pool[a] })

		picked := pool[:counts[col]]
		slices.Sort(picked)

		next := 0
		for r := 0; r < Rows; r++ {
			if marks[col][r] {
				grid[r][col] = picked[next]
				next++
			}
		}
	}
	return grid
}
