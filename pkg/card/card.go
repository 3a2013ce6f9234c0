// Package card implements 90-ball bingo cards and their constrained
// random construction.
//
// A card is a 3×9 grid holding 15 numbers: every row carries exactly 5,
// every column between 1 and 3, and each column draws from its own fixed
// range (1-9, 10-19, ..., 70-79, 80-90). Numbers ascend top-to-bottom
// within a column, which together with the disjoint column ranges rules
// out duplicates on a card.
//
// [Generator] produces structurally valid cards one at a time from an
// independent randomness stream. Uniqueness across cards is not this
// package's concern; callers compare [Card.Fingerprint] values (see the
// session package).
package card

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Grid dimensions and occupancy constants for 90-ball cards.
const (
	Rows = 3 // rows per card
	Cols = 9 // columns per card

	// CellCount is the number of filled cells on a card.
	CellCount = 15

	// CellsPerRow is the number of filled cells in each row.
	CellsPerRow = 5

	// MinPerColumn and MaxPerColumn bound the filled cells in a column.
	MinPerColumn = 1
	MaxPerColumn = 3
)

// ColumnRange returns the inclusive interval of legal values for column
// col. Column 0 covers 1-9, columns 1 through 7 cover 10c to 10c+9, and
// column 8 covers 80-90 (the single eleven-value range).
func ColumnRange(col int) (lo, hi int) {
	switch {
	case col == 0:
		return 1, 9
	case col == Cols-1:
		return 80, 90
	default:
		return col * 10, col*10 + 9
	}
}

// Card is one immutable 3×9 bingo grid. The zero cell value marks an
// empty cell; legal numbers are 1-90 so the sentinel never collides.
// Card is a value type: copies are independent and nothing mutates a
// card after construction.
type Card struct {
	grid [Rows][Cols]int
}

// New builds a card from a raw grid. The grid is validated before the
// card is returned, so a non-nil error means the input breaks one of
// the structural invariants.
func New(grid [Rows][Cols]int) (Card, error) {
	c := Card{grid: grid}
	if err := c.Validate(); err != nil {
		return Card{}, err
	}
	return c, nil
}

// Cell returns the value at (row, col), or 0 if the cell is empty.
func (c Card) Cell(row, col int) int {
	return c.grid[row][col]
}

// Grid returns a copy of the full 3×9 grid with 0 for empty cells.
func (c Card) Grid() [Rows][Cols]int {
	return c.grid
}

// Fingerprint returns the canonical identity of the card: the SHA-256
// hex digest of its row-major cell bytes (0 for empty cells). Two cards
// are the same card iff their fingerprints are equal.
func (c Card) Fingerprint() string {
	var buf [Rows * Cols]byte
	for r := 0; r < Rows; r++ {
		for col := 0; col < Cols; col++ {
			buf[r*Cols+col] = byte(c.grid[r][col])
		}
	}
	sum := sha256.Sum256(buf[:])
	return hex.EncodeToString(sum[:])
}

// Validate re-checks every structural invariant and returns the first
// violation found. Cards built by [Generator] always pass; Validate
// exists as a safety net and as the post-hoc oracle for tests.
func (c Card) Validate() error {
	total := 0
	for r := 0; r < Rows; r++ {
		rowCount := 0
		for col := 0; col < Cols; col++ {
			if c.grid[r][col] != 0 {
				rowCount++
			}
		}
		if rowCount != CellsPerRow {
			return fmt.Errorf("row %d holds %d numbers, want %d", r, rowCount, CellsPerRow)
		}
		total += rowCount
	}
	if total != CellCount {
		return fmt.Errorf("card holds %d numbers, want %d", total, CellCount)
	}

	for col := 0; col < Cols; col++ {
		lo, hi := ColumnRange(col)
		count := 0
		prev := 0
		for r := 0; r < Rows; r++ {
			v := c.grid[r][col]
			if v == 0 {
				continue
			}
			count++
			if v < lo || v > hi {
				return fmt.Errorf("column %d value %d outside range [%d,%d]", col, v, lo, hi)
			}
			if prev != 0 && v <= prev {
				return fmt.Errorf("column %d not strictly ascending: %d after %d", col, v, prev)
			}
			prev = v
		}
		if count < MinPerColumn || count > MaxPerColumn {
			return fmt.Errorf("column %d holds %d numbers, want %d-%d", col, count, MinPerColumn, MaxPerColumn)
		}
	}

	return nil
}

// MarshalJSON encodes the card as its 3×9 grid with 0 for empty cells.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.grid)
}

// UnmarshalJSON decodes a 3×9 grid and validates it.
func (c *Card) UnmarshalJSON(data []byte) error {
	var grid [Rows][Cols]int
	if err := json.Unmarshal(data, &grid); err != nil {
		return err
	}
	card, err := New(grid)
	if err != nil {
		return err
	}
	*c = card
	return nil
}

// String renders the card as a compact text grid, empty cells as "--".
// Intended for logs and test failure output, not end-user display.
func (c Card) String() string {
	var b strings.Builder
	for r := 0; r < Rows; r++ {
		for col := 0; col < Cols; col++ {
			if col > 0 {
				b.WriteByte(' ')
			}
			if v := c.grid[r][col]; v == 0 {
				b.WriteString("--")
			} else {
				fmt.Fprintf(&b, "%2d", v)
			}
		}
		if r < Rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
