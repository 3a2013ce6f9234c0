package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/polsolde/bingo-fes-te-jove/pkg/card"
	"github.com/polsolde/bingo-fes-te-jove/pkg/session"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCardCell  = lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Align(lipgloss.Center).Width(4)
	styleCardEmpty = lipgloss.NewStyle().Foreground(colorDim).Align(lipgloss.Center).Width(4)
	styleCardLabel = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// =============================================================================
// Card Display
// =============================================================================

// renderCard renders one card as a bordered 3×9 table for the terminal,
// empty cells blanked out. Intended for the preview command; the real
// print layout is the document renderer's job, not ours.
func renderCard(c card.Card) string {
	rows := make([][]string, card.Rows)
	for r := 0; r < card.Rows; r++ {
		row := make([]string, card.Cols)
		for col := 0; col < card.Cols; col++ {
			if v := c.Cell(r, col); v != 0 {
				row[col] = strconv.Itoa(v)
			}
		}
		rows[r] = row
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(StyleDim).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row < 0 || row >= len(rows) || rows[row][col] == "" {
				return styleCardEmpty
			}
			return styleCardCell
		}).
		Rows(rows...)

	return t.Render()
}

// printCard prints a labeled card grid.
func printCard(label string, c card.Card) {
	fmt.Println(styleCardLabel.Render(label))
	fmt.Println(renderCard(c))
}

// =============================================================================
// Stats Display
// =============================================================================

// printStats prints a one-line summary of generation counters.
func printStats(s session.Stats) {
	line := fmt.Sprintf("%d attempts · %d accepted · %d duplicate · %d invalid · %s",
		s.Attempts, s.Accepted, s.RejectedDuplicate, s.RejectedInvalid,
		s.Elapsed.Round(time.Millisecond))
	fmt.Println("  " + StyleDim.Render(line))
}
