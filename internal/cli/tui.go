package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Progress bar styles
var (
	progressFillStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	progressEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
)

const progressBarWidth = 40

// =============================================================================
// ProgressModel - Generation progress display
// =============================================================================

// progressMsg reports the running acceptance count.
type progressMsg struct {
	Accepted int
}

// progressDoneMsg signals that generation finished.
type progressDoneMsg struct {
	Err error
}

// ProgressModel is the bubbletea model for the generation progress bar
// shown by the generate command on interactive terminals. It only
// renders state; generation runs in a separate goroutine and feeds the
// model through Send.
type ProgressModel struct {
	Title    string
	Total    int
	Accepted int

	done      bool
	err       error
	cancelled bool
	cancel    func()
}

// NewProgressModel creates a progress model for a batch of total cards.
// cancel is invoked when the user interrupts the run.
func NewProgressModel(title string, total int, cancel func()) ProgressModel {
	return ProgressModel{Title: title, Total: total, cancel: cancel}
}

func (m ProgressModel) Init() tea.Cmd {
	return nil
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil // wait for progressDoneMsg so the pipeline shuts down cleanly
		}
	case progressMsg:
		m.Accepted = msg.Accepted
		return m, nil
	case progressDoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func (m ProgressModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n\n")
	b.WriteString("  " + m.bar())
	b.WriteString(fmt.Sprintf(" %s", StyleNumber.Render(fmt.Sprintf("%d/%d", m.Accepted, m.Total))))
	if m.cancelled {
		b.WriteString("\n\n  " + StyleWarning.Render("stopping..."))
	} else {
		b.WriteString("\n\n  " + StyleDim.Render("q to cancel"))
	}
	b.WriteString("\n")
	return b.String()
}

// bar renders the filled/empty progress bar segments.
func (m ProgressModel) bar() string {
	filled := 0
	if m.Total > 0 {
		filled = m.Accepted * progressBarWidth / m.Total
	}
	if filled > progressBarWidth {
		filled = progressBarWidth
	}
	return progressFillStyle.Render(strings.Repeat("█", filled)) +
		progressEmptyStyle.Render(strings.Repeat("░", progressBarWidth-filled))
}
