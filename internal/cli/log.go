// Package cli implements the bingo command-line interface.
//
// This package provides commands for generating batches of unique
// 90-ball bingo cards, previewing cards in the terminal, and serving
// batches over HTTP. The CLI is built using cobra and supports verbose
// logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - generate: Produce a batch of unique cards and write it as JSON
//   - preview: Render a handful of cards in the terminal
//   - serve: Expose batch generation over an HTTP API
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one long operation, like preparing a full batch, and
// logs its completion with the elapsed duration. Sequential use by one
// goroutine only; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

// newProgress starts timing. Call done when the operation completes.
func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time since newProgress, rounded to the
// millisecond. Example output: "Generated 9000 unique cards (3.412s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// ctxKey is a private context key type, so no other package can
// collide with our logger entry.
type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx. The root command does this once in its
// PersistentPreRun; loggerFromContext retrieves it in command bodies.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached to ctx, or log.Default()
// when none is, so command bodies always hold a usable logger.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
