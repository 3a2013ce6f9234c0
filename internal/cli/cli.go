package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/polsolde/bingo-fes-te-jove/pkg/buildinfo"
	apperrors "github.com/polsolde/bingo-fes-te-jove/pkg/errors"
	"github.com/polsolde/bingo-fes-te-jove/pkg/registry"
	"github.com/polsolde/bingo-fes-te-jove/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display and completion.
	appName = "bingo"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Bingo generates batches of unique 90-ball bingo cards",
		Long:         `Bingo is a CLI tool for generating large batches of structurally valid 90-ball bingo cards (3×9 grid, 15 numbers), guaranteed pairwise distinct within a batch and, with a shared registry, across a whole event.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Session Factory
// =============================================================================

// newRegistry builds the fingerprint registry selected by the event
// config: the default in-memory set, or a Redis set shared across
// processes when an event name and backend are configured.
func newRegistry(ctx context.Context, cfg *EventConfig) (registry.Registry, error) {
	switch cfg.Registry.Backend {
	case "", RegistryMemory:
		return registry.NewMemory(), nil
	case RegistryRedis:
		if err := apperrors.ValidateEventName(cfg.Event); err != nil {
			return nil, err
		}
		return registry.NewRedis(ctx, registry.RedisConfig{
			Addr:     cfg.Registry.Addr,
			Password: cfg.Registry.Password,
			DB:       cfg.Registry.DB,
			Event:    cfg.Event,
			TTL:      cfg.Registry.TTL(),
		})
	default:
		return nil, apperrors.New(apperrors.ErrCodeInvalidConfig,
			"unknown registry backend %q (must be %q or %q)", cfg.Registry.Backend, RegistryMemory, RegistryRedis)
	}
}

// newSession wires a session from the event config. The session logs
// through the context logger, so command context carries through.
func (c *CLI) newSession(ctx context.Context, cfg *EventConfig, onProgress func(accepted, total int)) (*session.Session, error) {
	reg, err := newRegistry(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return session.New(session.Options{
		Workers:    cfg.Workers,
		BatchSize:  cfg.BatchSize,
		Seed:       cfg.Seed,
		Registry:   reg,
		Logger:     loggerFromContext(ctx),
		OnProgress: onProgress,
	}), nil
}
