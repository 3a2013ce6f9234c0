package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/polsolde/bingo-fes-te-jove/pkg/card"
	apperrors "github.com/polsolde/bingo-fes-te-jove/pkg/errors"
	"github.com/polsolde/bingo-fes-te-jove/pkg/session"
)

// generateOpts holds the command-line flags for the generate command.
// Flags override the matching config-file fields only when set.
type generateOpts struct {
	config     string // path to a TOML event config
	total      int    // number of unique cards to produce
	batchSize  int    // progress-reporting granularity
	workers    int    // generator worker count
	round      int    // round label carried through to output
	seed       uint64 // reproducible seed (0 = auto)
	event      string // event name for registry scoping
	registry   string // registry backend: memory, redis
	redisAddr  string // redis address for the redis backend
	output     string // output file, "-" for stdout
	strip      bool   // group cards into strips of six
	noProgress bool   // disable the interactive progress view
}

// newGenerateCmd creates the generate command. It prepares a full batch
// of unique cards, verifies pairwise uniqueness, and writes the batch
// as a JSON document.
func newGenerateCmd(c *CLI) *cobra.Command {
	opts := generateOpts{
		total:     defaultTotal,
		batchSize: defaultBatchSize,
		round:     1,
		output:    "-",
	}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a batch of unique bingo cards",
		Long: `Generate prepares a batch of structurally valid 90-ball bingo cards,
guaranteed pairwise distinct. With the redis registry backend, cards are
also distinct from every other batch generated for the same event.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd, &opts)
			if err != nil {
				return err
			}
			return c.runGenerate(cmd.Context(), &cfg, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "TOML event config file")
	cmd.Flags().IntVarP(&opts.total, "total", "n", opts.total, "number of unique cards to generate")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", opts.batchSize, "progress-reporting batch size")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "generator workers (0 = auto)")
	cmd.Flags().IntVar(&opts.round, "round", opts.round, "round label carried through to output")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed for reproducible batches (0 = auto)")
	cmd.Flags().StringVar(&opts.event, "event", "", "event name for cross-batch uniqueness")
	cmd.Flags().StringVar(&opts.registry, "registry", "", "registry backend: memory (default), redis")
	cmd.Flags().StringVar(&opts.redisAddr, "redis-addr", "", "redis address for the redis backend")
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output file (\"-\" for stdout)")
	cmd.Flags().BoolVar(&opts.strip, "strip", false, "group cards into strips of six")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "disable the interactive progress view")

	return cmd
}

func (c *CLI) generateCommand() *cobra.Command { return newGenerateCmd(c) }

// resolveConfig loads the config file (when given) and applies any
// flags the user set on top of it. Flags left at their defaults never
// clobber file values.
func resolveConfig(cmd *cobra.Command, opts *generateOpts) (EventConfig, error) {
	cfg := DefaultConfig()
	if opts.config != "" {
		loaded, err := LoadConfig(opts.config)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("total") {
		cfg.Total = opts.total
	}
	if f.Changed("batch-size") {
		cfg.BatchSize = opts.batchSize
	}
	if f.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if f.Changed("round") {
		cfg.Round = opts.round
	}
	if f.Changed("seed") {
		cfg.Seed = opts.seed
	}
	if f.Changed("event") {
		cfg.Event = opts.event
	}
	if f.Changed("registry") {
		cfg.Registry.Backend = opts.registry
	}
	if f.Changed("redis-addr") {
		cfg.Registry.Addr = opts.redisAddr
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// runGenerate prepares the batch, verifies it, and writes it out.
func (c *CLI) runGenerate(ctx context.Context, cfg *EventConfig, opts *generateOpts) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The progress callback feeds the interactive view when one is
	// running. The program handle is set before any worker starts, so
	// the nil check only ever sees the final value.
	var prog *tea.Program
	onProgress := func(accepted, total int) {
		if prog != nil {
			prog.Send(progressMsg{Accepted: accepted})
		}
	}

	sess, err := c.newSession(ctx, cfg, onProgress)
	if err != nil {
		return err
	}
	defer sess.Close()

	logger := loggerFromContext(ctx)
	backend := cfg.Registry.Backend
	if backend == "" {
		backend = RegistryMemory
	}
	logger.Info("generating batch",
		"session", sess.ID(), "round", cfg.Round, "total", cfg.Total, "registry", backend)

	genProg := newProgress(logger)
	var cards []card.Card
	if useProgressView(opts) {
		prog = tea.NewProgram(NewProgressModel(cfg.Title, cfg.Total, cancel))

		// Run returns only after the done message quits the view, so
		// cards and genErr are settled once it does.
		var genErr error
		go func() {
			cards, genErr = sess.Prepare(ctx, cfg.Total)
			prog.Send(progressDoneMsg{Err: genErr})
		}()
		if _, runErr := prog.Run(); runErr != nil && genErr == nil {
			genErr = runErr
		}
		err = genErr
	} else {
		cards, err = sess.Prepare(ctx, cfg.Total)
	}
	if err != nil {
		if apperrors.Is(err, apperrors.ErrCodeExhaustedSpace) {
			printWarning("Requested total approaches the reachable card space; lower --total or widen the event")
		}
		printError("Generation failed: %v", apperrors.UserMessage(err))
		return err
	}
	genProg.done(fmt.Sprintf("Generated %d unique cards", len(cards)))

	// Independent re-check of the accepted sequence.
	spinner := newSpinnerWithContext(ctx, "Verifying uniqueness...")
	spinner.Start()
	unique := session.ValidateUnique(cards)
	if !unique {
		spinner.StopWithError("Uniqueness check failed")
		return apperrors.New(apperrors.ErrCodeInternal, "duplicate cards in accepted batch")
	}
	spinner.StopWithSuccess(fmt.Sprintf("Verified %d cards pairwise distinct", len(cards)))

	printStats(sess.Stats())

	batch := newBatch(cfg, sess, cards, opts.strip)
	return writeBatch(batch, opts.output)
}

// useProgressView reports whether the interactive progress view should
// run: only when not disabled, when output goes to a file (the view
// owns stdout otherwise), and when stdout is a terminal.
func useProgressView(opts *generateOpts) bool {
	if opts.noProgress || opts.output == "-" {
		return false
	}
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// writeBatch writes the batch document as indented JSON to the given
// path, or to stdout when the path is "-".
func writeBatch(b Batch, path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "encoding batch")
	}
	data = append(data, '\n')

	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "writing batch to %s", path)
	}
	printSuccess("Wrote %d cards to %s", b.Total, path)
	return nil
}
