package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polsolde/bingo-fes-te-jove/pkg/card"
	apperrors "github.com/polsolde/bingo-fes-te-jove/pkg/errors"
)

const defaultPreviewCount = 3

// previewOpts holds the command-line flags for the preview command.
type previewOpts struct {
	count int    // number of cards to render
	seed  uint64 // reproducible seed (0 = auto)
}

// newPreviewCmd creates the preview command: generate a handful of
// cards and render them as terminal tables, for eyeballing layout and
// number spread before committing to a full batch.
func newPreviewCmd(c *CLI) *cobra.Command {
	opts := previewOpts{count: defaultPreviewCount}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render a few sample cards in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPreview(cmd.Context(), &opts)
		},
	}

	cmd.Flags().IntVarP(&opts.count, "count", "n", opts.count, "number of cards to preview")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed for reproducible previews (0 = auto)")

	return cmd
}

func (c *CLI) previewCommand() *cobra.Command { return newPreviewCmd(c) }

func runPreview(ctx context.Context, opts *previewOpts) error {
	if opts.count < 1 || opts.count > 100 {
		return apperrors.New(apperrors.ErrCodeInvalidInput,
			"preview count must be between 1 and 100, got %d", opts.count)
	}
	logger := loggerFromContext(ctx)

	gen := card.NewGenerator()
	if opts.seed != 0 {
		gen = card.NewSeededGenerator(opts.seed)
	}

	for i := 0; i < opts.count; i++ {
		crd, err := gen.Generate()
		if err != nil {
			return err
		}
		printCard(fmt.Sprintf("Card %d/%d", i+1, opts.count), crd)
		logger.Debug("previewed card", "index", i, "fingerprint", crd.Fingerprint())
	}
	return nil
}
