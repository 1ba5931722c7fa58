package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/preintel"
)

// NewPreintelCommand runs only the pre-intelligence pipeline and prints its
// result, which makes token-saving behavior inspectable in isolation.
func NewPreintelCommand() *cobra.Command {
	var (
		dryRun     bool
		maxRatio   float64
		noPruning  bool
		noDedup    bool
		noCache    bool
		contextStr string
	)

	cmd := &cobra.Command{
		Use:   "preintel [text]",
		Short: "Run the pre-intelligence pipeline on a prompt",
		Long: `Preintel runs pruning, duplicate detection, and language detection on a
prompt and prints the processed text with its metadata.

With --dry-run the input is analyzed but never rewritten or cached, so the
output shows what the pipeline would have done.

Examples:
  aura-router preintel "Alors basically je voulais just dire que actually..."
  aura-router preintel --dry-run --max-pruning-ratio 0.5 "verbose prompt"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(args)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			opts := preintel.DefaultOptions()
			if maxRatio > 0 {
				opts.MaxPruningRatio = maxRatio
			}
			opts.EnablePruning = !noPruning
			opts.EnableDedup = !noDedup
			opts.EnableCache = !noCache

			pipeline := buildPipeline(cfg)
			res, err := pipeline.Run(context.Background(), text, contextStr, opts, dryRun)
			if err != nil {
				return fmt.Errorf("pre-intelligence failed: %w", err)
			}
			return printJSON(res)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Analyze without mutating text, cache, or dedup window")
	cmd.Flags().Float64Var(&maxRatio, "max-pruning-ratio", 0, "Maximum fraction of tokens pruning may remove (default 0.3)")
	cmd.Flags().BoolVar(&noPruning, "no-pruning", false, "Disable the pruning stage")
	cmd.Flags().BoolVar(&noDedup, "no-dedup", false, "Disable duplicate detection")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable the result cache")
	cmd.Flags().StringVar(&contextStr, "context", "", "Optional context hint passed to the pipeline")

	return cmd
}
