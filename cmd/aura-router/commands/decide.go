package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/features"
	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/preintel"
)

// NewDecideCommand routes a single prompt through the full pipeline:
// pre-intelligence, feature extraction, and rule evaluation.
func NewDecideCommand() *cobra.Command {
	var (
		simulate    bool
		skipPreint  bool
		contextHint string
	)

	cmd := &cobra.Command{
		Use:   "decide [text]",
		Short: "Route a prompt and print the routing decision",
		Long: `Decide runs a prompt through pre-intelligence processing, extracts its
feature record, evaluates the routing rules, and prints the decision as JSON.

Reads the prompt from stdin when no argument is given.

Examples:
  aura-router decide "Identifie Jean Dupont et Marie Martin dans ce texte."
  aura-router decide --simulate "suspicious prompt"
  echo "some prompt" | aura-router decide`,
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

			engine := buildEngine(cfg)
			defer engine.Shutdown()

			ctx := context.Background()
			var hints *features.Hints
			if !skipPreint {
				pipeline := buildPipeline(cfg)
				res, err := pipeline.Run(ctx, text, contextHint, preintel.DefaultOptions(), false)
				if err != nil {
					return fmt.Errorf("pre-intelligence failed: %w", err)
				}
				text = res.ProcessedText
				hints = preintelHints(res)
			}

			d := engine.Decide(ctx, text, hints, simulate)
			return printJSON(d)
		},
	}

	cmd.Flags().BoolVar(&simulate, "simulate", false, "Evaluate without recording metrics; the decision is still audit-logged with its simulate flag set")
	cmd.Flags().BoolVar(&skipPreint, "skip-preintel", false, "Route the raw text without pre-intelligence processing")
	cmd.Flags().StringVar(&contextHint, "context", "", "Optional context hint passed to the pipeline")

	return cmd
}

// preintelHints carries pipeline results into feature extraction so language
// detection is not recomputed.
func preintelHints(res *preintel.Result) *features.Hints {
	return &features.Hints{Language: res.Metadata.LanguageDetected}
}

// readInput takes the prompt from the argument list or, when absent, stdin.
func readInput(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no input text: pass it as an argument or on stdin")
	}
	return text, nil
}
