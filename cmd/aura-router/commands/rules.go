package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/decision"
)

// NewRulesCommand groups routing-rule maintenance subcommands.
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate the routing rule document",
	}
	cmd.AddCommand(newRulesValidateCommand())
	cmd.AddCommand(newRulesShowCommand())
	return cmd
}

func newRulesValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Compile a rule document and report problems",
		Long: `Validate compiles the JSON rule document the same way the decision engine
does at startup. Rules with unknown fields or malformed conditions are
reported; the command fails if the document cannot be parsed at all.

Uses the rules_path from the gateway config when no path is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := rulesPath(cmd, args)
			if err != nil {
				return err
			}

			cfg, err := decision.LoadRouterConfig(path)
			if err != nil {
				return err
			}

			fmt.Printf("OK: %s\n", path)
			fmt.Printf("  version:    %s\n", cfg.Version)
			fmt.Printf("  rules_hash: %s\n", cfg.RulesHash)
			fmt.Printf("  rules:      %d compiled\n", len(cfg.Rules))
			fmt.Printf("  fallback:   %s (%.2f)\n", cfg.Fallback.Decision, cfg.Fallback.Confidence)
			return nil
		},
	}
}

func newRulesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [path]",
		Short: "Print the compiled rule order with decisions and confidences",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := rulesPath(cmd, args)
			if err != nil {
				return err
			}

			cfg, err := decision.LoadRouterConfig(path)
			if err != nil {
				return err
			}

			for i, r := range cfg.Rules {
				bypass := ""
				if decision.IsBypass(r.Decision) {
					bypass = " [bypass]"
				}
				fmt.Printf("%2d. %-28s -> %s (%.2f)%s\n", i+1, r.ID, r.Decision, r.Confidence, bypass)
			}
			fmt.Printf("    %-28s -> %s (%.2f)\n", "fallback", cfg.Fallback.Decision, cfg.Fallback.Confidence)
			return nil
		},
	}
}

// rulesPath prefers an explicit argument over the gateway config's rules_path.
func rulesPath(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return "", err
	}
	if cfg.Router.RulesPath == "" {
		return "", fmt.Errorf("no rule document: pass a path or set router.rules_path in the config")
	}
	return cfg.Router.RulesPath, nil
}
