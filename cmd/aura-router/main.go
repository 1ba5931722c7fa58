package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/cmd/aura-router/commands"
	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/observability/logging"
)

var (
	// Version information (set by build flags)
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	defer logging.Sync()

	rootCmd := &cobra.Command{
		Use:   "aura-router",
		Short: "AURA gateway routing decision core CLI",
		Long: `aura-router exercises the gateway's request-routing decision core from
the command line: pre-intelligence processing, feature extraction, and
rule-based routing decisions.

Common workflows:
  aura-router decide "Identifie les entités dans ce texte"
  aura-router decide --simulate "some prompt"     # no metrics counted
  aura-router preintel --dry-run "some prompt"    # preview token savings
  aura-router rules validate config/router-rules.json`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	}

	rootCmd.PersistentFlags().StringP("config", "c", "config/config.yaml", "Path to gateway configuration file")

	rootCmd.AddCommand(commands.NewDecideCommand())
	rootCmd.AddCommand(commands.NewPreintelCommand())
	rootCmd.AddCommand(commands.NewRulesCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
