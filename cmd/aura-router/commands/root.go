// Package commands implements the aura-router CLI subcommands.
package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/config"
	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/decision"
	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/embedding"
	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/features"
	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/observability/logging"
	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/preintel"
)

// loadConfig resolves the --config flag and parses the gateway config.
func loadConfig(cmd *cobra.Command) (*config.GatewayConfig, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if cfg.LogLevel != "" {
		logging.SetLevel(cfg.LogLevel)
	}
	return cfg, nil
}

// buildEngine wires the embedding client, feature extractor, and decision
// engine from the gateway config.
func buildEngine(cfg *config.GatewayConfig) *decision.Engine {
	var embedder embedding.Service
	if cfg.Embedding.Endpoint != "" {
		svc := embedding.NewOpenAIService(embedding.NewOpenAIServiceOptions{
			Endpoint: cfg.Embedding.Endpoint,
			APIKey:   cfg.Embedding.APIKey,
			Model:    cfg.Embedding.Model,
		})
		timeout := embedding.DefaultTimeout
		if cfg.Embedding.TimeoutMs > 0 {
			timeout = time.Duration(cfg.Embedding.TimeoutMs) * time.Millisecond
		}
		embedder = embedding.WithTimeout(svc, timeout)
	} else {
		logging.Warnf("No embedding endpoint configured, semantic features disabled")
	}

	extractor := features.NewExtractor(embedder, cfg.Prototypes)
	return decision.NewEngine(extractor, decision.EngineOptions{
		RulesPath:   cfg.Router.RulesPath,
		AuditLogDir: cfg.Router.AuditLogDir,
	})
}

// buildPipeline sizes the pre-intelligence pipeline from the gateway config.
func buildPipeline(cfg *config.GatewayConfig) *preintel.Pipeline {
	return preintel.NewPipeline(preintel.PipelineOptions{
		CacheSize:       cfg.Preintel.CacheSize,
		DedupWindowSize: cfg.Preintel.DedupWindowSize,
	})
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
