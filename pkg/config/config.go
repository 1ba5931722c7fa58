// Package config loads the gateway routing core's YAML configuration:
// embedding endpoint, prototype samples, pipeline sizing, and router paths.
// The routing rule document itself is a separate JSON file owned by
// pkg/decision.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/SKDesing/AURA-OSINT-ADVANCED-ECOSYSTEM-sub001/pkg/observability/logging"
)

// EmbeddingConfig points at the external embedding service.
type EmbeddingConfig struct {
	Endpoint  string `yaml:"endpoint"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// PreintelConfig sizes the pre-intelligence pipeline's shared state.
type PreintelConfig struct {
	CacheSize       int `yaml:"cache_size"`
	DedupWindowSize int `yaml:"dedup_window_size"`
}

// RouterSettings locate the rule document and the decision audit log.
type RouterSettings struct {
	RulesPath   string `yaml:"rules_path"`
	AuditLogDir string `yaml:"audit_log_dir"`
}

// GatewayConfig is the root configuration document.
type GatewayConfig struct {
	LogLevel   string              `yaml:"log_level"`
	Embedding  EmbeddingConfig     `yaml:"embedding"`
	Prototypes map[string][]string `yaml:"prototypes"`
	Preintel   PreintelConfig      `yaml:"preintel"`
	Router     RouterSettings      `yaml:"router"`
}

var (
	config     *GatewayConfig
	configOnce sync.Once
	configErr  error
	configMu   sync.RWMutex
)

// Load parses the configuration once and caches it for the process lifetime.
func Load(configPath string) (*GatewayConfig, error) {
	configOnce.Do(func() {
		cfg, err := Parse(configPath)
		if err != nil {
			configErr = err
			return
		}
		configMu.Lock()
		config = cfg
		configMu.Unlock()
	})
	if configErr != nil {
		return nil, configErr
	}
	configMu.RLock()
	defer configMu.RUnlock()
	return config, nil
}

// Parse reads and validates the YAML config file without touching the
// process-wide cache.
func Parse(configPath string) (*GatewayConfig, error) {
	// Resolve symlinks to handle mounted config directories.
	resolved, _ := filepath.EvalSymlinks(configPath)
	if resolved == "" {
		resolved = configPath
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &GatewayConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	logging.Infof("Config loaded: prototype_classes=%d, rules_path=%s", len(cfg.Prototypes), cfg.Router.RulesPath)
	return cfg, nil
}

// Get returns the cached configuration, or nil before Load succeeds.
func Get() *GatewayConfig {
	configMu.RLock()
	defer configMu.RUnlock()
	return config
}

func validate(cfg *GatewayConfig) error {
	for class, samples := range cfg.Prototypes {
		if len(samples) == 0 {
			return fmt.Errorf("prototype class %q has no sample texts", class)
		}
	}
	if cfg.Preintel.CacheSize < 0 {
		return fmt.Errorf("preintel.cache_size must not be negative")
	}
	return nil
}
