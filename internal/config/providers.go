package config

import (
	"codecalm/internal/service/classifier"
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed providers.yaml
var defaultProvidersYAML []byte

// Provider kinds understood by the llm package.
const (
	KindOpenRouter = "openrouter"
	KindOpenAI     = "openai"
	KindOllama     = "ollama"
)

// ProviderConfig describes one hosted or local LLM endpoint.
type ProviderConfig struct {
	Name            string  `yaml:"name"`
	Kind            string  `yaml:"kind"`
	BaseURL         string  `yaml:"base_url"`
	Model           string  `yaml:"model"`
	APIKeyEnv       string  `yaml:"api_key_env"`
	RawTimeout      string  `yaml:"timeout"`
	MaxTokens       int     `yaml:"max_tokens"`
	Temperature     float64 `yaml:"temperature"`
	CostPer1KTokens float64 `yaml:"cost_per_1k_tokens"`

	// Resolved at load time
	APIKey  string        `yaml:"-"`
	Timeout time.Duration `yaml:"-"`
}

// ProvidersConfig is the provider catalogue plus the designated fallback.
type ProvidersConfig struct {
	Fallback  string           `yaml:"fallback"`
	Providers []ProviderConfig `yaml:"providers"`
	// Routes overrides the provider serving a category, keyed by category name
	Routes map[string]string `yaml:"routes"`
}

// NewProvidersConfig loads the catalogue from configPath, or the embedded default when
// configPath is empty.
func NewProvidersConfig(configPath string) (*ProvidersConfig, error) {
	data := defaultProvidersYAML
	if configPath != "" {
		fileData, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading providers config: %w", err)
		}
		data = fileData
	}
	return ParseProvidersConfig(data)
}

// ParseProvidersConfig decodes and validates a YAML catalogue.
func ParseProvidersConfig(data []byte) (*ProvidersConfig, error) {
	var cfg ProvidersConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error decoding providers config: %w", err)
	}

	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("providers config has no providers")
	}

	seen := make(map[string]bool, len(cfg.Providers))
	for i := range cfg.Providers {
		p := &cfg.Providers[i]
		if p.Name == "" {
			return nil, fmt.Errorf("provider #%d has no name", i)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate provider %q", p.Name)
		}
		seen[p.Name] = true

		switch p.Kind {
		case KindOpenRouter, KindOpenAI, KindOllama:
		default:
			return nil, fmt.Errorf("provider %q has unknown kind %q", p.Name, p.Kind)
		}
		if p.Model == "" {
			return nil, fmt.Errorf("provider %q has no model", p.Name)
		}

		p.Timeout = 60 * time.Second
		if p.RawTimeout != "" {
			timeout, err := time.ParseDuration(p.RawTimeout)
			if err != nil {
				return nil, fmt.Errorf("provider %q has invalid timeout %q: %w", p.Name, p.RawTimeout, err)
			}
			if timeout <= 0 {
				return nil, fmt.Errorf("provider %q timeout must be positive", p.Name)
			}
			p.Timeout = timeout
		}
		if p.MaxTokens <= 0 {
			p.MaxTokens = 1500
		}
		if p.APIKeyEnv != "" {
			p.APIKey = os.Getenv(p.APIKeyEnv)
		}
	}

	if cfg.Fallback != "" && !seen[cfg.Fallback] {
		return nil, fmt.Errorf("fallback provider %q is not defined", cfg.Fallback)
	}

	for category, target := range cfg.Routes {
		if _, ok := classifier.ParseCategory(category); !ok {
			return nil, fmt.Errorf("route for unknown category %q", category)
		}
		if _, ok := cfg.Get(target); !ok {
			return nil, fmt.Errorf("route %q targets undefined provider %q", category, target)
		}
	}

	return &cfg, nil
}

// Get returns the provider entry with the given name.
func (c *ProvidersConfig) Get(name string) (ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderConfig{}, false
}
