// Package config provides configuration loading and validation for the
// coaching service.
//
// Configuration is read from an optional YAML file, then overridden by
// environment variables. The loaded Config is returned by value; callers own
// their copy and no global state is kept.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"discoverycoach/pkg/coach"
	"discoverycoach/pkg/llm"
)

// Environment variable overrides.
const (
	EnvProvider      = "COACH_PROVIDER"
	EnvModel         = "COACH_MODEL"
	EnvTemperature   = "COACH_TEMPERATURE"
	EnvOllamaBaseURL = "OLLAMA_BASE_URL"
	EnvAnthropicKey  = "ANTHROPIC_API_KEY"
	EnvOpenAIKey     = "OPENAI_API_KEY"
)

// Defaults applied when neither file nor environment sets a value.
const (
	DefaultProvider        = llm.ProviderOllama
	DefaultModel           = "llama3.2:latest"
	DefaultTemperature     = 0.7
	DefaultOllamaBaseURL   = "http://localhost:11434"
	DefaultKnowledgeDir    = "knowledge"
	DefaultKnowledgeDB     = "db/knowledge.db"
	DefaultArtifactDB      = "db/artifacts.db"
	DefaultDraftTimeout    = 240
	DefaultStandardTimeout = 90
)

// TimeoutConfig holds per-turn generation deadlines in seconds.
type TimeoutConfig struct {
	DraftSeconds    int `yaml:"draft_seconds"`
	StandardSeconds int `yaml:"standard_seconds"`
}

// Config is the full service configuration.
type Config struct {
	Provider       string              `yaml:"provider"`
	Model          string              `yaml:"model"`
	Temperature    float64             `yaml:"temperature"`
	OllamaBaseURL  string              `yaml:"ollama_base_url"`
	KnowledgeDir   string              `yaml:"knowledge_dir"`
	KnowledgeDB    string              `yaml:"knowledge_db"`
	ArtifactDB     string              `yaml:"artifact_db"`
	MetricsAddr    string              `yaml:"metrics_addr"`
	Timeouts       TimeoutConfig       `yaml:"timeouts"`
	SectionMarkers map[string][]string `yaml:"section_markers"`
}

// Load reads configuration from path (skipped when path is "" or the file
// does not exist), applies environment overrides, fills defaults, and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Missing file is fine; env and defaults apply.
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvProvider); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv(EnvTemperature); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Temperature = t
		}
	}
	if v := os.Getenv(EnvOllamaBaseURL); v != "" {
		cfg.OllamaBaseURL = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.OllamaBaseURL == "" {
		cfg.OllamaBaseURL = DefaultOllamaBaseURL
	}
	if cfg.KnowledgeDir == "" {
		cfg.KnowledgeDir = DefaultKnowledgeDir
	}
	if cfg.KnowledgeDB == "" {
		cfg.KnowledgeDB = DefaultKnowledgeDB
	}
	if cfg.ArtifactDB == "" {
		cfg.ArtifactDB = DefaultArtifactDB
	}
	if cfg.Timeouts.DraftSeconds == 0 {
		cfg.Timeouts.DraftSeconds = DefaultDraftTimeout
	}
	if cfg.Timeouts.StandardSeconds == 0 {
		cfg.Timeouts.StandardSeconds = DefaultStandardTimeout
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if !llm.ValidProvider(c.Provider) {
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %v out of range [0, 2]", c.Temperature)
	}
	if c.Timeouts.DraftSeconds <= 0 || c.Timeouts.StandardSeconds <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	for focus := range c.SectionMarkers {
		if !coach.ValidFocus(coach.ArtifactFocus(focus)) {
			return fmt.Errorf("section_markers: unknown artifact focus %q", focus)
		}
	}
	return nil
}

// EngineTimeouts converts the configured seconds into coach.Timeouts.
func (c Config) EngineTimeouts() coach.Timeouts {
	return coach.Timeouts{
		Draft:    time.Duration(c.Timeouts.DraftSeconds) * time.Second,
		Standard: time.Duration(c.Timeouts.StandardSeconds) * time.Second,
	}
}

// SectionRules merges configured marker overrides over the built-in defaults.
// A focus listed with no markers disables its template check.
func (c Config) SectionRules() coach.SectionRules {
	rules := coach.DefaultSectionRules()
	for focus, markers := range c.SectionMarkers {
		rules[coach.ArtifactFocus(focus)] = markers
	}
	return rules
}

// APIKey returns the provider API key from the environment, or "" for
// providers that need none.
func (c Config) APIKey() string {
	switch c.Provider {
	case llm.ProviderAnthropic:
		return os.Getenv(EnvAnthropicKey)
	case llm.ProviderOpenAI:
		return os.Getenv(EnvOpenAIKey)
	default:
		return ""
	}
}
