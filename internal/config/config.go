package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider names, in default priority order.
const (
	ProviderTypes     = "types"
	ProviderGopls     = "gopls"
	ProviderLocal     = "local"
	ProviderWorkspace = "workspace"
	ProviderLLM       = "llm"
)

var knownProviders = map[string]bool{
	ProviderTypes:     true,
	ProviderGopls:     true,
	ProviderLocal:     true,
	ProviderWorkspace: true,
	ProviderLLM:       true,
}

// Config defines which resolution strategies run and how.
type Config struct {
	// Providers lists provider names, highest priority first.
	Providers []string        `yaml:"providers"`
	Gopls     GoplsConfig     `yaml:"gopls"`
	LLM       LLMConfig       `yaml:"llm"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Log       LogConfig       `yaml:"log"`
}

type GoplsConfig struct {
	Path string `yaml:"path"`
}

type LLMConfig struct {
	Model         string `yaml:"model"`
	MaxIterations int    `yaml:"max_iterations"`
	SystemPrompt  string `yaml:"system_prompt"`
	// APIKey is taken from GEMINI_API_KEY, never from the file.
	APIKey string `yaml:"-"`
}

type TelemetryConfig struct {
	// File receives one JSON event per line. Empty logs events instead.
	File string `yaml:"file"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Providers: []string{ProviderTypes, ProviderGopls, ProviderLocal, ProviderWorkspace, ProviderLLM},
		Gopls:     GoplsConfig{Path: "gopls"},
		LLM: LLMConfig{
			Model:         "gemini-2.5-flash",
			MaxIterations: 6,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a configuration from a YAML file on top of Default and applies
// environment overrides. An empty path loads the defaults only.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	c.LLM.APIKey = os.Getenv("GEMINI_API_KEY")

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports unknown or duplicated providers and bad values.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Providers))
	for _, name := range c.Providers {
		if !knownProviders[name] {
			return fmt.Errorf("config: unknown provider %q", name)
		}
		if seen[name] {
			return fmt.Errorf("config: provider %q listed twice", name)
		}
		seen[name] = true
	}
	if c.LLM.MaxIterations < 1 {
		return fmt.Errorf("config: llm.max_iterations must be positive, got %d", c.LLM.MaxIterations)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log.level: %w", err)
	}
	return level, nil
}
