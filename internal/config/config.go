// Package config loads service configuration from config.yaml and
// LAUNCHKIT_-prefixed environment variables.
package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig              `koanf:"server"`
	Storage   StorageConfig             `koanf:"storage"`
	Export    ExportConfig              `koanf:"export"`
	Providers []ProviderConfig          `koanf:"providers"`
	Workflows map[string]WorkflowConfig `koanf:"workflows"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // memory, sqlite
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type ExportConfig struct {
	Dir string `koanf:"dir"`
}

type ProviderConfig struct {
	Name    string `koanf:"name"`
	Type    string `koanf:"type"` // openai, groq
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"` // Custom API endpoint
}

// WorkflowConfig overrides per-stage generation settings for one workflow.
type WorkflowConfig struct {
	Stages map[string]StageConfig `koanf:"stages"`
}

// StageConfig selects the provider and model parameters for a single stage.
// Zero values mean "use the workflow's built-in default".
type StageConfig struct {
	Provider    string  `koanf:"provider"`
	Model       string  `koanf:"model"`
	Temperature float64 `koanf:"temperature"`
	MaxTokens   int     `koanf:"max_tokens"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads config.yaml (when present) and then LAUNCHKIT_ environment
// variables, which override file values.
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Environment variables override file config. Double underscore maps
	// to nesting: LAUNCHKIT_SERVER__PORT=9090 -> server.port.
	if err := k.Load(env.Provider("LAUNCHKIT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "LAUNCHKIT_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("storage.type") {
		k.Set("storage.type", "memory")
	}
	if !k.Exists("export.dir") {
		k.Set("export.dir", "./exports")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Substitute environment variables in provider API keys
	for i := range cfg.Providers {
		cfg.Providers[i].APIKey = substituteEnvVars(cfg.Providers[i].APIKey)
	}

	return &cfg, nil
}

// StageOverride returns the stage override for workflow/stage, or a zero
// value when nothing is configured.
func (c *Config) StageOverride(workflow, stage string) StageConfig {
	wf, ok := c.Workflows[workflow]
	if !ok {
		return StageConfig{}
	}
	return wf.Stages[stage]
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
