// Package config loads the service configuration from an optional YAML
// or JSON file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/dispatchml/core/metrics"
	"github.com/kilianp07/dispatchml/infra/announce"
)

// ServerConfig holds the API listener settings.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8000"
	}
}

// ModelConfig locates the persisted model artifact.
type ModelConfig struct {
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *ModelConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "models/dispatch_model.json"
	}
}

// Validate checks mandatory fields.
func (c ModelConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("model path is required")
	}
	return nil
}

// TrainingConfig holds the defaults applied to train requests that omit
// parameters. Requested sample counts are bounded to [100, 100000].
type TrainingConfig struct {
	DefaultSamples int   `json:"default_samples"`
	DefaultSeed    int64 `json:"default_seed"`
}

// SetDefaults applies sane defaults.
func (c *TrainingConfig) SetDefaults() {
	if c.DefaultSamples == 0 {
		c.DefaultSamples = 3000
	}
	if c.DefaultSeed == 0 {
		c.DefaultSeed = 42
	}
}

// Validate checks the configured defaults against the request bounds.
func (c TrainingConfig) Validate() error {
	if c.DefaultSamples < 100 || c.DefaultSamples > 100000 {
		return fmt.Errorf("default_samples must be between 100 and 100000")
	}
	return nil
}

// Config is the root configuration.
type Config struct {
	Server   ServerConfig    `json:"server"`
	Model    ModelConfig     `json:"model"`
	Training TrainingConfig  `json:"training"`
	Metrics  metrics.Config  `json:"metrics"`
	Announce announce.Config `json:"announce"`
}

// Load reads the configuration file at path when it exists, then
// applies DISPATCH_-prefixed environment overrides (double underscore
// separating nested keys) and defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if _, err := os.Stat(path); err == nil {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	if err := k.Load(env.Provider("DISPATCH_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "dispatch_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Server.SetDefaults()
	cfg.Model.SetDefaults()
	cfg.Training.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Announce.SetDefaults()
	if err := cfg.Model.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Training.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Announce.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
