package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads path, applies defaults and validates. Environment
// variables are not consulted; see LoadConfigWithEnvOverrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides is LoadConfig followed by JEXPR_* environment
// overrides and a second validation. Environment values take precedence.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return overrideAndValidate(cfg)
}

// Load is the command-line entry point. A missing file at DefaultPath yields
// the defaults; a missing file anywhere else is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err == nil {
		return cfg, nil
	}
	if path == DefaultPath && errors.Is(err, fs.ErrNotExist) {
		return overrideAndValidate(Default())
	}
	return nil, err
}

func overrideAndValidate(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides uses the JEXPR_SECTION_FIELD naming convention.
// Unparseable numbers keep the current value.
func applyEnvOverrides(cfg *Config) {
	cfg.Engine.StepQuota = env.Int("JEXPR_STEP_QUOTA", cfg.Engine.StepQuota)
	cfg.Engine.RecursionLimit = env.Int("JEXPR_RECURSION_LIMIT", cfg.Engine.RecursionLimit)
	cfg.Engine.CacheSize = env.Int("JEXPR_CACHE_SIZE", cfg.Engine.CacheSize)

	cfg.Extensions.Path = env.Str("JEXPR_EXTENSIONS_PATH", cfg.Extensions.Path)
	if env.Has("JEXPR_EXTENSIONS_WATCH") {
		cfg.Extensions.Watch = env.Bool("JEXPR_EXTENSIONS_WATCH")
	}

	cfg.Logging.Level = env.Str("JEXPR_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = env.Str("JEXPR_LOG_FORMAT", cfg.Logging.Format)

	if env.Has("JEXPR_METRICS_ENABLED") {
		cfg.Metrics.Enabled = env.Bool("JEXPR_METRICS_ENABLED")
	}
	cfg.Metrics.ListenAddress = env.Str("JEXPR_METRICS_ADDRESS", cfg.Metrics.ListenAddress)
}
