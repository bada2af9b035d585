package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xyproto/env/v2"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jexpr.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// setenv sets a variable for the test and refreshes the env cache.
func setenv(t *testing.T, name, value string) {
	t.Helper()
	t.Cleanup(env.Load)
	t.Setenv(name, value)
	env.Load()
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "engine:\n  step_quota: 500\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine.StepQuota != 500 {
		t.Fatalf("expected step quota 500, got %d", cfg.Engine.StepQuota)
	}
	if cfg.Engine.RecursionLimit != DefaultRecursionLimit || cfg.Engine.CacheSize != DefaultCacheSize {
		t.Fatalf("engine defaults not applied: %+v", cfg.Engine)
	}
	if cfg.Extensions.Path != DefaultExtensionsPath || cfg.Extensions.Watch {
		t.Fatalf("unexpected extensions config: %+v", cfg.Extensions)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Metrics.Enabled || cfg.Metrics.Namespace != "jexpr" || cfg.Metrics.ListenAddress != ":9464" {
		t.Fatalf("unexpected metrics config: %+v", cfg.Metrics)
	}
}

func TestLoadConfigFullFile(t *testing.T) {
	path := writeConfig(t, `
engine:
  step_quota: -1
  recursion_limit: 10
  cache_size: -1
extensions:
  path: /etc/jexpr/functions.yaml
  watch: true
logging:
  level: debug
  format: json
metrics:
  enabled: true
  namespace: pipeline
  listen_address: 127.0.0.1:9000
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Config{
		Engine:     EngineConfig{StepQuota: -1, RecursionLimit: 10, CacheSize: -1},
		Extensions: ExtensionsConfig{Path: "/etc/jexpr/functions.yaml", Watch: true},
		Logging:    LoggingConfig{Level: "debug", Format: "json"},
		Metrics:    MetricsConfig{Enabled: true, Namespace: "pipeline", ListenAddress: "127.0.0.1:9000"},
	}
	if *cfg != want {
		t.Fatalf("unexpected config:\n got %+v\nwant %+v", *cfg, want)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}

	path := writeConfig(t, "engine: [1, 2\n")
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Fatalf("expected parse error, got %v", err)
	}

	path = writeConfig(t, "logging:\n  level: loud\n  format: xml\nmetrics:\n  namespace: 9bad\n")
	_, err := LoadConfig(path)
	var validation ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(validation.Errors) != 3 {
		t.Fatalf("expected 3 field errors, got %d: %v", len(validation.Errors), validation.Errors)
	}
	fields := []string{validation.Errors[0].Field, validation.Errors[1].Field, validation.Errors[2].Field}
	if strings.Join(fields, ",") != "logging.level,logging.format,metrics.namespace" {
		t.Fatalf("unexpected fields %v", fields)
	}
	if !strings.Contains(err.Error(), "with 3 errors") {
		t.Fatalf("expected aggregated message, got %q", err.Error())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"defaults", func(*Config) {}, ""},
		{"negative recursion", func(c *Config) { c.Engine.RecursionLimit = -1 }, "engine.recursion_limit"},
		{"watch without path", func(c *Config) { c.Extensions.Path = " "; c.Extensions.Watch = true }, "extensions.path"},
		{"warning level alias", func(c *Config) { c.Logging.Level = "WARNING" }, ""},
		{"metrics without address", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.ListenAddress = "" }, "metrics.listen_address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			var validation ValidationError
			if !errors.As(err, &validation) || len(validation.Errors) != 1 || validation.Errors[0].Field != tt.field {
				t.Fatalf("expected single error on %s, got %v", tt.field, err)
			}
		})
	}
}

func TestApplyDefaultsIdempotent(t *testing.T) {
	cfg := Config{Engine: EngineConfig{StepQuota: 7}}
	ApplyDefaults(&cfg)
	first := cfg
	ApplyDefaults(&cfg)
	if cfg != first {
		t.Fatalf("defaults changed on second application: %+v vs %+v", cfg, first)
	}
	if cfg.Engine.StepQuota != 7 {
		t.Fatalf("explicit value overwritten: %d", cfg.Engine.StepQuota)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "extensions:\n  watch: true\nmetrics:\n  enabled: true\n")
	setenv(t, "JEXPR_STEP_QUOTA", "42")
	setenv(t, "JEXPR_RECURSION_LIMIT", "8")
	setenv(t, "JEXPR_CACHE_SIZE", "not-a-number")
	setenv(t, "JEXPR_EXTENSIONS_PATH", "other.yaml")
	setenv(t, "JEXPR_EXTENSIONS_WATCH", "false")
	setenv(t, "JEXPR_LOG_LEVEL", "error")
	setenv(t, "JEXPR_LOG_FORMAT", "json")
	setenv(t, "JEXPR_METRICS_ENABLED", "false")
	setenv(t, "JEXPR_METRICS_ADDRESS", ":9999")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Engine.StepQuota != 42 || cfg.Engine.RecursionLimit != 8 {
		t.Fatalf("engine overrides not applied: %+v", cfg.Engine)
	}
	if cfg.Engine.CacheSize != DefaultCacheSize {
		t.Fatalf("invalid override should keep %d, got %d", DefaultCacheSize, cfg.Engine.CacheSize)
	}
	if cfg.Extensions.Path != "other.yaml" || cfg.Extensions.Watch {
		t.Fatalf("extension overrides not applied: %+v", cfg.Extensions)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" {
		t.Fatalf("logging overrides not applied: %+v", cfg.Logging)
	}
	if cfg.Metrics.Enabled || cfg.Metrics.ListenAddress != ":9999" {
		t.Fatalf("metrics overrides not applied: %+v", cfg.Metrics)
	}
}

func TestEnvOverridesAreRevalidated(t *testing.T) {
	path := writeConfig(t, "")
	setenv(t, "JEXPR_LOG_FORMAT", "xml")
	_, err := LoadConfigWithEnvOverrides(path)
	if err == nil || !strings.Contains(err.Error(), "after environment overrides") {
		t.Fatalf("expected validation failure after overrides, got %v", err)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("missing default file should use defaults: %v", err)
	}
	if *cfg != *Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}

	if _, err := Load("elsewhere.yaml"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing explicit file should fail, got %v", err)
	}
}
