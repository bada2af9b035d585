// Package config loads the jexpr command-line configuration from YAML with
// defaults, validation and JEXPR_* environment overrides.
package config

// Config is the root configuration for the jexpr command.
type Config struct {
	Engine     EngineConfig     `yaml:"engine"`
	Extensions ExtensionsConfig `yaml:"extensions"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// EngineConfig mirrors the tunables of jexpr.Config.
type EngineConfig struct {
	// StepQuota bounds the nodes visited per evaluation. Negative disables it.
	StepQuota int `yaml:"step_quota"`

	RecursionLimit int `yaml:"recursion_limit"`

	// CacheSize is the parse cache capacity. Negative disables the cache.
	CacheSize int `yaml:"cache_size"`
}

// ExtensionsConfig points at a YAML file of user-defined functions.
type ExtensionsConfig struct {
	Path string `yaml:"path"`

	// Watch reloads the file on change while the REPL runs.
	Watch bool `yaml:"watch"`
}

type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is json or text.
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Namespace     string `yaml:"namespace"`
	ListenAddress string `yaml:"listen_address"`
}
