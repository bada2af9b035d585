package config

const (
	DefaultPath           = "jexpr.yaml"
	DefaultStepQuota      = 100000
	DefaultRecursionLimit = 64
	DefaultCacheSize      = 1024
	DefaultExtensionsPath = "functions.yaml"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultNamespace      = "jexpr"
	DefaultListenAddress  = ":9464"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// ApplyDefaults fills zero-valued fields. It is idempotent.
func ApplyDefaults(cfg *Config) {
	if cfg.Engine.StepQuota == 0 {
		cfg.Engine.StepQuota = DefaultStepQuota
	}
	if cfg.Engine.RecursionLimit == 0 {
		cfg.Engine.RecursionLimit = DefaultRecursionLimit
	}
	if cfg.Engine.CacheSize == 0 {
		cfg.Engine.CacheSize = DefaultCacheSize
	}

	if cfg.Extensions.Path == "" {
		cfg.Extensions.Path = DefaultExtensionsPath
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultNamespace
	}
	if cfg.Metrics.ListenAddress == "" {
		cfg.Metrics.ListenAddress = DefaultListenAddress
	}
}
