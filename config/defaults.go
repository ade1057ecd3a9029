package config

import (
	"time"

	"github.com/pacificclimate/p2a-rule-engine/region"
)

const (
	DefaultDSN              = "p2a.db"
	DefaultGeoserverTimeout = 30 * time.Second
	DefaultMaxRetries       = 2
	DefaultEnsemble         = "p2a_rules"
	DefaultDateRange        = "2080"
	DefaultRegion           = "bc"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
	DefaultNamespace        = "p2a"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// ApplyDefaults sets every zero field of cfg to its default. It is
// idempotent.
func ApplyDefaults(cfg *Config) {
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = DefaultDSN
	}

	if cfg.Geoserver.URL == "" {
		cfg.Geoserver.URL = region.DefaultURL
	}
	if cfg.Geoserver.Timeout == 0 {
		cfg.Geoserver.Timeout = DefaultGeoserverTimeout
	}
	if cfg.Geoserver.MaxRetries == 0 {
		cfg.Geoserver.MaxRetries = DefaultMaxRetries
	}

	if cfg.Run.Ensemble == "" {
		cfg.Run.Ensemble = DefaultEnsemble
	}
	if cfg.Run.DateRange == "" {
		cfg.Run.DateRange = DefaultDateRange
	}
	if cfg.Run.Region == "" {
		cfg.Run.Region = DefaultRegion
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
}
