// Package config loads the settings of the p2a-impacts command from YAML,
// with defaults and environment overrides.
package config

import "time"

// Config is the complete configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Geoserver GeoserverConfig `yaml:"geoserver"`
	Run       RunConfig       `yaml:"run"`
	Engine    EngineConfig    `yaml:"engine"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// DatabaseConfig locates the climate statistics database.
type DatabaseConfig struct {
	// DSN is a SQLite file path or ":memory:".
	DSN string `yaml:"dsn"`
}

// GeoserverConfig configures region lookups.
type GeoserverConfig struct {
	URL        string        `yaml:"url"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// RunConfig holds the defaults of a resolution run.
type RunConfig struct {
	Ensemble  string `yaml:"ensemble"`
	DateRange string `yaml:"date_range"`
	Region    string `yaml:"region"`
}

// EngineConfig configures the rule engine.
type EngineConfig struct {
	// Parallel is the number of variables resolved concurrently. 0 or 1
	// resolves them one at a time.
	Parallel int `yaml:"parallel"`

	// Diagnostics collects an evaluation trace for every rule.
	Diagnostics bool `yaml:"diagnostics"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`

	// Listen is the address metrics are served on while a run is in
	// progress. Empty disables the endpoint.
	Listen string `yaml:"listen"`
}
