package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables overriding the
// configuration, e.g. P2A_RUN_REGION.
const EnvPrefix = "P2A_"

// LoadConfig reads the YAML file at path, applies defaults and validates
// the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration file %q: %w", path, err)
	}
	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides is LoadConfig followed by environment
// overrides. An empty path loads the defaults. Environment variables take
// precedence over the file.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"DATABASE_DSN":      &cfg.Database.DSN,
		"GEOSERVER_URL":     &cfg.Geoserver.URL,
		"RUN_ENSEMBLE":      &cfg.Run.Ensemble,
		"RUN_DATE_RANGE":    &cfg.Run.DateRange,
		"RUN_REGION":        &cfg.Run.Region,
		"LOGGING_LEVEL":     &cfg.Logging.Level,
		"LOGGING_FORMAT":    &cfg.Logging.Format,
		"METRICS_NAMESPACE": &cfg.Metrics.Namespace,
		"METRICS_LISTEN":    &cfg.Metrics.Listen,
	}
	for name, p := range strs {
		if val := os.Getenv(EnvPrefix + name); val != "" {
			*p = val
		}
	}

	ints := map[string]*int{
		"GEOSERVER_MAX_RETRIES": &cfg.Geoserver.MaxRetries,
		"ENGINE_PARALLEL":       &cfg.Engine.Parallel,
	}
	for name, p := range ints {
		if val := os.Getenv(EnvPrefix + name); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*p = i
		}
	}

	bools := map[string]*bool{
		"ENGINE_DIAGNOSTICS": &cfg.Engine.Diagnostics,
		"METRICS_ENABLED":    &cfg.Metrics.Enabled,
	}
	for name, p := range bools {
		if val := os.Getenv(EnvPrefix + name); val != "" {
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
			}
			*p = b
		}
	}

	if val := os.Getenv(EnvPrefix + "GEOSERVER_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("%sGEOSERVER_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.Geoserver.Timeout = d
	}
	return nil
}
