package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/pacificclimate/p2a-rule-engine/climate"
	"github.com/pacificclimate/p2a-rule-engine/internal/logging"
	"github.com/pacificclimate/p2a-rule-engine/region"
)

// FieldError is a validation error of one field.
type FieldError struct {
	Field   string // dotted path, e.g. "run.date_range"
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError holds every field error of a configuration.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "invalid configuration"
	case 1:
		return "invalid configuration: " + e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "invalid configuration, %d errors:", len(e.Errors))
	for _, err := range e.Errors {
		sb.WriteString("\n  - " + err.Error())
	}
	return sb.String()
}

// Validate checks cfg and returns a ValidationError listing every invalid
// field, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError
	add := func(field, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if cfg.Database.DSN == "" {
		add("database.dsn", "is required")
	}

	if u, err := url.Parse(cfg.Geoserver.URL); err != nil || u.Scheme == "" || u.Host == "" {
		add("geoserver.url", "%q is not an absolute URL", cfg.Geoserver.URL)
	}
	if cfg.Geoserver.Timeout < 0 {
		add("geoserver.timeout", "must not be negative")
	}
	if cfg.Geoserver.MaxRetries < 0 {
		add("geoserver.max_retries", "must not be negative")
	}

	if cfg.Run.Ensemble == "" {
		add("run.ensemble", "is required")
	}
	if !slices.Contains(climate.DateRanges, cfg.Run.DateRange) {
		add("run.date_range", "%q is not one of %s", cfg.Run.DateRange, strings.Join(climate.DateRanges, ", "))
	}
	if _, ok := region.Names[cfg.Run.Region]; !ok {
		add("run.region", "unknown region %q", cfg.Run.Region)
	}

	if cfg.Engine.Parallel < 0 {
		add("engine.parallel", "must not be negative")
	}

	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		add("logging.level", "%v", err)
	}
	if !slices.Contains(logging.Formats, strings.ToLower(cfg.Logging.Format)) {
		add("logging.format", "%q is not one of %s", cfg.Logging.Format, strings.Join(logging.Formats, ", "))
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Namespace == "" {
		add("metrics.namespace", "is required when metrics are enabled")
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
