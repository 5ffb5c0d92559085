package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"mercator-hq/turnstile/pkg/ratelimit"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "limiters[0].permits").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateLimiters(cfg.Limiters)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateLimiters(limiters []LimiterConfig) []FieldError {
	var errs []FieldError

	if len(limiters) == 0 {
		return append(errs, FieldError{
			Field:   "limiters",
			Message: "at least one limiter is required",
		})
	}

	seen := make(map[ratelimit.Kind]int, len(limiters))
	for i, l := range limiters {
		prefix := fmt.Sprintf("limiters[%d]", i)

		kind, err := ratelimit.ParseKind(l.Kind)
		if err != nil {
			errs = append(errs, FieldError{
				Field:   prefix + ".kind",
				Message: fmt.Sprintf("invalid kind %q: must be 'token_bucket', 'fixed_window', or 'sliding_window_log'", l.Kind),
			})
		} else if first, dup := seen[kind]; dup {
			errs = append(errs, FieldError{
				Field:   prefix + ".kind",
				Message: fmt.Sprintf("duplicate kind %q (first declared at limiters[%d])", l.Kind, first),
			})
		} else {
			seen[kind] = i
		}

		if l.Permits <= 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".permits",
				Message: "permits must be positive",
			})
		}
		if l.Duration <= 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".duration",
				Message: "duration must be positive",
			})
		}

		// The log must hold at least one entry over quota, or the live
		// count can never exceed permits and nothing is rejected.
		if kind == ratelimit.KindSlidingWindowLog && l.Permits > 0 && l.LogCapacity <= l.Permits {
			errs = append(errs, FieldError{
				Field:   prefix + ".log_capacity",
				Message: fmt.Sprintf("log capacity %d must be greater than permits %d", l.LogCapacity, l.Permits),
			})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	// Validate logging format
	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Path == "" || !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with '/' when metrics are enabled",
			})
		}
		if cfg.Metrics.ListenAddress == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: "listen address is required when metrics are enabled",
			})
		}
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: fmt.Sprintf("sample ratio must be between 0.0 and 1.0, got %g", cfg.Tracing.SampleRatio),
			})
		}
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "endpoint is required when tracing is enabled",
			})
		}
	}

	return errs
}

func validateJournal(cfg *JournalConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	switch cfg.Driver {
	case "sqlite", "sqlite3":
		if cfg.Path == "" {
			errs = append(errs, FieldError{
				Field:   "journal.path",
				Message: fmt.Sprintf("path is required for driver %q", cfg.Driver),
			})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "journal.driver",
			Message: fmt.Sprintf("invalid driver %q: must be 'sqlite', 'sqlite3', or 'memory'", cfg.Driver),
		})
	}

	if cfg.AsyncBuffer < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.async_buffer",
			Message: "async buffer must not be negative",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.write_timeout",
			Message: "write timeout must not be negative",
		})
	}

	if cfg.Retention.MaxAge < 0 {
		errs = append(errs, FieldError{
			Field:   "journal.retention.max_age",
			Message: "max age must not be negative",
		})
	}
	if cfg.Retention.MaxAge > 0 {
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "journal.retention.schedule",
				Message: fmt.Sprintf("invalid cron schedule %q: %v", cfg.Retention.Schedule, err),
			})
		}
	}

	return errs
}
