package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration from data, applies defaults and
// validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention TURNSTILE_SECTION_FIELD (e.g., TURNSTILE_JOURNAL_DRIVER).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format TURNSTILE_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Limiter overrides apply to an already declared limiter of that kind
	for i := range cfg.Limiters {
		applyLimiterEnvOverrides(&cfg.Limiters[i])
	}

	// Telemetry overrides
	if val := os.Getenv("TURNSTILE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("TURNSTILE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("TURNSTILE_TELEMETRY_LOGGING_ADD_SOURCE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Logging.AddSource = b
		}
	}
	if val := os.Getenv("TURNSTILE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("TURNSTILE_TELEMETRY_METRICS_NAMESPACE"); val != "" {
		cfg.Telemetry.Metrics.Namespace = val
	}
	if val := os.Getenv("TURNSTILE_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := os.Getenv("TURNSTILE_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}

	if val := os.Getenv("TURNSTILE_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("TURNSTILE_TELEMETRY_TRACING_SAMPLER"); val != "" {
		cfg.Telemetry.Tracing.Sampler = val
	}
	if val := os.Getenv("TURNSTILE_TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
	if val := os.Getenv("TURNSTILE_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}

	// Journal overrides
	if val := os.Getenv("TURNSTILE_JOURNAL_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Journal.Enabled = b
		}
	}
	if val := os.Getenv("TURNSTILE_JOURNAL_DRIVER"); val != "" {
		cfg.Journal.Driver = val
	}
	if val := os.Getenv("TURNSTILE_JOURNAL_PATH"); val != "" {
		cfg.Journal.Path = val
	}
	if val := os.Getenv("TURNSTILE_JOURNAL_ASYNC_BUFFER"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Journal.AsyncBuffer = i
		}
	}
	if val := os.Getenv("TURNSTILE_JOURNAL_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Journal.WriteTimeout = d
		}
	}
	if val := os.Getenv("TURNSTILE_JOURNAL_RETENTION_MAX_AGE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Journal.Retention.MaxAge = d
		}
	}
	if val := os.Getenv("TURNSTILE_JOURNAL_RETENTION_SCHEDULE"); val != "" {
		cfg.Journal.Retention.Schedule = val
	}
}

// applyLimiterEnvOverrides applies TURNSTILE_LIMITERS_<KIND>_<FIELD>
// overrides, e.g. TURNSTILE_LIMITERS_TOKEN_BUCKET_PERMITS.
func applyLimiterEnvOverrides(l *LimiterConfig) {
	prefix := "TURNSTILE_LIMITERS_" + strings.ToUpper(l.Kind) + "_"

	if val := os.Getenv(prefix + "PERMITS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			l.Permits = i
		}
	}
	if val := os.Getenv(prefix + "DURATION"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			l.Duration = d
		}
	}
	if val := os.Getenv(prefix + "MANUAL_REFILL"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			l.ManualRefill = b
		}
	}
	if val := os.Getenv(prefix + "LOG_CAPACITY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			l.LogCapacity = i
		}
	}
}
