package config

import (
	"time"

	"mercator-hq/turnstile/pkg/ratelimit"
)

// Config is the root configuration structure for Turnstile.
// It contains the limiter set and all ambient subsystem configurations.
type Config struct {
	// Limiters declares the rate limiters to build, at most one per kind.
	Limiters []LimiterConfig `yaml:"limiters"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Journal contains configuration for the admission decision journal.
	Journal JournalConfig `yaml:"journal"`
}

// LimiterConfig declares one rate limiter.
type LimiterConfig struct {
	// Kind selects the algorithm.
	// Options: "token_bucket", "fixed_window", "sliding_window_log"
	Kind string `yaml:"kind"`

	// Permits is the quota admitted per Duration. Must be positive.
	Permits int `yaml:"permits"`

	// Duration is the window length, or the refill interval for a token
	// bucket. Must be positive.
	Duration time.Duration `yaml:"duration"`

	// ManualRefill leaves token bucket refill stopped after construction;
	// the owner starts it explicitly. Ignored by other kinds.
	// Default: false
	ManualRefill bool `yaml:"manual_refill"`

	// LogCapacity bounds the in-memory log of a sliding window log limiter.
	// It must be at least Permits. Ignored by other kinds.
	// Default: Permits + 1
	LogCapacity int `yaml:"log_capacity"`
}

// Rate converts the declared quota into a ratelimit.Rate.
func (l LimiterConfig) Rate() (ratelimit.Rate, error) {
	return ratelimit.NewRate(l.Permits, l.Duration)
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether limiter metrics are collected and served.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "turnstile"
	Namespace string `yaml:"namespace"`

	// ListenAddress is where the Prometheus endpoint is served.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// TracingConfig contains OpenTelemetry tracing configuration. Spans cover
// journal storage operations, limiter reloads and simulation runs, never
// individual admission decisions.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the collector connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds a single export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// ServiceName is the service.name resource attribute.
	// Default: "turnstile"
	ServiceName string `yaml:"service_name"`
}

// JournalConfig contains configuration for the admission decision journal.
type JournalConfig struct {
	// Enabled controls whether decisions are journaled.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Driver selects the storage backend.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo), "memory"
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file for the SQL drivers.
	// Default: "data/journal.db"
	Path string `yaml:"path"`

	// AsyncBuffer is the number of decisions queued for the journal writer
	// before new ones are dropped.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds a single journal write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Retention controls pruning of old decisions.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig controls scheduled pruning of the decision journal.
type RetentionConfig struct {
	// MaxAge is how long decisions are kept. Zero keeps them forever.
	// Default: 0
	MaxAge time.Duration `yaml:"max_age"`

	// Schedule is a standard five-field cron expression for pruning runs.
	// Default: "0 3 * * *" (daily at 3 AM)
	Schedule string `yaml:"schedule"`
}
