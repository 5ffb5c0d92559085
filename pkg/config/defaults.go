package config

import (
	"time"

	"mercator-hq/turnstile/pkg/ratelimit"
)

// Default values for configuration fields.
const (
	// Telemetry defaults
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "json"
	DefaultMetricsNamespace = "turnstile"
	DefaultMetricsAddress   = "127.0.0.1:9090"
	DefaultMetricsPath      = "/metrics"

	// Tracing defaults
	DefaultTracingSampler     = "always"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingTimeout     = 10 * time.Second
	DefaultTracingServiceName = "turnstile"

	// Journal defaults
	DefaultJournalDriver       = "sqlite"
	DefaultJournalPath         = "data/journal.db"
	DefaultJournalAsyncBuffer  = 1000
	DefaultJournalWriteTimeout = 5 * time.Second
	DefaultRetentionSchedule   = "0 3 * * *"
)

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Limiter defaults
	for i := range cfg.Limiters {
		l := &cfg.Limiters[i]
		if l.Kind == string(ratelimit.KindSlidingWindowLog) && l.LogCapacity == 0 && l.Permits > 0 {
			l.LogCapacity = l.Permits + 1
		}
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}

	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}

	// Journal defaults
	if cfg.Journal.Driver == "" {
		cfg.Journal.Driver = DefaultJournalDriver
	}
	if cfg.Journal.Path == "" && cfg.Journal.Driver != "memory" {
		cfg.Journal.Path = DefaultJournalPath
	}
	if cfg.Journal.AsyncBuffer == 0 {
		cfg.Journal.AsyncBuffer = DefaultJournalAsyncBuffer
	}
	if cfg.Journal.WriteTimeout == 0 {
		cfg.Journal.WriteTimeout = DefaultJournalWriteTimeout
	}
	if cfg.Journal.Retention.Schedule == "" {
		cfg.Journal.Retention.Schedule = DefaultRetentionSchedule
	}
}

// MinimalConfig returns a valid configuration with one limiter of each kind
// and all defaults applied.
func MinimalConfig() *Config {
	cfg := &Config{
		Limiters: []LimiterConfig{
			{Kind: string(ratelimit.KindTokenBucket), Permits: 3, Duration: 5 * time.Second},
			{Kind: string(ratelimit.KindFixedWindow), Permits: 3, Duration: 5 * time.Second},
			{Kind: string(ratelimit.KindSlidingWindowLog), Permits: 5, Duration: 3 * time.Second},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
