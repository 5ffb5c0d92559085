package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input Config
		check func(*testing.T, *Config)
	}{
		{
			name:  "empty config gets all defaults",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Telemetry.Logging.Level != DefaultLogLevel {
					t.Errorf("expected logging level %q, got %q", DefaultLogLevel, cfg.Telemetry.Logging.Level)
				}
				if cfg.Telemetry.Logging.Format != DefaultLogFormat {
					t.Errorf("expected logging format %q, got %q", DefaultLogFormat, cfg.Telemetry.Logging.Format)
				}
				if cfg.Telemetry.Metrics.Namespace != DefaultMetricsNamespace {
					t.Errorf("expected metrics namespace %q, got %q", DefaultMetricsNamespace, cfg.Telemetry.Metrics.Namespace)
				}
				if cfg.Telemetry.Metrics.Path != DefaultMetricsPath {
					t.Errorf("expected metrics path %q, got %q", DefaultMetricsPath, cfg.Telemetry.Metrics.Path)
				}
				if cfg.Telemetry.Tracing.Sampler != DefaultTracingSampler {
					t.Errorf("expected tracing sampler %q, got %q", DefaultTracingSampler, cfg.Telemetry.Tracing.Sampler)
				}
				if cfg.Telemetry.Tracing.Endpoint != DefaultTracingEndpoint {
					t.Errorf("expected tracing endpoint %q, got %q", DefaultTracingEndpoint, cfg.Telemetry.Tracing.Endpoint)
				}
				if cfg.Telemetry.Tracing.ServiceName != DefaultTracingServiceName {
					t.Errorf("expected service name %q, got %q", DefaultTracingServiceName, cfg.Telemetry.Tracing.ServiceName)
				}
				if cfg.Journal.Driver != DefaultJournalDriver {
					t.Errorf("expected journal driver %q, got %q", DefaultJournalDriver, cfg.Journal.Driver)
				}
				if cfg.Journal.Path != DefaultJournalPath {
					t.Errorf("expected journal path %q, got %q", DefaultJournalPath, cfg.Journal.Path)
				}
				if cfg.Journal.AsyncBuffer != DefaultJournalAsyncBuffer {
					t.Errorf("expected async buffer %d, got %d", DefaultJournalAsyncBuffer, cfg.Journal.AsyncBuffer)
				}
				if cfg.Journal.WriteTimeout != DefaultJournalWriteTimeout {
					t.Errorf("expected write timeout %v, got %v", DefaultJournalWriteTimeout, cfg.Journal.WriteTimeout)
				}
			},
		},
		{
			name: "existing values are preserved",
			input: Config{
				Telemetry: TelemetryConfig{
					Logging: LoggingConfig{Level: "debug", Format: "text"},
				},
				Journal: JournalConfig{Driver: "sqlite3", Path: "/tmp/j.db", AsyncBuffer: 10, WriteTimeout: time.Second},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Telemetry.Logging.Level != "debug" {
					t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
				}
				if cfg.Telemetry.Logging.Format != "text" {
					t.Errorf("expected logging format %q, got %q", "text", cfg.Telemetry.Logging.Format)
				}
				if cfg.Journal.Driver != "sqlite3" || cfg.Journal.Path != "/tmp/j.db" {
					t.Errorf("expected journal sqlite3 at /tmp/j.db, got %s at %s", cfg.Journal.Driver, cfg.Journal.Path)
				}
				if cfg.Journal.AsyncBuffer != 10 {
					t.Errorf("expected async buffer 10, got %d", cfg.Journal.AsyncBuffer)
				}
			},
		},
		{
			name:  "memory journal gets no path",
			input: Config{Journal: JournalConfig{Driver: "memory"}},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Journal.Path != "" {
					t.Errorf("expected empty journal path, got %q", cfg.Journal.Path)
				}
			},
		},
		{
			name: "sliding window log capacity defaults to permits plus one",
			input: Config{Limiters: []LimiterConfig{
				{Kind: "sliding_window_log", Permits: 5, Duration: time.Second},
				{Kind: "sliding_window_log", Permits: 5, Duration: time.Second, LogCapacity: 20},
				{Kind: "fixed_window", Permits: 5, Duration: time.Second},
			}},
			check: func(t *testing.T, cfg *Config) {
				if got := cfg.Limiters[0].LogCapacity; got != 6 {
					t.Errorf("expected default log capacity 6, got %d", got)
				}
				if got := cfg.Limiters[1].LogCapacity; got != 20 {
					t.Errorf("expected explicit log capacity 20, got %d", got)
				}
				if got := cfg.Limiters[2].LogCapacity; got != 0 {
					t.Errorf("expected no log capacity for fixed window, got %d", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			ApplyDefaults(&cfg)
			tt.check(t, &cfg)
		})
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := MinimalConfig()
	before := *cfg
	before.Limiters = append([]LimiterConfig(nil), cfg.Limiters...)

	ApplyDefaults(cfg)

	if cfg.Telemetry != before.Telemetry || cfg.Journal != before.Journal {
		t.Error("second ApplyDefaults changed ambient configuration")
	}
	for i := range cfg.Limiters {
		if cfg.Limiters[i] != before.Limiters[i] {
			t.Errorf("second ApplyDefaults changed limiters[%d]", i)
		}
	}
}

func TestMinimalConfig_IsValid(t *testing.T) {
	if err := Validate(MinimalConfig()); err != nil {
		t.Fatalf("MinimalConfig() is invalid: %v", err)
	}
}
