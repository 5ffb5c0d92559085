package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"mercator-hq/turnstile/pkg/config"
	"mercator-hq/turnstile/pkg/ratelimit"
)

// Collector owns the Prometheus registry for a Turnstile process and the
// metric groups registered on it.
//
// When metrics are disabled the collector still exists but its groups are
// nil, and every recording call on them is a no-op.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	limiters *ratelimit.Metrics
	journal  *JournalMetrics
}

// NewCollector creates a collector for cfg. If registry is nil a fresh one is
// created. Go runtime and process collectors are registered alongside the
// limiter and journal groups.
//
// Example:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	limiter, _ := ratelimit.New(kind, rate, ratelimit.WithMetrics(collector.Limiters()))
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}
	if !cfg.Enabled {
		return c
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.limiters = ratelimit.NewMetrics(registry, cfg.Namespace)
	c.journal = NewJournalMetrics(registry, cfg.Namespace)

	return c
}

// Enabled reports whether metrics are collected.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Limiters returns the limiter metric group, nil when disabled.
func (c *Collector) Limiters() *ratelimit.Metrics {
	return c.limiters
}

// Journal returns the journal metric group, nil when disabled.
func (c *Collector) Journal() *JournalMetrics {
	return c.journal
}

// JournalMetrics counts decision journal writes.
// A nil *JournalMetrics is valid and records nothing.
type JournalMetrics struct {
	records *prometheus.CounterVec
	queue   prometheus.Gauge
}

// NewJournalMetrics registers the journal metric group with reg.
func NewJournalMetrics(reg prometheus.Registerer, namespace string) *JournalMetrics {
	factory := promauto.With(reg)

	return &JournalMetrics{
		records: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "journal_records_total",
				Help:      "Total number of decision records handled by the journal, by outcome",
			},
			[]string{"outcome"}, // written, dropped, failed
		),
		queue: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "journal_queue_length",
				Help:      "Decision records waiting to be written",
			},
		),
	}
}

// RecordWritten counts a record persisted to storage.
func (m *JournalMetrics) RecordWritten() {
	if m == nil {
		return
	}
	m.records.WithLabelValues("written").Inc()
}

// RecordDropped counts a record discarded because the queue was full.
func (m *JournalMetrics) RecordDropped() {
	if m == nil {
		return
	}
	m.records.WithLabelValues("dropped").Inc()
}

// RecordFailed counts a record the storage rejected.
func (m *JournalMetrics) RecordFailed() {
	if m == nil {
		return
	}
	m.records.WithLabelValues("failed").Inc()
}

// SetQueueLength reports the number of queued records.
func (m *JournalMetrics) SetQueueLength(n int) {
	if m == nil {
		return
	}
	m.queue.Set(float64(n))
}
