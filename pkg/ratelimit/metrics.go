package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus collectors for limiter decisions.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	decisions *prometheus.CounterVec
	permits   *prometheus.CounterVec

	refills   *prometheus.CounterVec
	available *prometheus.GaugeVec

	logEntries *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg under
// namespace. A nil reg uses the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admission_decisions_total",
				Help:      "Total number of admission decisions",
			},
			[]string{"kind", "result"},
		),

		permits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admission_permits_total",
				Help:      "Total number of permits requested, by decision",
			},
			[]string{"kind", "result"},
		),

		refills: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_bucket_refills_total",
				Help:      "Total number of token bucket refills",
			},
			[]string{"kind"},
		),

		available: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "token_bucket_available_permits",
				Help:      "Permits currently available in the token bucket",
			},
			[]string{"kind"},
		),

		logEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sliding_window_log_entries",
				Help:      "Live entries in the sliding window log",
			},
			[]string{"kind"},
		),
	}
}

// RecordDecision records one admission decision for permits.
func (m *Metrics) RecordDecision(kind Kind, permits int, allowed bool) {
	if m == nil {
		return
	}

	result := "admitted"
	if !allowed {
		result = "rejected"
	}
	m.decisions.WithLabelValues(string(kind), result).Inc()
	m.permits.WithLabelValues(string(kind), result).Add(float64(permits))
}

func (m *Metrics) recordRefill(available int) {
	if m == nil {
		return
	}
	m.refills.WithLabelValues(string(KindTokenBucket)).Inc()
	m.available.WithLabelValues(string(KindTokenBucket)).Set(float64(available))
}

func (m *Metrics) setAvailable(available int) {
	if m == nil {
		return
	}
	m.available.WithLabelValues(string(KindTokenBucket)).Set(float64(available))
}

func (m *Metrics) setLogEntries(count int) {
	if m == nil {
		return
	}
	m.logEntries.WithLabelValues(string(KindSlidingWindowLog)).Set(float64(count))
}
