package ratelimit

import (
	"log/slog"
	"time"

	"mercator-hq/turnstile/pkg/logstore"
)

// Option configures a limiter.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	now         func() time.Time
	metrics     *Metrics
	store       logstore.Store
	logCapacity int
}

func newOptions(opts []Option) *options {
	o := &options{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock replaces time.Now for window bookkeeping. Only the fixed window
// limiter reads the clock; refill and log expiry run on wall time.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMetrics records decisions to m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithLogStore makes New use store for a sliding window log limiter instead
// of creating an in-memory one.
func WithLogStore(store logstore.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithLogCapacity sets the capacity of the in-memory log store New creates
// for a sliding window log limiter. The default is the quota plus one; New
// rejects a capacity that does not exceed the quota.
func WithLogCapacity(capacity int) Option {
	return func(o *options) {
		o.logCapacity = capacity
	}
}
