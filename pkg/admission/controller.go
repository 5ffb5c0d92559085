package admission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"

	"mercator-hq/turnstile/pkg/config"
	"mercator-hq/turnstile/pkg/journal"
	"mercator-hq/turnstile/pkg/ratelimit"
	"mercator-hq/turnstile/pkg/telemetry/tracing"
)

// ErrClosed is returned by a Controller after Close.
var ErrClosed = errors.New("admission controller closed")

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger. Limiters built by the controller
// share it.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records limiter decisions, refills and log sizes to m.
func WithMetrics(m *ratelimit.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithRecorder journals every decision through rec. The controller does not
// close rec.
func WithRecorder(rec *journal.Recorder) Option {
	return func(c *Controller) {
		c.recorder = rec
	}
}

// WithTracer traces reloads with t.
func WithTracer(t *tracing.Tracer) Option {
	return func(c *Controller) {
		c.tracer = t
	}
}

// Controller answers admission requests with the limiters of the current
// configuration. It is safe for concurrent use.
type Controller struct {
	registry atomic.Pointer[ratelimit.Registry]

	logger   *slog.Logger
	metrics  *ratelimit.Metrics
	recorder *journal.Recorder
	tracer   *tracing.Tracer

	// mu serializes Reload and Close.
	mu     sync.Mutex
	closed bool
}

// NewController builds limiters for cfg.Limiters and starts token bucket
// refill for buckets without manual_refill.
func NewController(cfg *config.Config, opts ...Option) (*Controller, error) {
	c := &Controller{
		logger: slog.Default().With("component", "admission.controller"),
	}
	for _, opt := range opts {
		opt(c)
	}

	reg, err := c.build(cfg)
	if err != nil {
		return nil, err
	}
	c.registry.Store(reg)

	c.logger.Info("admission controller started", "kinds", reg.Kinds())
	return c, nil
}

// build creates and starts a registry for cfg. On failure nothing is left
// running.
func (c *Controller) build(cfg *config.Config) (*ratelimit.Registry, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if len(cfg.Limiters) == 0 {
		return nil, errors.New("no limiters configured")
	}

	limiters := make([]ratelimit.Limiter, 0, len(cfg.Limiters))
	var manual []bool
	for i, lc := range cfg.Limiters {
		kind, err := ratelimit.ParseKind(lc.Kind)
		if err != nil {
			return nil, fmt.Errorf("limiters[%d]: %w", i, err)
		}
		rate, err := lc.Rate()
		if err != nil {
			return nil, fmt.Errorf("limiters[%d]: %w", i, err)
		}

		opts := []ratelimit.Option{
			ratelimit.WithLogger(c.logger),
			ratelimit.WithMetrics(c.metrics),
		}
		if lc.LogCapacity > 0 {
			opts = append(opts, ratelimit.WithLogCapacity(lc.LogCapacity))
		}

		l, err := ratelimit.New(kind, rate, opts...)
		if err != nil {
			return nil, fmt.Errorf("limiters[%d]: %w", i, err)
		}
		limiters = append(limiters, l)
		manual = append(manual, lc.ManualRefill)
	}

	for i, l := range limiters {
		if tb, ok := l.(*ratelimit.TokenBucket); ok && !manual[i] {
			tb.Start()
		}
	}

	return ratelimit.NewRegistry(limiters...), nil
}

// TryAcquire asks the limiter for kind for permits. It returns an error
// wrapping ratelimit.ErrUnknownKind when no limiter of that kind is
// configured, and ErrClosed after Close. Rejection is not an error.
func (c *Controller) TryAcquire(kind ratelimit.Kind, permits int) (bool, error) {
	reg := c.registry.Load()
	if reg == nil {
		return false, ErrClosed
	}

	l, ok := reg.Get(kind)
	if !ok {
		return false, fmt.Errorf("%w: %q", ratelimit.ErrUnknownKind, string(kind))
	}

	allowed := l.TryAcquire(permits)
	if c.recorder != nil {
		c.recorder.Record(kind, permits, allowed)
	}

	c.logger.Debug("admission decision",
		"kind", kind,
		"permits", permits,
		"allowed", allowed,
	)
	return allowed, nil
}

// Limiter returns the current limiter for kind.
func (c *Controller) Limiter(kind ratelimit.Kind) (ratelimit.Limiter, bool) {
	reg := c.registry.Load()
	if reg == nil {
		return nil, false
	}
	return reg.Get(kind)
}

// Kinds returns the configured kinds in sorted order.
func (c *Controller) Kinds() []ratelimit.Kind {
	reg := c.registry.Load()
	if reg == nil {
		return nil
	}
	return reg.Kinds()
}

// Reload replaces all limiters with ones built from cfg. Limiter state is
// not carried over. If cfg cannot be built, the current limiters stay in
// place and the error is returned.
func (c *Controller) Reload(cfg *config.Config) (err error) {
	_, span := c.tracer.Start(context.Background(), "admission.reload")
	defer func() { tracing.End(span, err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	reg, err := c.build(cfg)
	if err != nil {
		return fmt.Errorf("failed to reload limiters: %w", err)
	}
	span.SetAttributes(attribute.Int("turnstile.limiters", reg.Len()))

	old := c.registry.Swap(reg)
	if old != nil {
		old.Close()
	}

	c.logger.Info("admission limiters reloaded", "kinds", reg.Kinds())
	return nil
}

// Close stops all limiter background work. Later TryAcquire calls return
// ErrClosed. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	if reg := c.registry.Swap(nil); reg != nil {
		reg.Close()
	}
	c.logger.Info("admission controller stopped")
}
