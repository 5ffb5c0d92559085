package ratelimit

import (
	"log/slog"
	"sync"

	"mercator-hq/turnstile/pkg/scheduler"
)

// TokenBucket implements the token bucket rate limiting algorithm.
//
// The bucket holds up to Rate.Permits() tokens and starts full. Each request
// consumes tokens; when not enough remain the request is rejected. Once
// Start is called, a background scheduler adds Rate.Permits() tokens every
// Rate.Duration(), saturating at capacity.
//
// # Algorithm
//
//  1. Lock the bucket
//  2. If available >= permits: subtract and admit
//  3. Otherwise reject without changing state
//
// # Thread Safety
//
// TokenBucket is thread-safe. Callers and the refill goroutine share one
// mutex, so available never exceeds capacity or drops below zero.
type TokenBucket struct {
	rate      Rate
	available int
	mu        sync.Mutex

	scheduler *scheduler.Scheduler
	metrics   *Metrics
	logger    *slog.Logger
}

// NewTokenBucket creates a full token bucket. Refill does not begin until
// Start is called. NewTokenBucket panics if rate is not a valid Rate.
//
// Example:
//
//	bucket := NewTokenBucket(MustRate(3, 5*time.Second))
//	bucket.Start()
//	defer bucket.Stop()
func NewTokenBucket(rate Rate, opts ...Option) *TokenBucket {
	rate.mustBeValid("token bucket")
	o := newOptions(opts)

	logger := o.logger.With("component", "ratelimit.token_bucket")
	tb := &TokenBucket{
		rate:      rate,
		available: rate.permits,
		scheduler: scheduler.New(rate.duration, logger),
		metrics:   o.metrics,
		logger:    logger,
	}
	tb.metrics.setAvailable(tb.available)

	return tb
}

// TryAcquire consumes permits if that many are available.
func (tb *TokenBucket) TryAcquire(permits int) bool {
	if !tb.rate.admissible(permits) {
		tb.metrics.RecordDecision(KindTokenBucket, permits, false)
		return false
	}

	allowed := tb.take(permits)

	tb.metrics.RecordDecision(KindTokenBucket, permits, allowed)
	return allowed
}

// take consumes permits if available. The gauge is published under the lock
// so it never lags a concurrent refill.
func (tb *TokenBucket) take(permits int) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if tb.available < permits {
		return false
	}
	tb.available -= permits
	tb.metrics.setAvailable(tb.available)
	return true
}

// Kind implements Limiter.
func (tb *TokenBucket) Kind() Kind {
	return KindTokenBucket
}

// Start begins periodic refill. It returns false if refill is already
// running; a bucket never runs two refill tasks.
func (tb *TokenBucket) Start() bool {
	started := tb.scheduler.Start(tb.refill)
	if started {
		tb.logger.Info("token bucket refill started",
			"permits", tb.rate.permits,
			"interval", tb.rate.duration,
		)
	}
	return started
}

// Stop halts future refills and waits for a refill in progress to finish.
// Tokens already in the bucket remain available.
func (tb *TokenBucket) Stop() {
	if !tb.scheduler.IsRunning() {
		return
	}
	<-tb.scheduler.Stop().Done()
	tb.logger.Info("token bucket refill stopped")
}

// Running reports whether refill is active.
func (tb *TokenBucket) Running() bool {
	return tb.scheduler.IsRunning()
}

// Available returns the number of tokens currently in the bucket.
func (tb *TokenBucket) Available() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.available
}

// Rate returns the bucket's rate.
func (tb *TokenBucket) Rate() Rate {
	return tb.rate
}

// refill adds a full quota of tokens, saturating at capacity. Since the
// bucket never holds a negative count, adding a quota always saturates.
func (tb *TokenBucket) refill() {
	tb.mu.Lock()
	tb.available = tb.rate.permits
	tb.metrics.recordRefill(tb.available)
	tb.mu.Unlock()

	tb.logger.Debug("token bucket refilled", "available", tb.rate.permits)
}
