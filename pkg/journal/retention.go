package journal

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"

	"mercator-hq/turnstile/pkg/config"
	"mercator-hq/turnstile/pkg/telemetry/tracing"
)

// Retention prunes records older than a maximum age on a cron schedule.
type Retention struct {
	storage Storage
	config  config.RetentionConfig
	now     func() time.Time
	tracer  *tracing.Tracer

	mu      sync.Mutex
	cron    *cron.Cron
	stopCh  chan struct{}
	logger  *slog.Logger
	running bool
}

// NewRetention creates a retention scheduler for storage. Scheduled runs
// are traced by tracer, which may be nil.
func NewRetention(storage Storage, cfg config.RetentionConfig, tracer *tracing.Tracer) *Retention {
	return &Retention{
		storage: storage,
		config:  cfg,
		now:     time.Now,
		tracer:  tracer,
		logger:  slog.Default().With("component", "journal.retention"),
	}
}

// PruneNow deletes records older than the configured maximum age. With no
// maximum age it deletes nothing.
func (r *Retention) PruneNow(ctx context.Context) (int64, error) {
	if r.config.MaxAge <= 0 {
		return 0, nil
	}
	return r.storage.Prune(ctx, r.now().Add(-r.config.MaxAge))
}

// Start schedules pruning. It does nothing when no maximum age or schedule
// is configured. Cancelling ctx stops the scheduler.
//
// Common cron expressions:
//   - "0 3 * * *"    - Daily at 3 AM
//   - "0 */6 * * *"  - Every 6 hours
//   - "@every 1h"    - Hourly from start
func (r *Retention) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return nil
	}
	if r.config.MaxAge <= 0 || r.config.Schedule == "" {
		r.logger.Info("journal retention not configured, skipping scheduler")
		return nil
	}

	schedule, err := cron.ParseStandard(r.config.Schedule)
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", r.config.Schedule, err)
	}

	r.cron = cron.New()
	r.cron.Schedule(schedule, cron.FuncJob(func() { r.runPruning(ctx) }))
	r.cron.Start()
	r.running = true
	stopCh := make(chan struct{})
	r.stopCh = stopCh

	r.logger.Info("journal retention started",
		"schedule", r.config.Schedule,
		"max_age", r.config.MaxAge,
	)

	go func() {
		select {
		case <-ctx.Done():
			r.Stop()
		case <-stopCh:
		}
	}()

	return nil
}

func (r *Retention) runPruning(ctx context.Context) {
	ctx, span := r.tracer.Start(ctx, "journal.retention.run")
	deleted, err := r.PruneNow(ctx)
	span.SetAttributes(
		attribute.Int64("turnstile.journal.deleted", deleted),
		attribute.String("turnstile.journal.max_age", r.config.MaxAge.String()),
	)
	tracing.End(span, err)

	if err != nil {
		r.logger.Error("scheduled pruning failed", "error", err)
		return
	}
	if deleted > 0 {
		r.logger.Info("scheduled pruning completed", "deleted_count", deleted)
	} else {
		r.logger.Debug("scheduled pruning completed, no records deleted")
	}
}

// Stop stops the scheduler and waits for a running prune to finish.
func (r *Retention) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil && r.running {
		<-r.cron.Stop().Done()
		close(r.stopCh)
		r.running = false
		r.logger.Info("journal retention stopped")
	}
}

// IsRunning reports whether pruning is scheduled.
func (r *Retention) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// NextRun returns the next scheduled prune, or nil if none is scheduled.
func (r *Retention) NextRun() *time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron == nil || !r.running {
		return nil
	}
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
