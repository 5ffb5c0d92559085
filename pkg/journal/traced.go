package journal

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"mercator-hq/turnstile/pkg/telemetry/tracing"
)

// tracedStorage wraps a Storage with one span per operation.
type tracedStorage struct {
	Storage
	tracer *tracing.Tracer
}

// WithTracing returns s with its operations traced by t. If t is not
// enabled s is returned unchanged.
func WithTracing(s Storage, t *tracing.Tracer) Storage {
	if !t.Enabled() {
		return s
	}
	return &tracedStorage{Storage: s, tracer: t}
}

func (s *tracedStorage) Store(ctx context.Context, record *Record) (err error) {
	ctx, span := s.tracer.Start(ctx, "journal.store")
	defer func() { tracing.End(span, err) }()

	span.SetAttributes(
		tracing.Kind(string(record.Kind)),
		attribute.Int("turnstile.permits", record.Permits),
		attribute.Bool("turnstile.allowed", record.Allowed),
	)
	return s.Storage.Store(ctx, record)
}

func (s *tracedStorage) Summarize(ctx context.Context, since time.Time) (out []KindSummary, err error) {
	ctx, span := s.tracer.Start(ctx, "journal.summarize")
	defer func() { tracing.End(span, err) }()

	out, err = s.Storage.Summarize(ctx, since)
	span.SetAttributes(attribute.Int("turnstile.journal.kinds", len(out)))
	return out, err
}

func (s *tracedStorage) Prune(ctx context.Context, olderThan time.Time) (n int64, err error) {
	ctx, span := s.tracer.Start(ctx, "journal.prune")
	defer func() { tracing.End(span, err) }()

	n, err = s.Storage.Prune(ctx, olderThan)
	span.SetAttributes(attribute.Int64("turnstile.journal.deleted", n))
	return n, err
}
