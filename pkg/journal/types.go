package journal

import (
	"context"
	"time"

	"github.com/google/uuid"

	"mercator-hq/turnstile/pkg/ratelimit"
)

// Record is one admission decision.
type Record struct {
	// ID uniquely identifies the record.
	ID string

	// Kind is the limiter that decided.
	Kind ratelimit.Kind

	// Permits is the number of permits requested.
	Permits int

	// Allowed is true if the request was admitted.
	Allowed bool

	// DecidedAt is when the decision was made.
	DecidedAt time.Time
}

// NewRecord creates a record for a decision made now.
func NewRecord(kind ratelimit.Kind, permits int, allowed bool) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Kind:      kind,
		Permits:   permits,
		Allowed:   allowed,
		DecidedAt: time.Now().UTC(),
	}
}

// KindSummary aggregates decisions for one limiter kind.
type KindSummary struct {
	Kind            ratelimit.Kind `json:"kind"`
	Admitted        int64          `json:"admitted"`
	Rejected        int64          `json:"rejected"`
	AdmittedPermits int64          `json:"admitted_permits"`
	RejectedPermits int64          `json:"rejected_permits"`
}

// Total returns the number of decisions in s.
func (s KindSummary) Total() int64 {
	return s.Admitted + s.Rejected
}

// add folds one record into s.
func (s *KindSummary) add(r *Record) {
	if r.Allowed {
		s.Admitted++
		s.AdmittedPermits += int64(r.Permits)
	} else {
		s.Rejected++
		s.RejectedPermits += int64(r.Permits)
	}
}

// Storage persists decision records.
type Storage interface {
	// Store persists a record.
	Store(ctx context.Context, record *Record) error

	// Summarize aggregates records decided at or after since, one entry per
	// kind that has records, ordered by kind.
	Summarize(ctx context.Context, since time.Time) ([]KindSummary, error)

	// Prune deletes records decided before olderThan and returns how many
	// were deleted.
	Prune(ctx context.Context, olderThan time.Time) (int64, error)

	// Close releases the storage's resources.
	Close() error
}
