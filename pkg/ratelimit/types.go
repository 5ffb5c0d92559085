package ratelimit

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidRate is returned when a Rate is built from a non-positive
	// permit count or duration.
	ErrInvalidRate = errors.New("invalid rate")

	// ErrUnknownKind is returned for a limiter kind that is not one of the
	// supported algorithms.
	ErrUnknownKind = errors.New("unknown limiter kind")

	// ErrLogCapacity is returned for a sliding window log store that cannot
	// hold more entries than the quota. Such a log never reports an
	// over-quota count, so the limiter would admit everything.
	ErrLogCapacity = errors.New("log capacity must exceed permits")
)

// Kind identifies a rate limiting algorithm.
type Kind string

const (
	// KindTokenBucket selects the token bucket algorithm.
	KindTokenBucket Kind = "token_bucket"
	// KindFixedWindow selects the fixed window counter algorithm.
	KindFixedWindow Kind = "fixed_window"
	// KindSlidingWindowLog selects the sliding window log algorithm.
	KindSlidingWindowLog Kind = "sliding_window_log"
)

// AllKinds returns every supported kind.
func AllKinds() []Kind {
	return []Kind{KindTokenBucket, KindFixedWindow, KindSlidingWindowLog}
}

// ParseKind converts s into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindTokenBucket, KindFixedWindow, KindSlidingWindowLog:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// Limiter admits or rejects permit requests.
type Limiter interface {
	// TryAcquire atomically reserves permits and returns true, or returns
	// false and leaves the limiter unchanged. Requests for more permits than
	// the configured quota, or for fewer than one, always return false.
	TryAcquire(permits int) bool

	// Kind reports the algorithm implemented by the limiter.
	Kind() Kind
}

// Rate is a permit quota over a window duration. Rates are immutable and safe
// to share; build them with NewRate.
type Rate struct {
	permits  int
	duration time.Duration
}

// NewRate returns a Rate of permits per duration. Both must be positive.
func NewRate(permits int, duration time.Duration) (Rate, error) {
	if permits <= 0 {
		return Rate{}, fmt.Errorf("%w: permits must be positive, got %d", ErrInvalidRate, permits)
	}
	if duration <= 0 {
		return Rate{}, fmt.Errorf("%w: duration must be positive, got %v", ErrInvalidRate, duration)
	}

	return Rate{permits: permits, duration: duration}, nil
}

// MustRate is like NewRate but panics on invalid input.
func MustRate(permits int, duration time.Duration) Rate {
	r, err := NewRate(permits, duration)
	if err != nil {
		panic(err)
	}
	return r
}

// Permits returns the quota.
func (r Rate) Permits() int {
	return r.permits
}

// Duration returns the window length.
func (r Rate) Duration() time.Duration {
	return r.duration
}

// IsZero reports whether r is the zero Rate, which no limiter accepts.
func (r Rate) IsZero() bool {
	return r.permits == 0 && r.duration == 0
}

// String implements fmt.Stringer.
func (r Rate) String() string {
	return fmt.Sprintf("%d per %s", r.permits, r.duration)
}

// admissible reports whether a request for permits can ever be admitted
// under r.
func (r Rate) admissible(permits int) bool {
	return permits > 0 && permits <= r.permits
}

// mustBeValid panics if r was not built through NewRate.
func (r Rate) mustBeValid(algorithm string) {
	if r.permits <= 0 || r.duration <= 0 {
		panic(fmt.Sprintf("ratelimit: %s requires a rate built with NewRate, got %q", algorithm, r))
	}
}
