package ratelimit

import (
	"fmt"

	"mercator-hq/turnstile/pkg/logstore"
)

// New builds a limiter of the given kind.
//
// For KindSlidingWindowLog, New uses the store passed with WithLogStore or
// creates an in-memory store sized by WithLogCapacity (default: quota + 1)
// with the rate's duration as time-to-live. A store whose capacity does not
// exceed the quota is rejected with ErrLogCapacity. A token bucket is returned
// stopped; call Start on it to begin refill.
func New(kind Kind, rate Rate, opts ...Option) (Limiter, error) {
	if rate.permits <= 0 || rate.duration <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRate, rate)
	}

	switch kind {
	case KindTokenBucket:
		return NewTokenBucket(rate, opts...), nil

	case KindFixedWindow:
		return NewFixedWindow(rate, opts...), nil

	case KindSlidingWindowLog:
		o := newOptions(opts)
		store := o.store
		if store != nil {
			if err := checkLogCapacity(store, rate); err != nil {
				return nil, err
			}
		} else {
			capacity := o.logCapacity
			if capacity <= 0 {
				capacity = rate.permits + 1
			}
			if capacity <= rate.permits {
				return nil, fmt.Errorf("%w: capacity %d, permits %d", ErrLogCapacity, capacity, rate.permits)
			}
			mem, err := logstore.NewMemoryStore(capacity, rate.duration)
			if err != nil {
				return nil, fmt.Errorf("failed to create log store: %w", err)
			}
			store = mem
		}
		return NewSlidingWindowLog(rate, store, opts...), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
	}
}

// capacityReporter is implemented by stores with a fixed entry limit, such as
// logstore.MemoryStore.
type capacityReporter interface {
	Capacity() int
}

// checkLogCapacity returns ErrLogCapacity if store reports a capacity that
// does not exceed the quota of rate. Stores without a known capacity pass.
func checkLogCapacity(store logstore.Store, rate Rate) error {
	c, ok := store.(capacityReporter)
	if !ok || c.Capacity() > rate.permits {
		return nil
	}
	return fmt.Errorf("%w: capacity %d, permits %d", ErrLogCapacity, c.Capacity(), rate.permits)
}
