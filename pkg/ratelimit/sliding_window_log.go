package ratelimit

import (
	"sync"

	"mercator-hq/turnstile/pkg/logstore"
)

// SlidingWindowLog implements the sliding window log algorithm.
//
// Every request first records its permits as individual entries in the log
// store, each expiring Rate.Duration() later, and is then admitted if the
// number of live entries is within the quota. Recording happens whether or
// not the request is admitted, so rejected requests also occupy the log
// until their entries expire; the store's capacity bounds that growth.
//
// # Thread Safety
//
// The record and the count run under one mutex, so concurrent requests see
// each other's entries in a consistent order.
type SlidingWindowLog struct {
	rate  Rate
	store logstore.Store
	mu    sync.Mutex

	metrics *Metrics
}

// NewSlidingWindowLog creates a sliding window log limiter over store. The
// store's capacity must exceed the quota (commonly by one) so that an
// over-quota count is observable. It panics if rate is not a valid Rate,
// store is nil, or store reports a capacity of at most the quota. Use New to
// get an error instead.
//
// Example:
//
//	rate := MustRate(5, 3*time.Second)
//	store, _ := logstore.NewMemoryStore(rate.Permits()+1, rate.Duration())
//	limiter := NewSlidingWindowLog(rate, store)
func NewSlidingWindowLog(rate Rate, store logstore.Store, opts ...Option) *SlidingWindowLog {
	rate.mustBeValid("sliding window log")
	if store == nil {
		panic("ratelimit: sliding window log requires a log store")
	}
	if err := checkLogCapacity(store, rate); err != nil {
		panic("ratelimit: " + err.Error())
	}
	o := newOptions(opts)

	return &SlidingWindowLog{
		rate:    rate,
		store:   store,
		metrics: o.metrics,
	}
}

// TryAcquire records permits in the log and admits them if the live log
// size stays within the quota.
func (sw *SlidingWindowLog) TryAcquire(permits int) bool {
	if !sw.rate.admissible(permits) {
		sw.metrics.RecordDecision(KindSlidingWindowLog, permits, false)
		return false
	}

	count := sw.record(permits)

	allowed := count <= sw.rate.permits
	sw.metrics.RecordDecision(KindSlidingWindowLog, permits, allowed)
	return allowed
}

// record logs permits and returns the live count that includes them.
func (sw *SlidingWindowLog) record(permits int) int {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.store.Store(permits, sw.rate.duration)
	count := sw.store.Count()
	sw.metrics.setLogEntries(count)
	return count
}

// Kind implements Limiter.
func (sw *SlidingWindowLog) Kind() Kind {
	return KindSlidingWindowLog
}

// Count returns the number of live log entries.
func (sw *SlidingWindowLog) Count() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.store.Count()
}

// Rate returns the limiter's rate.
func (sw *SlidingWindowLog) Rate() Rate {
	return sw.rate
}

// Close releases the entries held by the log store if the store supports
// it. The limiter keeps answering TryAcquire with an empty log.
func (sw *SlidingWindowLog) Close() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if c, ok := sw.store.(interface{ Close() }); ok {
		c.Close()
	}
}
