package ratelimit

import (
	"sync"
	"time"
)

// FixedWindow implements the fixed window counter algorithm.
//
// The first window opens when the limiter is created. A request that
// observes more than Rate.Duration() elapsed since the window opened resets
// the counter and opens a new window at that instant before being evaluated.
// Bursts straddling a window edge can admit close to twice the quota.
type FixedWindow struct {
	rate        Rate
	counter     int
	windowStart time.Time
	mu          sync.Mutex

	now     func() time.Time
	metrics *Metrics
}

// NewFixedWindow creates a fixed window limiter whose first window starts
// now. It panics if rate is not a valid Rate.
func NewFixedWindow(rate Rate, opts ...Option) *FixedWindow {
	rate.mustBeValid("fixed window")
	o := newOptions(opts)

	return &FixedWindow{
		rate:        rate,
		windowStart: o.now(),
		now:         o.now,
		metrics:     o.metrics,
	}
}

// TryAcquire admits permits if the current window has room for them.
func (fw *FixedWindow) TryAcquire(permits int) bool {
	if !fw.rate.admissible(permits) {
		fw.metrics.RecordDecision(KindFixedWindow, permits, false)
		return false
	}

	allowed := fw.take(permits)
	fw.metrics.RecordDecision(KindFixedWindow, permits, allowed)
	return allowed
}

// take performs the window reset check and the counter update as one
// critical section.
func (fw *FixedWindow) take(permits int) bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	now := fw.now()
	if now.Sub(fw.windowStart) > fw.rate.duration {
		fw.counter = 0
		fw.windowStart = now
	}

	if fw.counter+permits > fw.rate.permits {
		return false
	}
	fw.counter += permits
	return true
}

// Kind implements Limiter.
func (fw *FixedWindow) Kind() Kind {
	return KindFixedWindow
}

// Remaining returns the permits left in the current window as of the last
// request. It does not open a new window.
func (fw *FixedWindow) Remaining() int {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.rate.permits - fw.counter
}

// WindowStart returns when the current window opened.
func (fw *FixedWindow) WindowStart() time.Time {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.windowStart
}

// Rate returns the limiter's rate.
func (fw *FixedWindow) Rate() Rate {
	return fw.rate
}
