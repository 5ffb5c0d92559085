// Package ratelimit provides in-process admission control.
//
// # Overview
//
// A Limiter decides, for each request of n permits, whether to admit it so
// that a protected resource never exceeds a configured Rate. Three
// algorithms are provided:
//
//   - Token Bucket: a bucket of Rate.Permits() tokens refilled in full once
//     per Rate.Duration() by a background scheduler
//   - Fixed Window: a counter reset when a request observes that the current
//     window has elapsed
//   - Sliding Window Log: every request is logged in a bounded, expiring
//     log store and admitted while the live log size stays within quota
//
// # Usage
//
//	rate, err := ratelimit.NewRate(100, time.Second)
//	if err != nil {
//	    return err
//	}
//
//	bucket := ratelimit.NewTokenBucket(rate)
//	bucket.Start()
//	defer bucket.Stop()
//
//	if bucket.TryAcquire(1) {
//	    // admitted
//	}
//
// Limiters can also be built by kind and looked up through a Registry:
//
//	limiter, err := ratelimit.New(ratelimit.KindSlidingWindowLog, rate)
//	registry := ratelimit.NewRegistry(limiter)
//	defer registry.Close()
//
//	if l, ok := registry.Get(ratelimit.KindSlidingWindowLog); ok {
//	    l.TryAcquire(1)
//	}
//
// # Fixed Window Boundary Bursts
//
// The fixed window algorithm can admit close to twice the quota within a
// short span around a window edge: a full quota at the end of one window
// followed by a full quota right after the reset. This is inherent to the
// algorithm.
//
// # Sliding Window Log Capacity
//
// The sliding window log records a request's permits before checking the
// live count, so rejected requests also occupy log entries until they
// expire. The log store's capacity bounds this growth.
//
// # Thread Safety
//
// All limiters are safe for concurrent use. Each limiter serializes its
// decision and the state change that enacts it under a single mutex, so
// concurrent callers never double-spend capacity.
package ratelimit
