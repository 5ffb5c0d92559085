package ratelimit

import "slices"

// Registry indexes limiters by Kind. It owns the limiters it holds: Close
// stops any background work they run.
//
// A Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	limiters map[Kind]Limiter
}

// stopper is implemented by limiters that run background work.
type stopper interface {
	Stop()
}

// closer is implemented by limiters that hold releasable resources.
type closer interface {
	Close()
}

// NewRegistry indexes limiters by their Kind. If two limiters report the
// same kind, the later one wins. Nil limiters are skipped. The registry does
// not check that every kind is present.
func NewRegistry(limiters ...Limiter) *Registry {
	r := &Registry{
		limiters: make(map[Kind]Limiter, len(limiters)),
	}
	for _, l := range limiters {
		if l == nil {
			continue
		}
		r.limiters[l.Kind()] = l
	}
	return r
}

// Get returns the limiter registered for kind. The boolean is false when no
// limiter of that kind was registered.
func (r *Registry) Get(kind Kind) (Limiter, bool) {
	l, ok := r.limiters[kind]
	return l, ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.limiters))
	for k := range r.limiters {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Len returns the number of registered limiters.
func (r *Registry) Len() int {
	return len(r.limiters)
}

// Close stops background work, such as token bucket refill, and releases
// log store entries of every registered limiter. The limiters keep
// answering TryAcquire.
func (r *Registry) Close() {
	for _, l := range r.limiters {
		if s, ok := l.(stopper); ok {
			s.Stop()
		}
		if c, ok := l.(closer); ok {
			c.Close()
		}
	}
}
