// Package admission turns a configuration into a running set of limiters.
//
// A Controller builds one limiter per configured kind, starts token bucket
// refill unless the configuration asks for manual refill, and answers
// TryAcquire by kind. Reload replaces every limiter at once: the new set is
// swapped in atomically and the old set's background work is stopped.
// Callers that fetched a limiter before a reload keep a working, but no
// longer refilled, limiter.
//
// When a journal recorder is attached, every decision is queued for the
// decision journal without blocking the caller.
package admission
