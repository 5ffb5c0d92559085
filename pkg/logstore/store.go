// Package logstore provides the bounded, time-expiring grant log used by the
// sliding window log rate limiter.
//
// Each grant is recorded as an entry keyed by a fresh random token. Entries
// expire a fixed time after insertion and the store reports how many are
// still live. When the store is full, the least recently inserted entries
// are evicted first. Expired entries are not swept in the background; they
// stay in the cache, uncounted, until newer entries evict them.
//
// # Thread Safety
//
// MemoryStore is safe for concurrent use. Callers that need Store and Count
// to happen atomically with respect to each other must serialize them
// themselves.
package logstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrInvalidStore is returned when a store is configured with a non-positive
// capacity or time-to-live.
var ErrInvalidStore = errors.New("invalid log store configuration")

// Store records timestamped grants and counts the live ones.
type Store interface {
	// Store inserts n fresh entries, each expiring ttl after now.
	Store(n int, ttl time.Duration)

	// Count returns the number of entries that have not expired.
	Count() int
}

// MemoryStore is an in-memory Store backed by a capacity-bounded LRU cache
// whose values are entry deadlines. It starts no goroutines.
//
// The effective lifetime of an entry is the shorter of the ttl passed to
// Store and the ttl the store was created with.
type MemoryStore struct {
	cache    *lru.Cache[string, time.Time]
	capacity int
	ttl      time.Duration
}

// NewMemoryStore creates a store holding at most capacity entries, each
// living at most ttl. A common capacity is the permit quota plus one, so the
// count can exceed the quota and the limiter can observe the overflow.
func NewMemoryStore(capacity int, ttl time.Duration) (*MemoryStore, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidStore, capacity)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: ttl must be positive, got %v", ErrInvalidStore, ttl)
	}

	cache, err := lru.New[string, time.Time](capacity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStore, err)
	}

	return &MemoryStore{
		cache:    cache,
		capacity: capacity,
		ttl:      ttl,
	}, nil
}

// Store inserts n entries expiring ttl from now. A non-positive ttl uses the
// store's own ttl.
func (s *MemoryStore) Store(n int, ttl time.Duration) {
	if ttl <= 0 || ttl > s.ttl {
		ttl = s.ttl
	}

	deadline := time.Now().Add(ttl)
	for i := 0; i < n; i++ {
		s.cache.Add(uuid.NewString(), deadline)
	}
}

// Count returns the number of live entries. Entries past their deadline are
// never counted, even while they still occupy the cache.
func (s *MemoryStore) Count() int {
	now := time.Now()

	live := 0
	for _, deadline := range s.cache.Values() {
		if now.Before(deadline) {
			live++
		}
	}
	return live
}

// Len returns the number of physically held entries, which may include
// expired entries awaiting eviction.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

// Capacity returns the maximum number of entries the store holds.
func (s *MemoryStore) Capacity() int {
	return s.capacity
}

// TTL returns the maximum lifetime of an entry.
func (s *MemoryStore) TTL() time.Duration {
	return s.ttl
}

// Purge removes every entry.
func (s *MemoryStore) Purge() {
	s.cache.Purge()
}

// Close releases the held entries. The store stays usable afterwards.
func (s *MemoryStore) Close() {
	s.cache.Purge()
}
