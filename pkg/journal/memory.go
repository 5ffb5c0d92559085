package journal

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStorage keeps records in memory. Records are lost when the process
// exits.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []Record
	closed  bool
}

// NewMemoryStorage creates an empty in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Store appends a copy of record.
func (s *MemoryStorage) Store(ctx context.Context, record *Record) error {
	if err := ctx.Err(); err != nil {
		return NewStorageError("memory", "store", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageError("memory", "store", ErrClosed)
	}
	s.records = append(s.records, *record)
	return nil
}

// Summarize aggregates records decided at or after since.
func (s *MemoryStorage) Summarize(ctx context.Context, since time.Time) ([]KindSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewStorageError("memory", "summarize", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageError("memory", "summarize", ErrClosed)
	}

	byKind := make(map[string]*KindSummary)
	for i := range s.records {
		r := &s.records[i]
		if r.DecidedAt.Before(since) {
			continue
		}
		sum, ok := byKind[string(r.Kind)]
		if !ok {
			sum = &KindSummary{Kind: r.Kind}
			byKind[string(r.Kind)] = sum
		}
		sum.add(r)
	}

	out := make([]KindSummary, 0, len(byKind))
	for _, sum := range byKind {
		out = append(out, *sum)
	}
	slices.SortFunc(out, func(a, b KindSummary) int {
		return strings.Compare(string(a.Kind), string(b.Kind))
	})
	return out, nil
}

// Prune deletes records decided before olderThan.
func (s *MemoryStorage) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, NewStorageError("memory", "prune", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, NewStorageError("memory", "prune", ErrClosed)
	}

	before := len(s.records)
	s.records = slices.DeleteFunc(s.records, func(r Record) bool {
		return r.DecidedAt.Before(olderThan)
	})
	return int64(before - len(s.records)), nil
}

// Len returns the number of stored records.
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close discards all records. Later calls fail with ErrClosed.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.records = nil
	return nil
}
