package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/turnstile/pkg/logstore"
)

func newTestLog(t *testing.T, permits int, duration time.Duration) *SlidingWindowLog {
	t.Helper()

	rate := MustRate(permits, duration)
	store, err := logstore.NewMemoryStore(permits+1, duration)
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	return NewSlidingWindowLog(rate, store)
}

// ============================================================================
// Sliding Window Log Tests
// ============================================================================

func TestSlidingWindowLog_QuotaWithinWindow(t *testing.T) {
	sw := newTestLog(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if !sw.TryAcquire(1) {
			t.Fatalf("request %d rejected, want admitted", i+1)
		}
	}
	if sw.TryAcquire(1) {
		t.Error("fourth request admitted, want rejected")
	}
}

func TestSlidingWindowLog_EntriesExpire(t *testing.T) {
	sw := newTestLog(t, 3, 100*time.Millisecond)

	sw.TryAcquire(3)
	if sw.TryAcquire(1) {
		t.Fatal("request over quota admitted")
	}

	time.Sleep(150 * time.Millisecond)

	if got := sw.Count(); got != 0 {
		t.Errorf("Count() after expiry = %d, want 0", got)
	}
	if !sw.TryAcquire(1) {
		t.Error("request after entries expired rejected, want admitted")
	}
}

func TestSlidingWindowLog_FullQuotaAfterSaturatedLogExpires(t *testing.T) {
	sw := newTestLog(t, 3, 100*time.Millisecond)

	if !sw.TryAcquire(3) {
		t.Fatal("TryAcquire(3) on empty log = false, want true")
	}
	// Fills the log to capacity with a rejected entry
	if sw.TryAcquire(3) {
		t.Fatal("TryAcquire(3) over quota = true, want false")
	}

	time.Sleep(150 * time.Millisecond)

	if !sw.TryAcquire(3) {
		t.Error("TryAcquire(3) after a full window = false, want true")
	}
	if sw.TryAcquire(1) {
		t.Error("TryAcquire(1) after quota re-acquired = true, want false")
	}
}

func TestSlidingWindowLog_MinimumCapacityStillRejects(t *testing.T) {
	const quota = 5
	sw := newTestLog(t, quota, time.Minute)

	admitted := 0
	for i := 0; i < 100; i++ {
		if sw.TryAcquire(1) {
			admitted++
		}
	}
	if admitted != quota {
		t.Errorf("admitted %d of 100 requests within one window, want %d", admitted, quota)
	}
}

func TestSlidingWindowLog_Close(t *testing.T) {
	rate := MustRate(2, time.Minute)
	store, err := logstore.NewMemoryStore(3, time.Minute)
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	sw := NewSlidingWindowLog(rate, store)

	sw.TryAcquire(2)
	sw.Close()

	if got := store.Len(); got != 0 {
		t.Errorf("store.Len() after Close() = %d, want 0", got)
	}
	if !sw.TryAcquire(1) {
		t.Error("TryAcquire(1) after Close() = false, want true")
	}
}

func TestSlidingWindowLog_RejectedRequestsOccupyLog(t *testing.T) {
	sw := newTestLog(t, 3, time.Minute)

	if !sw.TryAcquire(2) {
		t.Fatal("TryAcquire(2) = false, want true")
	}

	// Recorded before the check, so the rejected permits stay in the log
	if sw.TryAcquire(2) {
		t.Fatal("TryAcquire(2) with 2 logged = true, want false")
	}
	if got := sw.Count(); got != 4 {
		t.Errorf("Count() = %d, want 4 (capacity)", got)
	}

	// The log stays saturated, so even a single permit is rejected
	if sw.TryAcquire(1) {
		t.Error("TryAcquire(1) on saturated log = true, want false")
	}
}

func TestSlidingWindowLog_InadmissiblePermitsNotLogged(t *testing.T) {
	sw := newTestLog(t, 3, time.Minute)

	for _, permits := range []int{0, -1, 4} {
		if sw.TryAcquire(permits) {
			t.Errorf("TryAcquire(%d) = true, want false", permits)
		}
	}
	if got := sw.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}

func TestSlidingWindowLog_Concurrent(t *testing.T) {
	const quota = 10
	sw := newTestLog(t, quota, time.Minute)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sw.TryAcquire(1) {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := admitted.Load(); got != quota {
		t.Errorf("admitted %d requests, want exactly %d", got, quota)
	}
}

func TestNewSlidingWindowLog_PanicsOnNilStore(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewSlidingWindowLog(rate, nil) did not panic")
		}
	}()
	NewSlidingWindowLog(MustRate(1, time.Second), nil)
}

func TestNewSlidingWindowLog_PanicsOnCapacityAtQuota(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
	}{
		{"equal to quota", 5},
		{"below quota", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := logstore.NewMemoryStore(tt.capacity, time.Minute)
			if err != nil {
				t.Fatalf("NewMemoryStore() error = %v", err)
			}

			defer func() {
				if recover() == nil {
					t.Errorf("NewSlidingWindowLog() with capacity %d did not panic", tt.capacity)
				}
			}()
			NewSlidingWindowLog(MustRate(5, time.Minute), store)
		})
	}
}
