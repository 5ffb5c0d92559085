package ratelimit

import (
	"errors"
	"testing"
	"time"
)

func TestNewRate(t *testing.T) {
	tests := []struct {
		name     string
		permits  int
		duration time.Duration
		wantErr  bool
	}{
		{"valid", 3, time.Second, false},
		{"sub-second", 1, 10 * time.Millisecond, false},
		{"zero permits", 0, time.Second, true},
		{"negative permits", -1, time.Second, true},
		{"zero duration", 3, 0, true},
		{"negative duration", 3, -time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRate(tt.permits, tt.duration)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRate) {
					t.Errorf("NewRate() error = %v, want ErrInvalidRate", err)
				}
				if !r.IsZero() {
					t.Errorf("NewRate() returned non-zero rate %v on error", r)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRate() error = %v", err)
			}
			if r.Permits() != tt.permits || r.Duration() != tt.duration {
				t.Errorf("NewRate() = %v, want %d per %v", r, tt.permits, tt.duration)
			}
		})
	}
}

func TestMustRate_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustRate(0, time.Second) did not panic")
		}
	}()
	MustRate(0, time.Second)
}

func TestRate_String(t *testing.T) {
	if got := MustRate(5, 3*time.Second).String(); got != "5 per 3s" {
		t.Errorf("String() = %q, want %q", got, "5 per 3s")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range AllKinds() {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Errorf("ParseKind(%q) error = %v", k, err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %q", k, got)
		}
	}

	if _, err := ParseKind("TokenBucket"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(TokenBucket) error = %v, want ErrUnknownKind", err)
	}
}
