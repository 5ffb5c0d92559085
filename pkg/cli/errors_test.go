package cli

import (
	"errors"
	"fmt"
	"testing"
)

func TestUsageError(t *testing.T) {
	err := NewUsageError("workers", "must be positive")

	want := "invalid --workers: must be positive"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCommandError(t *testing.T) {
	underlying := errors.New("underlying error")
	err := NewCommandError("simulate", underlying)

	want := "command simulate failed: underlying error"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is() did not find the underlying error")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "plain", err: errors.New("boom"), want: ExitFailure},
		{name: "usage", err: NewUsageError("kind", "unknown"), want: ExitUsage},
		{name: "wrapped usage", err: fmt.Errorf("simulate: %w", NewUsageError("kind", "unknown")), want: ExitUsage},
		{name: "command", err: NewCommandError("validate", errors.New("bad")), want: ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
