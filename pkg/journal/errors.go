package journal

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when using a storage or recorder after Close.
	ErrClosed = errors.New("journal closed")

	// ErrUnknownDriver is returned by Open for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown journal driver")
)

// StorageError represents an error from a storage backend.
type StorageError struct {
	Backend   string // Storage backend ("memory", "sqlite", "sqlite3")
	Operation string // Operation that failed ("store", "summarize", "prune", ...)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}
