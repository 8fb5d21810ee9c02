package governance

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("not found")

// StorageError represents a failure of the storage backend. It is fatal for
// the current cycle.
type StorageError struct {
	Backend   string // "sqlite3", "sqlite", "pgx", "memory"
	Operation string // "append_event", "list_observations", ...
	Cause     error
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

// ContractError reports input that violates the contract of an operation:
// an event kind outside the enumeration, a malformed review request, or
// out-of-range reference data. Nothing is written when it is returned.
type ContractError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ContractError) Error() string {
	if e.Field == "" {
		return "contract violation: " + e.Message
	}
	return fmt.Sprintf("contract violation [%s]: %s", e.Field, e.Message)
}

// IsContractError reports whether err wraps a ContractError.
func IsContractError(err error) bool {
	var ce *ContractError
	return errors.As(err, &ce)
}
