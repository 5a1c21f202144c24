package notes

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation targets an id that is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned when a category or tag fails validation.
	ErrInvalid = errors.New("invalid input")
	// ErrPersistence marks a failed write to storage. The in-memory change
	// that triggered the write has already been applied.
	ErrPersistence = errors.New("persistence failure")
	// ErrSessionClosed is returned by operations on a closed edit session.
	ErrSessionClosed = errors.New("edit session closed")
	// ErrUnknownCollection is returned for a collection outside the fixed set.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrKeyNotFound is returned by Storage.Get when the key was never written.
	ErrKeyNotFound = errors.New("key not found")
)

// PersistError reports a failed save of one collection.
type PersistError struct {
	Collection Collection
	Err        error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("saving %s: %v", e.Collection, e.Err)
}

// Unwrap lets errors.Is match both ErrPersistence and the underlying cause.
func (e *PersistError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}
