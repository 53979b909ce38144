package todo

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned by Add when the text is blank after trimming.
	ErrEmptyInput = errors.New("task text is empty")
	// ErrNotFound is returned when no task has the requested ID.
	ErrNotFound = errors.New("task not found")
	// ErrCorruptSnapshot marks a stored snapshot that could not be decoded or validated.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// CorruptSnapshotError reports a snapshot that failed to parse or validate.
type CorruptSnapshotError struct {
	Key string // storage key of the snapshot
	Err error  // underlying decode or validation error
}

func (e *CorruptSnapshotError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("corrupt snapshot %q: %s", e.Key, e.Err)
	}
	return fmt.Sprintf("corrupt snapshot: %s", e.Err)
}

// Unwrap returns the underlying error.
func (e *CorruptSnapshotError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrCorruptSnapshot) match.
func (e *CorruptSnapshotError) Is(target error) bool {
	return target == ErrCorruptSnapshot
}

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // JSON path to the error location
	Err  error  // Underlying error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

func notFound(id int64) error {
	return fmt.Errorf("task %d: %w", id, ErrNotFound)
}
