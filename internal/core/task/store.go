package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
)

var (
	// ErrNotFound is returned when no task has the requested ID.
	ErrNotFound = errors.New("task not found")
	// ErrAmbiguousID is returned when an ID prefix matches more than one task.
	ErrAmbiguousID = errors.New("task id prefix is ambiguous")
)

// PersistenceError reports a failed or timed-out Store call. When an index
// operation returns one, the in-memory working set was not modified.
type PersistenceError struct {
	Op  string // insert, replace, remove
	ID  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConnectionError reports that the Store could not be opened or the working
// set could not be loaded from it at startup.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("store unavailable: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsPersistenceError reports whether err wraps a *PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// IsValidationError reports whether err carries field validation errors
// produced by the parse boundary.
func IsValidationError(err error) bool {
	var fe criterio.FieldErrors
	return errors.As(err, &fe)
}

// Store defines the persistence contract backing the index. All operations
// are keyed by task ID.
type Store interface {
	// LoadAll returns every persisted task in the store's load order.
	LoadAll(ctx context.Context) ([]Task, error)

	// Insert persists a new task.
	Insert(ctx context.Context, t Task) error

	// Replace overwrites the persisted fields of the task with the given ID.
	// Returns ErrNotFound if the task does not exist.
	Replace(ctx context.Context, id string, t Task) error

	// Remove deletes the task with the given ID.
	// Returns ErrNotFound if the task does not exist.
	Remove(ctx context.Context, id string) error
}
