package store

import (
	"errors"
	"fmt"

	"github.com/idilsaglam/tada/internal/model"
)

var (
	// ErrValidation marks a rejected add or edit. It wraps model.ErrEmptyTitle.
	ErrValidation = errors.New("validation failure")

	ErrPersistenceRead  = errors.New("persistence read failure")
	ErrPersistenceWrite = errors.New("persistence write failure")
)

// Op names the persistence direction that failed.
type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)

// PersistenceError reports a failed load or save. Both are recoverable.
type PersistenceError struct {
	Op  Op
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool {
	switch target {
	case ErrPersistenceRead:
		return e.Op == OpRead
	case ErrPersistenceWrite:
		return e.Op == OpWrite
	}
	return false
}

func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// Notice returns the generic message shown to the user for err.
func Notice(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation), errors.Is(err, model.ErrEmptyTitle):
		return "Task title cannot be empty."
	case errors.Is(err, ErrPersistenceRead):
		return "Failed to load tasks"
	case errors.Is(err, ErrPersistenceWrite):
		return "Failed to save tasks"
	default:
		return "Something went wrong"
	}
}
