package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")

	// ErrValidation marks input rejected before anything is written
	ErrValidation = errors.New("validation failed")

	// ErrEmptyTitle is returned when a recipe title is blank after trimming
	ErrEmptyTitle = fmt.Errorf("%w: recipe title is required", ErrValidation)
)

// StorageError reports a failure of the underlying storage engine
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// wrap returns nil for a nil error and a *StorageError otherwise
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err was caused by the storage engine
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
