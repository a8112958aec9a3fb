package database

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateBooking means an insert hit an existing booking_id. The
	// reconciler's diff guarantees insert keys are absent, so seeing this in
	// production points at a reconciliation defect, not a transient fault.
	ErrDuplicateBooking = errors.New("booking already exists")

	// ErrBookingNotFound means an update addressed a booking_id that is not
	// in the store.
	ErrBookingNotFound = errors.New("booking not found")
)

// StorageError wraps a failure of the underlying sqlite engine with the
// operation that hit it. Callers must observe and log it; no store operation
// swallows a failure.
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

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
