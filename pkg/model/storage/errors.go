package storage

import (
	"github.com/pkg/errors"
)

var (
	// ErrCorruptedValue is returned if a persisted value could not be decoded.
	ErrCorruptedValue = errors.New("corrupted value in database")
)

func NewDatabaseError(cause error) *ErrDatabaseError {
	return &ErrDatabaseError{Inner: cause}
}

type ErrDatabaseError struct {
	Inner error
}

func (e ErrDatabaseError) Cause() error {
	return e.Inner
}

func (e ErrDatabaseError) Unwrap() error {
	return e.Inner
}

func (e ErrDatabaseError) Error() string {
	return "database error: " + e.Inner.Error()
}
