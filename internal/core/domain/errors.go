package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDriverNotFound     = errors.New("driver not found")
	ErrDuplicate          = errors.New("duplicate unique field")
	ErrInvalidDriver      = errors.New("invalid driver")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

// DuplicateError reports the first unique field that collided with another driver.
// It matches ErrDuplicate under errors.Is.
type DuplicateError struct {
	Field UniqueField
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already registered", e.Field)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// NewDuplicateError returns a DuplicateError for field f.
func NewDuplicateError(f UniqueField) error {
	return &DuplicateError{Field: f}
}

// DuplicateField extracts the colliding field from err, if err is a duplicate error.
func DuplicateField(err error) (UniqueField, bool) {
	var de *DuplicateError
	if errors.As(err, &de) {
		return de.Field, true
	}
	return "", false
}
