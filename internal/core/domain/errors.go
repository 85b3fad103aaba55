package domain

import (
	"errors"
	"fmt"
)

// ErrSpotNotFound is returned by spot lookups for unknown IDs.
var ErrSpotNotFound = errors.New("spot not found")

// ErrRegionRequired is the validation failure for a missing region.
var ErrRegionRequired = &ValidationError{Field: "region", Message: "region required"}

// ValidationError reports a malformed request. No work is attempted after one.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DataAccessError wraps any failure of an external data source.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
