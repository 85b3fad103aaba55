package usecases

import (
	"errors"

	"github.com/samirrijal/coursemate/internal/core/domain"
)

// dataErr wraps err as a DataAccessError unless it already is one.
func dataErr(op string, err error) error {
	var dae *domain.DataAccessError
	if errors.As(err, &dae) {
		return err
	}
	return &domain.DataAccessError{Op: op, Err: err}
}
