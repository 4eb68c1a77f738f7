package models

import (
	"errors"
	"fmt"
)

// ErrValidation marks a local precondition failure. Operations check
// these before issuing any remote call, so a wrapped ErrValidation
// guarantees no round trip was wasted.
var ErrValidation = errors.New("validation failed")

// Validationf builds an error wrapping ErrValidation so callers can
// match it with errors.Is.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
