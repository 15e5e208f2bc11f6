package services

import (
	"errors"
	"fmt"
)

// ValidationError marks an error caused by bad caller input, so the HTTP
// layer can map it to a 400 instead of a 500.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err originates from input validation.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
