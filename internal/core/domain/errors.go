package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrTemporary       = errors.New("temporary failure")
)

// ErrUnsupportedLocale is an invalid-input error.
var ErrUnsupportedLocale = fmt.Errorf("unsupported locale: %w", ErrInvalidInput)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ValidationError reports a record whose date field cannot be parsed.
type ValidationError struct {
	Kind     DocumentKind
	RecordID string
	Field    string
	Value    string
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s: invalid %s %q: %v", e.Kind, e.RecordID, e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrInvalidInput, e.Err}
}
