package applicant

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingField = errors.New("missing required field")
	ErrOutOfRange   = errors.New("value out of range")
	ErrInvalidType  = errors.New("invalid field type")
)

// InvalidProfileError reports a single rejected profile field.
type InvalidProfileError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InvalidProfileError) Error() string {
	return fmt.Sprintf("invalid profile: %s: %s", e.Field, e.Reason)
}

func (e *InvalidProfileError) Unwrap() error { return e.Err }

// Problems collects every rejected field of a profile so callers can report
// them together. It unwraps to the individual InvalidProfileErrors.
type Problems []*InvalidProfileError

func (p Problems) Error() string {
	parts := make([]string, 0, len(p))
	for _, problem := range p {
		parts = append(parts, problem.Field+": "+problem.Reason)
	}
	return "invalid profile: " + strings.Join(parts, "; ")
}

func (p Problems) Unwrap() []error {
	errs := make([]error, 0, len(p))
	for _, problem := range p {
		errs = append(errs, problem)
	}
	return errs
}

func (p Problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return p
}

func missing(field string) *InvalidProfileError {
	return &InvalidProfileError{Field: field, Reason: "is required", Err: ErrMissingField}
}

func outOfRange(field, reason string) *InvalidProfileError {
	return &InvalidProfileError{Field: field, Reason: reason, Err: ErrOutOfRange}
}
