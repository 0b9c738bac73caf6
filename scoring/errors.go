package scoring

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every survey validation failure
	ErrValidation = errors.New("invalid survey response")

	ErrMissingField    = errors.New("missing required field")
	ErrUnknownCategory = errors.New("unknown category")
	ErrOutOfRange      = errors.New("value out of range")
)

// ValidationError describes one rejected survey field
type ValidationError struct {
	Field  string
	Value  interface{}
	Kind   error
	Detail string
}

func (e *ValidationError) Error() string {
	switch {
	case errors.Is(e.Kind, ErrMissingField):
		return fmt.Sprintf("field %q: %v", e.Field, e.Kind)
	case e.Detail != "":
		return fmt.Sprintf("field %q: %v %v (%s)", e.Field, e.Kind, e.Value, e.Detail)
	default:
		return fmt.Sprintf("field %q: %v %v", e.Field, e.Kind, e.Value)
	}
}

// Unwrap exposes both the validation class and the specific kind
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Kind}
}

// FieldErrors flattens a (possibly joined) encoding error into its field errors
func FieldErrors(err error) []*ValidationError {
	if err == nil {
		return nil
	}
	if ve, ok := err.(*ValidationError); ok {
		return []*ValidationError{ve}
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*ValidationError
		for _, inner := range joined.Unwrap() {
			out = append(out, FieldErrors(inner)...)
		}
		return out
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return []*ValidationError{ve}
	}
	return nil
}
