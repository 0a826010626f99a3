package store

import "errors"

// ErrNotFound is returned when the referenced post does not exist, or when it
// is not visible to the caller. The two cases are deliberately
// indistinguishable so that private snaps don't leak their existence.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed input to a store operation. Surfaced to
// the caller as-is, never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + e.Reason
}

func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}

// IsValidationError reports whether err is a ValidationError anywhere in its
// chain.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
