package apperrors

import (
	"errors"
	"fmt"
)

// Common application errors surfaced to the user by the console.
var (
	// ErrAuthentication means the login credentials were rejected. It is
	// shown inline and never clears a previously established session.
	ErrAuthentication = errors.New("invalid username or password")

	// ErrDecode marks a malformed or claim-less session token. Callers
	// treat it the same as having no session at all.
	ErrDecode = errors.New("malformed session token")
)

// ValidationError blocks a mutation locally, before any request is sent.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
