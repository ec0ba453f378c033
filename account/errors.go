package account

import (
	"errors"
	"fmt"
)

// Sentinel errors for account descriptions.
var (
	ErrUnknownProtocol  = errors.New("account: unknown protocol")
	ErrInvalidURL       = errors.New("account: invalid server url")
	ErrInvalidPort      = errors.New("account: invalid port")
	ErrInvalidAccount   = errors.New("account: invalid account")
	ErrUnknownAttribute = errors.New("account: unknown attribute")
	ErrWrongType        = errors.New("account: wrong value type")
)

// ValidationError describes the first problem found in an account or
// server description.
type ValidationError struct {
	// Field is the JSON name of the offending attribute.
	Field  string
	Reason string
	// Err is an optional underlying cause.
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("account: invalid %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("account: invalid %s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidAccount and the underlying cause, if any.
func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidAccount, e.Err}
	}
	return []error{ErrInvalidAccount}
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
