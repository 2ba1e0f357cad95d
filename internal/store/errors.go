package store

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by store operations. They are returned to the
// caller, never swallowed - the invoking layer decides how to surface them.
var (
	// ErrNotFound means the mutation target id does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrNoHistory means undo was requested for an entity with no
	// recorded mutations.
	ErrNoHistory = errors.New("no history for entity")

	// ErrEmailTaken means a user with the same email already exists.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials means the email/password pair did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserInactive means the account exists but is not active.
	ErrUserInactive = errors.New("user is inactive")
)

// ValidationError reports a missing required field. Validation failures
// short-circuit before any side effect: no persistence, no history entry,
// no event.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required field missing: %s", e.Field)
}

// IsValidation reports whether err is a required-field failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
