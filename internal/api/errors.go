package api

import (
	"errors"
	"fmt"
)

// ErrBlacklisted is returned when a barred account is the target of a balance-affecting operation.
var ErrBlacklisted = errors.New("user is blacklisted")

// ValidationError reports malformed or out-of-range input. Callers re-prompt
// for the offending field instead of aborting the flow.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
