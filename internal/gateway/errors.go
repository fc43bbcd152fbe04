package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// Error wraps a gateway failure with a machine-readable operation code.
// Callers classify via errors.Is / IsMissingRelation; no retries happen here.
type Error struct {
	code string
	err  error
}

func (e *Error) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the machine-readable failure code.
func (e *Error) Code() string {
	return e.code
}

func newError(operation, reason string, cause error) error {
	return &Error{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("gateway: not found")

// IsMissingRelation reports whether the failure is the backend's
// "relation/column does not exist" class. Callers treat these as
// "optional feature not yet provisioned" rather than fatal.
func IsMissingRelation(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "no such table") ||
		strings.Contains(message, "no such column")
}
