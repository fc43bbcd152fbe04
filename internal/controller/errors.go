package controller

import (
	"errors"
	"fmt"
)

// Error wraps a controller failure with a machine-readable operation code.
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

// ErrValidation marks failures caught client-side before any network call.
var ErrValidation = errors.New("controller: validation failed")

// ErrDeclined marks a destructive intent the user did not confirm.
var ErrDeclined = errors.New("controller: confirmation declined")
