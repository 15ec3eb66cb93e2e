// Package apperr maps application failures onto the HTTP statuses the API
// promises: 401 unauthenticated, 404 missing record, 402 insufficient
// credits, 400 bad input, 500 external/processing failure.
package apperr

import (
	"errors"
	"fmt"
)

type Error struct {
	Status  int
	Message string
	// Balance/Required are set only for insufficient-credit errors.
	Balance  int
	Required int
	cause    error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func Unauthenticated(msg string) *Error {
	return &Error{Status: 401, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Status: 404, Message: msg}
}

func InsufficientCredits(balance, required int) *Error {
	return &Error{
		Status:   402,
		Message:  "Insufficient credits",
		Balance:  balance,
		Required: required,
	}
}

func Validation(msg string) *Error {
	return &Error{Status: 400, Message: msg}
}

func External(msg string, cause error) *Error {
	return &Error{Status: 500, Message: msg, cause: cause}
}

// As extracts an *Error from err's chain, or wraps err as a 500.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Status: 500, Message: "Internal server error", cause: err}
}

// IsInsufficientCredits reports whether err is a 402 ledger rejection.
func IsInsufficientCredits(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Status == 402
}
