// Package apperr defines the error kinds the service distinguishes at its
// boundaries. Core packages return these; the HTTP layer maps them to status
// codes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for boundary translation.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindStorage:
		return "storage"
	}
	return "unknown"
}

// Error is a kinded error. Use the constructors below.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

// Validation reports malformed caller input.
func Validation(format string, args ...any) error {
	return &Error{kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing or not-owned resource.
func NotFound(format string, args ...any) error {
	return &Error{kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

// Unauthorized reports a missing or invalid identity.
func Unauthorized(format string, args ...any) error {
	return &Error{kind: KindUnauthorized, msg: fmt.Sprintf(format, args...)}
}

// Forbidden reports a valid identity lacking the required role or ownership.
func Forbidden(format string, args ...any) error {
	return &Error{kind: KindForbidden, msg: fmt.Sprintf(format, args...)}
}

// Storage wraps an underlying persistence failure.
func Storage(msg string, err error) error {
	return &Error{kind: KindStorage, msg: msg, err: err}
}

// KindOf extracts the Kind from err, or 0 if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return 0
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }
