package game

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is against these.
var (
	// ErrValidation: the request is malformed or not allowed in the current
	// state of the room. Nothing changed.
	ErrValidation = errors.New("validation")
	// ErrOrdering: the request arrived too late or out of turn, such as an
	// answer after the window closed. Nothing changed.
	ErrOrdering = errors.New("ordering")
	ErrNotFound = errors.New("not_found")
	// ErrFatal aborts the operation.
	ErrFatal = errors.New("fatal")
)

// Error carries a machine-readable code alongside its kind.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func validation(code, format string, args ...any) error {
	return newError(ErrValidation, code, format, args...)
}

func ordering(code, format string, args ...any) error {
	return newError(ErrOrdering, code, format, args...)
}

func notFound(code, format string, args ...any) error {
	return newError(ErrNotFound, code, format, args...)
}

// Validation builds a validation error for callers outside the package.
func Validation(code, format string, args ...any) error {
	return validation(code, format, args...)
}

// NotFound builds a not_found error for callers outside the package.
func NotFound(code, format string, args ...any) error {
	return notFound(code, format, args...)
}

// Fatal builds a fatal error for callers outside the package.
func Fatal(code, format string, args ...any) error {
	return newError(ErrFatal, code, format, args...)
}

// Code returns the code of err, or "internal" for errors from elsewhere.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal"
}

// Kind names the kind of err for logs and wire messages.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrOrdering):
		return "ordering"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "fatal"
	}
}
