// Package errors carries the notifier's error categories. Lookups against
// remote documents classify failures so callers can tell a permanent answer
// (no document, bad document) from one worth asking again.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes an application error.
type ErrorCode string

const (
	// ErrCodeNotFound: the requested document does not exist.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeValidation: input or a fetched document is malformed.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeUpstream: a remote dependency failed or answered with an error.
	ErrCodeUpstream ErrorCode = "upstream"
	// ErrCodeInternal: everything else.
	ErrCodeInternal ErrorCode = "internal"
)

// AppError is a categorized error with an optional cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Newf builds an AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf is Newf(ErrCodeNotFound, ...).
func NotFoundf(format string, args ...any) *AppError {
	return Newf(ErrCodeNotFound, format, args...)
}

// Validationf is Newf(ErrCodeValidation, ...).
func Validationf(format string, args ...any) *AppError {
	return Newf(ErrCodeValidation, format, args...)
}

// Upstreamf is Newf(ErrCodeUpstream, ...).
func Upstreamf(format string, args ...any) *AppError {
	return Newf(ErrCodeUpstream, format, args...)
}

// Wrapf categorizes err. It returns nil for a nil err.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	wrapped := Newf(code, format, args...)
	wrapped.Cause = err
	return wrapped
}

// GetCode returns the code of the outermost AppError in err's chain, or "".
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Is reports whether err carries code.
func Is(err error, code ErrorCode) bool {
	return err != nil && GetCode(err) == code
}

// IsNotFound reports whether err carries ErrCodeNotFound.
func IsNotFound(err error) bool { return Is(err, ErrCodeNotFound) }

// IsValidation reports whether err carries ErrCodeValidation.
func IsValidation(err error) bool { return Is(err, ErrCodeValidation) }

// IsUpstream reports whether err carries ErrCodeUpstream.
func IsUpstream(err error) bool { return Is(err, ErrCodeUpstream) }

// Permanent reports whether asking again would give the same answer.
// Missing and malformed documents are permanent; upstream, internal and
// uncategorized failures are not.
func Permanent(err error) bool {
	switch GetCode(err) {
	case ErrCodeNotFound, ErrCodeValidation:
		return true
	default:
		return false
	}
}
