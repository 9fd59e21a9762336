// Package errors provides structured error types for hapaudit.
//
// Two classes of failure flow through the audit packages:
//
//   - Invariant violations: the alignment graph is in a state the traversal
//     code does not accept (a cap with no partner, a non-stub end with no
//     segment). These carry [ErrCodeInvariant] and abort the current
//     operation. The CLI maps them to exit status 2.
//   - Input and environment errors: bad parameters, unreadable files,
//     unreachable caches. These carry one of the INVALID_*, *_NOT_FOUND or
//     NETWORK_* codes.
//
// Structural classification results (ERROR_* adjacency codes) are not
// errors and never pass through this package.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidParameters, "minimum N count must be non-negative, got %d", n)
//	if errors.Is(err, errors.ErrCodeInvalidParameters) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "open %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidParameters Code = "INVALID_PARAMETERS"
	ErrCodeInvalidEvent      Code = "INVALID_EVENT"
	ErrCodeInvalidGraph      Code = "INVALID_GRAPH"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeInvalidPath       Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Graph state errors
	ErrCodeInvariant Code = "INVARIANT_VIOLATION"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Invariant reports a graph state the traversal cannot continue from.
// The message should name the cap, segment or end involved.
func Invariant(format string, args ...any) *Error {
	return New(ErrCodeInvariant, format, args...)
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsInvariant reports whether err, or any error it wraps, is an invariant
// violation. Unlike [Is], it searches past outer *Error wrappers.
func IsInvariant(err error) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == ErrCodeInvariant {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
