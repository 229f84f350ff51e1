// Package errors provides structured error types for parsimony analyses.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI, HTTP API and library callers
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//
// # Error Codes
//
// The analysis core reports four kinds of failure:
//   - STRUCTURAL: a ring or edge invariant of a tree was violated
//   - ALLOCATION: buffers could not be sized for the requested analysis
//   - CAPACITY_EXCEEDED: a tree buffer or rearrangement ceiling was hit
//   - ENCODING: a character token or matrix could not be decoded
//
// Structural and allocation errors abort the current operation and are not
// retried. CAPACITY_EXCEEDED is an expected terminal state of a search and is
// normally converted into a stop reason rather than returned to callers.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeStructural, "node %d already connected", n)
//	if errors.Is(err, errors.ErrCodeStructural) {
//	    // Handle broken tree
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeEncoding, origErr, "reading %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Analysis core
	ErrCodeStructural       Code = "STRUCTURAL"
	ErrCodeAllocation       Code = "ALLOCATION"
	ErrCodeCapacityExceeded Code = "CAPACITY_EXCEEDED"
	ErrCodeEncoding         Code = "ENCODING"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidTree   Code = "INVALID_TREE"
	ErrCodeInvalidMethod Code = "INVALID_METHOD"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"
	ErrCodeResultNotFound Code = "RESULT_NOT_FOUND"

	// Backend errors
	ErrCodeBackend Code = "BACKEND_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

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

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
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

// Fatal reports whether err is a kind that must abort the current analysis
// (structural or allocation failure).
func Fatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeStructural, ErrCodeAllocation:
		return true
	}
	return false
}
