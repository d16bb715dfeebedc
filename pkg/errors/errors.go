// Package errors provides structured error types for changeover.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NO_JOBS / EMPTY_*: Runs that cannot produce a sequence
//   - *NOT_FOUND: Resource not found
//   - INTERNAL_*: Unexpected internal errors
//
// Only fatal conditions are errors. Recoverable conditions (a manual key
// missing from the job set, an unmatched priority code) are reported as
// warnings by package pipeline.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidLayerMode, "invalid layer mode: %q", mode)
//	if errors.Is(err, errors.ErrCodeInvalidLayerMode) {
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
	ErrCodeInvalidInput          Code = "INVALID_INPUT"
	ErrCodeInvalidLayerMode      Code = "INVALID_LAYER_MODE"
	ErrCodeInvalidManualSequence Code = "INVALID_MANUAL_SEQUENCE"
	ErrCodeInvalidQuality        Code = "INVALID_QUALITY"
	ErrCodeInvalidItemCode       Code = "INVALID_ITEM_CODE"
	ErrCodeInvalidFormat         Code = "INVALID_FORMAT"

	// Fatal run conditions
	ErrCodeNoJobs              Code = "NO_JOBS"
	ErrCodeEmptyManualSequence Code = "EMPTY_MANUAL_SEQUENCE"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"
	ErrCodeRunNotFound  Code = "RUN_NOT_FOUND"

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

// IsFatalRun reports whether err is one of the conditions that abort a
// sequencing run: an empty job set or a manual sequence that matched nothing.
func IsFatalRun(err error) bool {
	switch GetCode(err) {
	case ErrCodeNoJobs, ErrCodeEmptyManualSequence:
		return true
	}
	return false
}

// IsInvalid reports whether err is an input validation failure.
func IsInvalid(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidLayerMode, ErrCodeInvalidManualSequence,
		ErrCodeInvalidQuality, ErrCodeInvalidItemCode, ErrCodeInvalidFormat:
		return true
	}
	return false
}
