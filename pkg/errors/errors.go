// Package errors provides structured error types for the framefusion booth.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages for the operator screen
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND: Resource not found
//   - SOURCE_*, DECODE_*: Image acquisition failures
//   - INTERNAL_*: Unexpected internal errors
//
// Geometry never produces errors. Degenerate rectangles are clamped at the
// point of edit instead.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidAspectRatio, "bad ratio %q", s)
//	if errors.Is(err, errors.ErrCodeInvalidAspectRatio) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeDecodeFailed, origErr, "decode %s", src)
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
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidLayout      Code = "INVALID_LAYOUT"
	ErrCodeInvalidAspectRatio Code = "INVALID_ASPECT_RATIO"
	ErrCodeInvalidStep        Code = "INVALID_STEP"
	ErrCodeUnfilledSlots      Code = "UNFILLED_SLOTS"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Image acquisition errors
	ErrCodeSourceUnavailable Code = "SOURCE_UNAVAILABLE"
	ErrCodeDecodeFailed      Code = "DECODE_FAILED"

	// Output errors
	ErrCodeExportFailed Code = "EXPORT_FAILED"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
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
// It unwraps the error chain looking for an *Error or a coded error type
// with a matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// coded is implemented by typed errors that carry a code without being *Error.
type coded interface {
	Code() Code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error carries no code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coded
	if errors.As(err, &c) {
		return c.Code()
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

// UnfilledSlotsError is reported when a photo set is finalized while some
// placeholders are still empty.
type UnfilledSlotsError struct {
	Remaining int // Number of empty placeholders
	Total     int // Number of placeholders in the layout
}

// Error implements the error interface. The text matches what the operator
// screen shows.
func (e *UnfilledSlotsError) Error() string {
	if e.Remaining == 1 {
		return fmt.Sprintf("Please fill all %d photo slots (1 slot is still empty)", e.Total)
	}
	return fmt.Sprintf("Please fill all %d photo slots (%d slots are still empty)", e.Total, e.Remaining)
}

// Code returns the error code for this error type.
func (e *UnfilledSlotsError) Code() Code {
	return ErrCodeUnfilledSlots
}
