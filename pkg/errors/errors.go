// Package errors provides structured error types for depgraph.
//
// Codes let the CLI, the HTTP collector and the uploader react to failures
// without matching on message text.
//
// # Error Codes
//
//   - INVALID_*: configuration, event stream or argument problems
//   - EXTRACTION_FAILED: errors accumulated while walking resolution events
//   - WRITE_FAILED: the snapshot could not be serialized or written
//   - NETWORK_ERROR, UNAUTHORIZED, FORBIDDEN, NOT_FOUND, RATE_LIMITED:
//     dependency submission failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "GITHUB_SHA must be set")
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // ...
//	}
//
//	err = errors.Wrap(errors.ErrCodeWriteFailed, cause, "write %s", path)
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
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidEvent  Code = "INVALID_EVENT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Extraction and output errors
	ErrCodeExtractionFailed Code = "EXTRACTION_FAILED"
	ErrCodeWriteFailed      Code = "WRITE_FAILED"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Authentication errors
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeForbidden    Code = "FORBIDDEN"

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

// Is reports whether the outermost *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// Has reports whether any *Error in err's tree carries code. Unlike [Is] it
// looks through joined errors, so it finds the cause of one failed
// configuration inside an aggregated EXTRACTION_FAILED error.
func Has(err error, code Code) bool {
	return errors.Is(err, codeTarget(code))
}

// codeTarget matches any *Error with the same code in errors.Is.
type codeTarget Code

func (c codeTarget) Error() string { return string(c) }

// Is lets errors.Is match e against a code target.
func (e *Error) Is(target error) bool {
	c, ok := target.(codeTarget)
	return ok && e.Code == Code(c)
}

// GetCode extracts the code of the outermost *Error in err's chain.
// Returns empty string if there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Causes returns the individual failures joined under err, such as the
// per-configuration errors of an extraction. A single cause is returned as
// a one-element slice; nil yields nil.
func Causes(err error) []error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Cause != nil {
		err = e.Cause
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// UserMessage returns the message of the outermost *Error without its code
// prefix, or err.Error() for other errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// RateLimitedError provides additional information for rate-limited responses.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
