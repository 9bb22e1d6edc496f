// Package errors provides structured error types for the joist application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI commands and library packages
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Each code corresponds to one failure mode of the install flow, from order
// resolution (UNKNOWN_PACKAGE, NO_RECIPE, MALFORMED_ORDER) through repository
// addressing (UNSUPPORTED_PROTOCOL, UNSUPPORTED_HOST), repository operations
// (MISSING_HOST, INVALID_REMOTE_SPEC, MISSING_REMOTE, AMBIGUOUS_REF_SPEC,
// CLONE_FAILED, CHECKOUT_FAILED), dependency scanning (REPO_NOT_FOUND,
// DEPENDENCY_PARSE) and version gating (HOST_VERSION_TOO_LOW).
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownPackage, "no provider knows %q", name)
//	if errors.Is(err, errors.ErrCodeUnknownPackage) {
//	    // Handle unknown package
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeCheckoutFailed, origErr, "checkout %s", ref)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different failure categories.
const (
	// Order resolution errors
	ErrCodeUnknownPackage Code = "UNKNOWN_PACKAGE"
	ErrCodeNoRecipe       Code = "NO_RECIPE"
	ErrCodeMalformedOrder Code = "MALFORMED_ORDER"

	// Repository addressing errors
	ErrCodeUnsupportedProtocol Code = "UNSUPPORTED_PROTOCOL"
	ErrCodeUnsupportedHost     Code = "UNSUPPORTED_HOST"

	// Repository operation errors
	ErrCodeMissingHost       Code = "MISSING_HOST"
	ErrCodeInvalidRemoteSpec Code = "INVALID_REMOTE_SPEC"
	ErrCodeMissingRemote     Code = "MISSING_REMOTE"
	ErrCodeAmbiguousRefSpec  Code = "AMBIGUOUS_REF_SPEC"
	ErrCodeCloneFailed       Code = "CLONE_FAILED"
	ErrCodeCheckoutFailed    Code = "CHECKOUT_FAILED"

	// Dependency scanning errors
	ErrCodeRepoNotFound    Code = "REPO_NOT_FOUND"
	ErrCodeDependencyParse Code = "DEPENDENCY_PARSE"

	// Version gating errors
	ErrCodeHostVersionTooLow Code = "HOST_VERSION_TOO_LOW"

	// Ambient errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeProvider     Code = "PROVIDER_ERROR"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
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
