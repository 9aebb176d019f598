// Package errors provides structured error types for the nestflow engine.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the HTTP service
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (graph model construction)
//   - CYCLE / DANGLING_REFERENCE: hierarchy and edge integrity failures
//   - NOT_FOUND_*: Resource not found
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidFlow, "invalid flow direction: %s", dir)
//	if errors.Is(err, errors.ErrCodeInvalidFlow) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "solve pass failed")
//
// Two failure modes carry their own types because callers inspect them:
// [CycleError] (a node is its own transitive child) and [ReferenceError]
// (an edge endpoint does not resolve to a node). Use errors.As to extract
// the offending identifier.
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors, surfaced at graph model construction time
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidNode  Code = "INVALID_NODE"
	ErrCodeInvalidEdge  Code = "INVALID_EDGE"
	ErrCodeInvalidFlow  Code = "INVALID_FLOW"
	ErrCodeInvalidPort  Code = "INVALID_PORT"

	// Graph integrity errors
	ErrCodeCycle             Code = "CYCLE"
	ErrCodeDanglingReference Code = "DANGLING_REFERENCE"

	// Resource not found errors
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeLayoutNotFound Code = "LAYOUT_NOT_FOUND"

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

// CycleError reports that a node is reachable from itself through the
// containment hierarchy. The hierarchy must form a forest; this error
// names the first node found on a cycle.
type CycleError struct {
	NodeID string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: node %q is its own transitive child", ErrCodeCycle, e.NodeID)
}

// Code returns the error code for this error type.
func (e *CycleError) Code() Code { return ErrCodeCycle }

// ReferenceError reports an edge endpoint that does not resolve to any
// node in the current graph. EdgeID identifies the offending edge when
// known.
type ReferenceError struct {
	ID     string // The missing node ID
	EdgeID string // The edge holding the dangling reference (optional)
}

// Error implements the error interface.
func (e *ReferenceError) Error() string {
	if e.EdgeID != "" {
		return fmt.Sprintf("%s: edge %q references unknown node %q", ErrCodeDanglingReference, e.EdgeID, e.ID)
	}
	return fmt.Sprintf("%s: unknown node %q", ErrCodeDanglingReference, e.ID)
}

// Code returns the error code for this error type.
func (e *ReferenceError) Code() Code { return ErrCodeDanglingReference }
