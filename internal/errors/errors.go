// Package errors provides a lightweight structured error type for
// category-based classification in the HTTP adapter and CLI.
package errors

import (
	"errors"
	"fmt"
)

// Category classifies an error for status-code and exit-code mapping.
type Category string

const (
	// User-facing configuration and input errors
	CategoryConfig     Category = "config"
	CategoryValidation Category = "validation"

	// External system integration errors
	CategoryGit     Category = "git"
	CategoryPush    Category = "push"
	CategoryMessage Category = "message"

	// Runtime and infrastructure errors
	CategoryStore     Category = "store"
	CategoryScheduler Category = "scheduler"
	CategoryInternal  Category = "internal"
)

// Severity indicates how critical an error is.
type Severity string

const (
	SeverityFatal   Severity = "fatal"   // Stops execution
	SeverityError   Severity = "error"   // Error, but not fatal
	SeverityWarning Severity = "warning" // Continues with degraded functionality
)

// ContextFields carries structured context for an Error.
type ContextFields map[string]any

// Error is a structured error with category, retryability, and context.
type Error struct {
	Category  Category      `json:"category"`
	Severity  Severity      `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new Error.
func New(category Category, severity Severity, message string) *Error {
	return &Error{Category: category, Severity: severity, Message: message}
}

// Wrap creates a new Error that wraps an existing error.
func Wrap(err error, category Category, severity Severity, message string) *Error {
	return &Error{Category: category, Severity: severity, Message: message, Cause: err}
}

// As extracts a structured Error from an error chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
