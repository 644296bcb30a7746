package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryReactive Category = "reactive"
	CategoryDiff     Category = "diff"
	CategoryPatch    Category = "patch"
	CategoryFixture  Category = "fixture"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// Location is a position in a source file, typically a fixture.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// String returns the location as file:line[:column].
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// ReconcileError is a structured error with a code, category and hints.
type ReconcileError struct {
	// Code is a unique error identifier (e.g., "R020").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation, usually specific to this occurrence.
	Detail string

	// Location is the source position, when the error comes from a file.
	Location *Location

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ReconcileError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ReconcileError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a ReconcileError with the same code.
func (e *ReconcileError) Is(target error) bool {
	t, ok := target.(*ReconcileError)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}

// WithLocation adds a source location.
func (e *ReconcileError) WithLocation(file string, line, column int) *ReconcileError {
	e.Location = &Location{File: file, Line: line, Column: column}
	return e
}

// WithSuggestion adds a fix suggestion.
func (e *ReconcileError) WithSuggestion(s string) *ReconcileError {
	e.Suggestion = s
	return e
}

// WithDetail adds an occurrence-specific explanation.
func (e *ReconcileError) WithDetail(d string) *ReconcileError {
	e.Detail = d
	return e
}

// WithDetailf is WithDetail with formatting.
func (e *ReconcileError) WithDetailf(format string, args ...any) *ReconcileError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *ReconcileError) Wrap(err error) *ReconcileError {
	e.Wrapped = err
	return e
}

// New creates a ReconcileError from a registered code.
func New(code string) *ReconcileError {
	template, ok := registry[code]
	if !ok {
		return &ReconcileError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &ReconcileError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Suggestion: template.Suggestion,
	}
}

// Newf creates an error without a code.
func Newf(category Category, format string, args ...any) *ReconcileError {
	return &ReconcileError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error under code. A ReconcileError is
// returned unchanged.
func FromError(err error, code string) *ReconcileError {
	if err == nil {
		return nil
	}
	if re, ok := err.(*ReconcileError); ok {
		return re
	}
	return New(code).Wrap(err)
}
