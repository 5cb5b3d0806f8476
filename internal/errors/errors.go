// Package errors provides the closed error taxonomy used across the record store,
// its handlers and the administrative surface.
package errors

import (
	"errors"
	"fmt"
)

// Kind is the category of an error. The set is closed: callers switch on it
// instead of inspecting concrete error types.
type Kind string

const (
	// KindNotFound indicates an absent store key or platform entity.
	KindNotFound Kind = "not_found"
	// KindMalformed indicates stored bytes that fail to decode.
	KindMalformed Kind = "malformed"
	// KindValidation indicates bad user input (unknown kind, index out of range).
	KindValidation Kind = "validation"
	// KindExternal indicates the platform rejected an outbound action.
	KindExternal Kind = "external"
	// KindTimeout indicates a bounded wait for a human response expired.
	KindTimeout Kind = "timeout"
	// KindInternal indicates everything else.
	KindInternal Kind = "internal"
)

// Error is a structured error with kind, message and context.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// NotFoundError creates a new not-found error.
func NotFoundError(message string) *Error {
	return newError(KindNotFound, message, nil)
}

// MalformedError creates a new malformed-record error.
func MalformedError(message string, cause error) *Error {
	return newError(KindMalformed, message, cause)
}

// ValidationError creates a new validation error.
func ValidationError(message string) *Error {
	return newError(KindValidation, message, nil)
}

// ExternalError creates a new external action failure.
func ExternalError(message string, cause error) *Error {
	return newError(KindExternal, message, cause)
}

// TimeoutError creates a new timeout error.
func TimeoutError(message string, cause error) *Error {
	return newError(KindTimeout, message, cause)
}

// InternalError creates a new internal error.
func InternalError(message string, cause error) *Error {
	return newError(KindInternal, message, cause)
}

// WithContext adds context fields to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithField is an alias for WithContext (chainable).
func (e *Error) WithField(key string, value any) *Error {
	return e.WithContext(key, value)
}

// AsStructuredError converts any error into a structured Error.
// If err is already an *Error, returns it unchanged.
// Otherwise wraps it as an internal error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	return InternalError("internal error", err)
}

// KindOf returns the kind of err, or "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return AsStructuredError(err).Kind
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var structuredErr *Error
	for err != nil {
		if errors.As(err, &structuredErr) {
			if structuredErr.Kind == kind {
				return true
			}
			err = structuredErr.Cause
			continue
		}
		return false
	}
	return false
}

// UserMessage returns the text shown to the invoker of a command that failed.
func UserMessage(err error) string {
	structuredErr := AsStructuredError(err)
	if structuredErr == nil {
		return ""
	}

	switch structuredErr.Kind {
	case KindValidation, KindNotFound:
		return structuredErr.Message
	case KindTimeout:
		return "Timed out"
	case KindExternal:
		return "I do not have the required permissions to run this command."
	case KindMalformed:
		return "Stored data for this command is corrupted"
	default:
		return "Something went wrong"
	}
}
