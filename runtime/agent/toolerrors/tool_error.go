// Package toolerrors provides the structured failure type a Tool's handler
// returns from runtime/agent's execution loop. ToolError carries a Kind
// (invalid arguments, a recovered panic, or an unavailable tool) so a caller
// that only sees the tool observation string can still classify why it
// failed, and preserves a cause chain via Unwrap for errors.Is/As.
package toolerrors

import (
	"errors"
	"fmt"
)

// Kind discriminates why a tool invocation failed. It is a vocabulary of its
// own, separate from agent.ErrorKind, which classifies failures of the
// execution loop as a whole.
type Kind string

const (
	KindInvalidArguments Kind = "invalid_arguments"
	KindPanic            Kind = "panic"
	KindUnavailable      Kind = "unavailable"
	KindUnspecified      Kind = ""
)

// ToolError is a structured tool failure that preserves a Kind, message, and
// causal chain while still implementing the standard error interface. Errors
// may be nested via Cause to retain diagnostics across retries and
// agent-as-tool hops.
type ToolError struct {
	Kind    Kind
	Message string
	Cause   *ToolError
}

// New constructs an unclassified ToolError with the given message.
func New(message string) *ToolError {
	if message == "" {
		message = "tool error"
	}
	return &ToolError{Message: message}
}

// NewKind constructs a ToolError tagged with the given Kind.
func NewKind(kind Kind, message string) *ToolError {
	te := New(message)
	te.Kind = kind
	return te
}

// NewWithCause constructs a ToolError that wraps an underlying error. The cause is
// converted into a ToolError chain so error metadata survives serialization while still
// supporting errors.Is/As through Unwrap.
func NewWithCause(message string, cause error) *ToolError {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &ToolError{
		Message: message,
		Cause:   FromError(cause),
	}
}

// FromError converts an arbitrary error into a ToolError chain.
func FromError(err error) *ToolError {
	if err == nil {
		return nil
	}
	var te *ToolError
	if errors.As(err, &te) {
		return te
	}
	return &ToolError{
		Message: err.Error(),
		Cause:   FromError(errors.Unwrap(err)),
	}
}

// Errorf formats according to a format specifier and returns the string as an
// unclassified ToolError.
func Errorf(format string, args ...any) *ToolError {
	return New(fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap returns the underlying tool error to support errors.Is/As.
func (e *ToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
