// Package toolerrors provides a structured error type for the runtime's
// error kinds; runtime/events uses it for scope violations and stack-depth
// overflows, while the other packages define their own errors. CoreError preserves a
// message, an error kind drawn from the kinds enumerated in the core's error
// handling design, and an optional cause, while still implementing the
// standard error interface and supporting errors.Is/As through Unwrap.
package toolerrors

import (
	"errors"
	"fmt"
)

// Kind classifies a CoreError so callers can branch on recovery strategy
// without string-matching messages.
type Kind string

const (
	// KindConfig covers missing API keys, empty model names, invalid
	// memory-reset kinds, and non-positive max_execution_time.
	KindConfig Kind = "config_error"
	// KindProviderTransient covers network failures, 429s, 5xxs, and 529
	// (Anthropic overloaded). Recoverable by retry with backoff.
	KindProviderTransient Kind = "provider_transient_error"
	// KindProvider covers 4xx (other than 429), malformed JSON, and API
	// error objects. Not retried.
	KindProvider Kind = "provider_error"
	// KindParse covers LLM output that matches neither the ReAct grammar
	// nor a native tool_calls array.
	KindParse Kind = "parse_error"
	// KindTool covers a tool invocation returning an error.
	KindTool Kind = "tool_error"
	// KindGuardrail covers a guardrail rejecting the final answer.
	KindGuardrail Kind = "guardrail_error"
	// KindTimeout covers max_execution_time being exceeded.
	KindTimeout Kind = "timeout_error"
	// KindCircularDependency covers a handler-graph cycle.
	KindCircularDependency Kind = "circular_dependency_error"
	// KindScopeViolation covers an empty pop or mismatched scope closer.
	KindScopeViolation Kind = "scope_violation"
	// KindStackDepthExceeded covers the scope stack exceeding its
	// configured maximum depth.
	KindStackDepthExceeded Kind = "stack_depth_exceeded"
)

// CoreError represents a structured failure carrying a Kind, a
// human-readable Message, and an optional Cause. Errors may be nested via
// Cause to retain diagnostics across retries and provider hops.
type CoreError struct {
	Kind    Kind
	Message string
	Cause   error
}

// New constructs a CoreError of the given kind with a message. Use when the
// failure does not wrap an underlying error but still requires structured
// reporting.
func New(kind Kind, message string) *CoreError {
	if message == "" {
		message = string(kind)
	}
	return &CoreError{Kind: kind, Message: message}
}

// Newf formats according to a format specifier and returns the result as a
// CoreError of the given kind.
func Newf(kind Kind, format string, args ...any) *CoreError {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap constructs a CoreError of the given kind that wraps cause. When
// message is empty the cause's message is reused.
func Wrap(kind Kind, message string, cause error) *CoreError {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &CoreError{Kind: kind, Message: message, Cause: cause}
}

// Error implements the error interface.
func (e *CoreError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause to support errors.Is/As.
func (e *CoreError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is reports whether target is a *CoreError with the same Kind, so callers
// can write errors.Is(err, toolerrors.New(toolerrors.KindTimeout, "")) style
// checks, or more idiomatically compare via KindOf.
func (e *CoreError) Is(target error) bool {
	var t *CoreError
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the Kind of err if it is (or wraps) a *CoreError, and
// whether one was found.
func KindOf(err error) (Kind, bool) {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}
