package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/crewforge/orchestrator/runtime/telemetry"
	"github.com/crewforge/orchestrator/runtime/toolerrors"
)

// MismatchBehavior controls how the scope tracker reacts to an empty pop or
// a mismatched opener/closer pairing.
type MismatchBehavior int

const (
	// Warn logs the condition and continues.
	Warn MismatchBehavior = iota
	// Raise returns a ScopeViolation error to the caller.
	Raise
	// Silent does nothing.
	Silent
)

// ScopeConfig configures a Scope's depth limit and mismatch behaviors.
type ScopeConfig struct {
	// MaxStackDepth bounds the scope stack; exceeding it on push is fatal
	// and indicates a missing closer. Zero means "use the default" (100).
	MaxStackDepth int
	// MismatchBehavior governs a popped opener type that does not match
	// the expected opener from ValidEventPairs.
	MismatchBehavior MismatchBehavior
	// EmptyPopBehavior governs popping an already-empty stack.
	EmptyPopBehavior MismatchBehavior
}

// DefaultScopeConfig is used when a Scope is constructed with the zero
// ScopeConfig.
var DefaultScopeConfig = ScopeConfig{MaxStackDepth: 100, MismatchBehavior: Warn, EmptyPopBehavior: Warn}

type scopeEntry struct {
	EventID   string
	EventType string
}

// Scope carries everything the spec describes as thread-local: the open
// scope stack, the emission-sequence counter, and the last/triggering event
// ids. Go has no native thread-local storage, so a Scope is instead threaded
// explicitly through context.Context (see NewContext/FromContext) — one
// logical "thread" is one call chain that shares a context, which is the Go
// idiom closest to the original per-OS-thread semantics. A bus falls back to
// one process-wide default Scope for callers that never derive their own.
type Scope struct {
	mu                sync.Mutex
	stack             []scopeEntry
	lastEventID       *string
	triggeringEventID *string
	seq               int64
	cfg               ScopeConfig
	logger            telemetry.Logger
}

// NewScope constructs a Scope with cfg (zero value resolves to
// DefaultScopeConfig).
func NewScope(cfg ScopeConfig) *Scope {
	if cfg.MaxStackDepth == 0 {
		cfg.MaxStackDepth = DefaultScopeConfig.MaxStackDepth
	}
	return &Scope{cfg: cfg, logger: telemetry.NewNoopLogger()}
}

// SetLogger overrides the logger used for Warn-behavior diagnostics.
func (s *Scope) SetLogger(l telemetry.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
}

// NextEmissionSequence returns the next per-scope monotonically increasing
// sequence number.
func (s *Scope) NextEmissionSequence() int64 {
	return atomic.AddInt64(&s.seq, 1)
}

// LastEventID returns the id of the last event emitted on this scope, if any.
func (s *Scope) LastEventID() *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastEventID
}

// SetLastEventID records the id of the most recently emitted event.
func (s *Scope) SetLastEventID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastEventID = &id
}

// TriggeringEventID returns the id currently installed as the "triggered by"
// cause for newly emitted events.
func (s *Scope) TriggeringEventID() *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.triggeringEventID
}

// SetTriggeringEventID installs id as the triggering cause. Passing nil
// clears it.
func (s *Scope) SetTriggeringEventID(id *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggeringEventID = id
}

// CurrentParentID returns the event id at the top of the scope stack, or nil
// if the stack is empty.
func (s *Scope) CurrentParentID() *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stack) == 0 {
		return nil
	}
	return &s.stack[len(s.stack)-1].EventID
}

// EnclosingParentID returns the event id second-from-top of the scope stack,
// used when a closer pops its own opener off the top.
func (s *Scope) EnclosingParentID() *string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stack) < 2 {
		return nil
	}
	return &s.stack[len(s.stack)-2].EventID
}

// PushEventScope pushes a new open scope. Returns a StackDepthExceeded
// CoreError if the configured max depth would be exceeded — this indicates a
// missing closer upstream and is always fatal regardless of MismatchBehavior.
func (s *Scope) PushEventScope(eventID, eventType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.MaxStackDepth > 0 && len(s.stack) >= s.cfg.MaxStackDepth {
		return toolerrors.Newf(toolerrors.KindStackDepthExceeded, "scope stack exceeded max depth %d", s.cfg.MaxStackDepth)
	}
	s.stack = append(s.stack, scopeEntry{EventID: eventID, EventType: eventType})
	return nil
}

// PopEventScope pops the top scope, returning ok=false if the stack was
// already empty.
func (s *Scope) PopEventScope() (eventID, eventType string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stack) == 0 {
		return "", "", false
	}
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return top.EventID, top.EventType, true
}

// Depth reports the current open-scope stack depth.
func (s *Scope) Depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stack)
}

// handleEmptyPop reacts to popping an already-empty stack per
// EmptyPopBehavior.
func (s *Scope) handleEmptyPop(ctx context.Context, eventType string) error {
	msg := fmt.Sprintf("scope pop for %q found an empty stack (missing opener)", eventType)
	switch s.cfg.EmptyPopBehavior {
	case Raise:
		return toolerrors.New(toolerrors.KindScopeViolation, msg)
	case Warn:
		s.logger.Warn(ctx, msg)
	}
	return nil
}

// handleMismatch reacts to a popped opener type that does not match the
// expected opener per MismatchBehavior.
func (s *Scope) handleMismatch(ctx context.Context, closerType, poppedType, expected string) error {
	msg := fmt.Sprintf("scope mismatch: %q expected opener %q but popped %q", closerType, expected, poppedType)
	switch s.cfg.MismatchBehavior {
	case Raise:
		return toolerrors.New(toolerrors.KindScopeViolation, msg)
	case Warn:
		s.logger.Warn(ctx, msg)
	}
	return nil
}

type scopeCtxKey struct{}

// NewContext returns a context carrying scope, retrievable with FromContext.
func NewContext(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeCtxKey{}, scope)
}

// FromContext retrieves the Scope carried by ctx, or fallback if none is
// present.
func FromContext(ctx context.Context, fallback *Scope) *Scope {
	if s, ok := ctx.Value(scopeCtxKey{}).(*Scope); ok && s != nil {
		return s
	}
	return fallback
}

// SCOPE_STARTING_EVENTS are event type discriminators that open a new scope
// when emitted without an explicit parent_event_id.
var SCOPE_STARTING_EVENTS = map[string]bool{
	"flow_started":                    true,
	"method_execution_started":        true,
	"crew_kickoff_started":            true,
	"crew_train_started":              true,
	"crew_test_started":               true,
	"agent_execution_started":         true,
	"agent_evaluation_started":        true,
	"lite_agent_execution_started":    true,
	"task_started":                    true,
	"llm_call_started":                true,
	"llm_guardrail_started":           true,
	"tool_usage_started":              true,
	"mcp_connection_started":          true,
	"mcp_tool_execution_started":      true,
	"memory_retrieval_started":        true,
	"memory_save_started":             true,
	"memory_query_started":            true,
	"knowledge_query_started":         true,
	"knowledge_search_query_started":  true,
	"a2a_delegation_started":          true,
	"a2a_conversation_started":        true,
	"a2a_server_task_started":         true,
	"a2a_parallel_delegation_started": true,
	"agent_reasoning_started":         true,
}

// SCOPE_ENDING_EVENTS are the closer discriminators for every entry in
// SCOPE_STARTING_EVENTS (success, failure, and cancellation variants).
var SCOPE_ENDING_EVENTS = map[string]bool{
	"flow_finished": true, "flow_failed": true,
	"method_execution_completed": true, "method_execution_failed": true,
	"crew_kickoff_completed": true, "crew_kickoff_failed": true,
	"crew_train_completed": true, "crew_train_failed": true,
	"crew_test_completed": true, "crew_test_failed": true,
	"agent_execution_completed": true, "agent_execution_error": true,
	"agent_evaluation_completed": true, "agent_evaluation_failed": true,
	"lite_agent_execution_completed": true, "lite_agent_execution_error": true,
	"task_completed": true, "task_failed": true,
	"llm_call_completed": true, "llm_call_failed": true,
	"llm_guardrail_completed": true,
	"tool_usage_finished":     true, "tool_usage_error": true,
	"mcp_connection_completed": true, "mcp_connection_failed": true,
	"mcp_tool_execution_completed": true, "mcp_tool_execution_failed": true,
	"memory_retrieval_completed": true, "memory_retrieval_failed": true,
	"memory_save_completed": true, "memory_save_failed": true,
	"memory_query_completed": true, "memory_query_failed": true,
	"knowledge_query_completed": true, "knowledge_query_failed": true,
	"knowledge_search_query_completed": true, "knowledge_search_query_failed": true,
	"a2a_delegation_completed": true, "a2a_delegation_failed": true,
	"a2a_conversation_completed": true, "a2a_conversation_failed": true,
	"a2a_server_task_completed": true, "a2a_server_task_canceled": true, "a2a_server_task_failed": true,
	"a2a_parallel_delegation_completed": true, "a2a_parallel_delegation_failed": true,
	"agent_reasoning_completed": true, "agent_reasoning_failed": true,
}

// VALID_EVENT_PAIRS maps each closer discriminator to the opener
// discriminator it is expected to match when popped off the scope stack.
var VALID_EVENT_PAIRS = map[string]string{
	"flow_finished":                     "flow_started",
	"flow_failed":                       "flow_started",
	"method_execution_completed":        "method_execution_started",
	"method_execution_failed":           "method_execution_started",
	"crew_kickoff_completed":            "crew_kickoff_started",
	"crew_kickoff_failed":               "crew_kickoff_started",
	"crew_train_completed":              "crew_train_started",
	"crew_train_failed":                 "crew_train_started",
	"crew_test_completed":               "crew_test_started",
	"crew_test_failed":                  "crew_test_started",
	"agent_execution_completed":         "agent_execution_started",
	"agent_execution_error":             "agent_execution_started",
	"agent_evaluation_completed":        "agent_evaluation_started",
	"agent_evaluation_failed":           "agent_evaluation_started",
	"lite_agent_execution_completed":    "lite_agent_execution_started",
	"lite_agent_execution_error":        "lite_agent_execution_started",
	"task_completed":                    "task_started",
	"task_failed":                       "task_started",
	"llm_call_completed":                "llm_call_started",
	"llm_call_failed":                   "llm_call_started",
	"llm_guardrail_completed":           "llm_guardrail_started",
	"tool_usage_finished":               "tool_usage_started",
	"tool_usage_error":                  "tool_usage_started",
	"mcp_connection_completed":          "mcp_connection_started",
	"mcp_connection_failed":             "mcp_connection_started",
	"mcp_tool_execution_completed":      "mcp_tool_execution_started",
	"mcp_tool_execution_failed":         "mcp_tool_execution_started",
	"memory_retrieval_completed":        "memory_retrieval_started",
	"memory_retrieval_failed":           "memory_retrieval_started",
	"memory_save_completed":             "memory_save_started",
	"memory_save_failed":                "memory_save_started",
	"memory_query_completed":            "memory_query_started",
	"memory_query_failed":               "memory_query_started",
	"knowledge_query_completed":         "knowledge_query_started",
	"knowledge_query_failed":            "knowledge_query_started",
	"knowledge_search_query_completed":  "knowledge_search_query_started",
	"knowledge_search_query_failed":     "knowledge_search_query_started",
	"a2a_delegation_completed":          "a2a_delegation_started",
	"a2a_delegation_failed":             "a2a_delegation_started",
	"a2a_conversation_completed":        "a2a_conversation_started",
	"a2a_conversation_failed":           "a2a_conversation_started",
	"a2a_server_task_completed":         "a2a_server_task_started",
	"a2a_server_task_canceled":          "a2a_server_task_started",
	"a2a_server_task_failed":            "a2a_server_task_started",
	"a2a_parallel_delegation_completed": "a2a_parallel_delegation_started",
	"a2a_parallel_delegation_failed":    "a2a_parallel_delegation_started",
	"agent_reasoning_completed":         "agent_reasoning_started",
	"agent_reasoning_failed":            "agent_reasoning_started",
}
