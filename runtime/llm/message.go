// Package llm defines the provider-agnostic message, request, and response
// shapes consumed by the agent execution loop, plus the Provider contract
// every concrete adapter (OpenAI, Anthropic, Gemini, Bedrock, Azure, xAI)
// implements. A message is modeled as typed parts rather than a flattened
// string so tool calls, tool results, and provider reasoning survive a
// round trip through the canonical shape untouched.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Role identifies the speaker for a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

type (
	// Part is implemented by every concrete message content block.
	Part interface{ isPart() }

	// TextPart is plain text content.
	TextPart struct{ Text string }

	// ImagePart carries image bytes for multimodal requests.
	ImagePart struct {
		Format string // "png", "jpeg", "gif", "webp"
		Bytes  []byte
	}

	// ThinkingPart carries provider-issued reasoning content. Callers treat
	// it as opaque and surface it according to UI policy; it is never
	// re-sent to a different provider.
	ThinkingPart struct {
		Text      string
		Signature string
	}

	// ToolUsePart declares a tool invocation requested by the assistant.
	ToolUsePart struct {
		ID    string
		Name  string
		Input any
	}

	// ToolResultPart carries the result of a prior tool invocation, matched
	// back to its ToolUsePart via ToolUseID.
	ToolResultPart struct {
		ToolUseID string
		Content   any
		IsError   bool
	}

	// Message is a single chat message: an ordered list of typed parts
	// under one role.
	Message struct {
		Role  Role
		Parts []Part
		Meta  map[string]any
	}

	// ToolDefinition describes a tool exposed to the model.
	ToolDefinition struct {
		Name        string
		Description string
		InputSchema any
	}

	// ToolCall is a normalized tool invocation requested by the model,
	// regardless of whether the underlying provider used native tool_calls
	// or a ReAct-style "Action:" text convention.
	ToolCall struct {
		ID      string
		Name    string
		Payload json.RawMessage
	}

	// ToolChoiceMode controls how the model is asked to use tools.
	ToolChoiceMode string

	// ToolChoice configures optional tool-use behavior for a Request. Nil
	// means provider-default (normally auto).
	ToolChoice struct {
		Mode ToolChoiceMode
		Name string
	}

	// ThinkingOptions configures provider reasoning behavior.
	ThinkingOptions struct {
		Enable       bool
		BudgetTokens int
	}

	// TokenUsage tracks token counts for a single call.
	TokenUsage struct {
		InputTokens      int
		OutputTokens     int
		TotalTokens      int
		CacheReadTokens  int
		CacheWriteTokens int
	}

	// ModelClass selects a model family when Model is not specified.
	ModelClass string

	// Request captures the inputs to a single model invocation.
	Request struct {
		Model       string
		ModelClass  ModelClass
		Messages    []*Message
		Temperature float32
		MaxTokens   int
		Tools       []*ToolDefinition
		ToolChoice  *ToolChoice
		Stop        []string
		Thinking    *ThinkingOptions
	}

	// Response is the result of a non-streaming invocation.
	Response struct {
		Content    []Message
		ToolCalls  []ToolCall
		Usage      TokenUsage
		StopReason string
	}

	// StreamChunk is one increment of a streaming response. Exactly one of
	// Text, Thinking, ToolCallDelta, or Done/Err is meaningful per chunk,
	// discriminated by Type.
	StreamChunk struct {
		Type          StreamChunkType
		Text          string
		Thinking      string
		ToolCallDelta *ToolCallDelta
		Done          *Response
		Err           error
	}

	// ToolCallDelta is an incremental fragment of a tool call's input JSON,
	// streamed before the call closes. Best-effort; the canonical payload
	// is always the ToolCall carried on the terminal Done response.
	ToolCallDelta struct {
		Index int
		ID    string
		Name  string
		Args  string
	}

	// StreamChunkType discriminates StreamChunk payloads.
	StreamChunkType string

	// Streamer delivers incremental model output. Callers drain Recv until
	// it returns a chunk with Type == StreamChunkDone (or StreamChunkError),
	// then call Close.
	Streamer interface {
		Recv(ctx context.Context) (StreamChunk, error)
		Close() error
	}

	// Provider is the uniform contract over heterogeneous provider HTTP
	// APIs. Go's single Call method (no colored call/acall split) replaces
	// the synchronous/asynchronous pair other languages need, since every
	// blocking operation here already takes a context.
	Provider interface {
		Call(ctx context.Context, req *Request) (*Response, error)

		// Stream performs a streaming invocation. Providers that cannot
		// stream return ErrStreamingUnsupported.
		Stream(ctx context.Context, req *Request) (Streamer, error)

		SupportsFunctionCalling() bool
		SupportsMultimodal() bool
		SupportsStopWords() bool
		GetContextWindowSize(model string) int
	}
)

const (
	StreamChunkText          StreamChunkType = "text"
	StreamChunkThinking      StreamChunkType = "thinking"
	StreamChunkToolCallDelta StreamChunkType = "tool_call_delta"
	StreamChunkDone          StreamChunkType = "done"
	StreamChunkError         StreamChunkType = "error"
)

const (
	ToolChoiceAuto ToolChoiceMode = "auto"
	ToolChoiceNone ToolChoiceMode = "none"
	ToolChoiceAny  ToolChoiceMode = "any"
	ToolChoiceTool ToolChoiceMode = "tool"
)

const (
	ModelClassDefault       ModelClass = "default"
	ModelClassHighReasoning ModelClass = "high-reasoning"
	ModelClassSmall         ModelClass = "small"
)

// ErrStreamingUnsupported indicates the provider does not support streaming.
var ErrStreamingUnsupported = errors.New("llm: streaming not supported")

// ErrRateLimited indicates the provider rejected the request due to rate
// limiting after exhausting configured retries.
var ErrRateLimited = errors.New("llm: rate limited")

func (TextPart) isPart()       {}
func (ImagePart) isPart()      {}
func (ThinkingPart) isPart()   {}
func (ToolUsePart) isPart()    {}
func (ToolResultPart) isPart() {}

// TextContent concatenates every TextPart in m, ignoring other part kinds.
// Most callers only care about the assistant's visible text.
func (m Message) TextContent() string {
	var out string
	for _, p := range m.Parts {
		if t, ok := p.(TextPart); ok {
			out += t.Text
		}
	}
	return out
}
