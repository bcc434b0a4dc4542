// Package providers holds one adapter per supported LLM backend, each
// implementing llm.Provider by translating the canonical Request/Response
// shapes into a provider's native wire format.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/crewforge/orchestrator/runtime/llm"
)

type (
	// messagesClient captures the subset of the Anthropic SDK client used by
	// the adapter, so tests can substitute a mock.
	messagesClient interface {
		New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
	}

	// AnthropicOptions configures the Anthropic adapter.
	AnthropicOptions struct {
		DefaultModel string
		MaxTokens    int
		Temperature  float64
	}

	// Anthropic implements llm.Provider on top of Claude's Messages API.
	Anthropic struct {
		msg     messagesClient
		model   string
		maxTok  int
		temp    float64
		tracker llm.TokenTracker
	}
)

// NewAnthropic builds an Anthropic-backed provider from an API key.
func NewAnthropic(apiKey string, opts AnthropicOptions) (*Anthropic, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("anthropic: default model is required")
	}
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	return &Anthropic{
		msg:    &client.Messages,
		model:  opts.DefaultModel,
		maxTok: opts.MaxTokens,
		temp:   opts.Temperature,
	}, nil
}

func (a *Anthropic) SupportsFunctionCalling() bool { return true }
func (a *Anthropic) SupportsMultimodal() bool      { return true }
func (a *Anthropic) SupportsStopWords() bool       { return true }
func (a *Anthropic) GetContextWindowSize(model string) int {
	return llm.ContextWindowSize(model)
}

func (a *Anthropic) Stream(context.Context, *llm.Request) (llm.Streamer, error) {
	return nil, llm.ErrStreamingUnsupported
}

// Call issues a Messages.New request under retry/backoff and translates the
// response into the canonical shape.
func (a *Anthropic) Call(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	params, err := a.prepareRequest(req)
	if err != nil {
		return nil, err
	}
	resp, err := llm.Retry(ctx, llm.DefaultRetryConfig, func(ctx context.Context) (*sdk.Message, error) {
		msg, err := a.msg.New(ctx, *params)
		if err != nil {
			return nil, classifyAnthropicError(err)
		}
		return msg, nil
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic messages.new: %w", err)
	}
	out, err := translateAnthropicResponse(resp)
	if err != nil {
		return nil, err
	}
	a.tracker.Track(out.Usage)
	return out, nil
}

func (a *Anthropic) prepareRequest(req *llm.Request) (*sdk.MessageNewParams, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("anthropic: messages are required")
	}
	modelID := req.Model
	if modelID == "" {
		modelID = a.model
	}
	msgs, system, err := encodeAnthropicMessages(req.Messages)
	if err != nil {
		return nil, err
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = a.maxTok
	}
	if maxTokens <= 0 {
		return nil, errors.New("anthropic: max_tokens must be positive")
	}
	params := &sdk.MessageNewParams{
		MaxTokens: int64(maxTokens),
		Messages:  msgs,
		Model:     sdk.Model(modelID),
	}
	if len(system) > 0 {
		params.System = system
	}
	if t := req.Temperature; t > 0 {
		params.Temperature = sdk.Float(float64(t))
	} else if a.temp > 0 {
		params.Temperature = sdk.Float(a.temp)
	}
	if tools, err := encodeAnthropicTools(req.Tools); err != nil {
		return nil, err
	} else if len(tools) > 0 {
		params.Tools = tools
	}
	return params, nil
}

func encodeAnthropicMessages(msgs []*llm.Message) ([]sdk.MessageParam, []sdk.TextBlockParam, error) {
	conversation := make([]sdk.MessageParam, 0, len(msgs))
	system := make([]sdk.TextBlockParam, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		if m.Role == llm.RoleSystem {
			if text := m.TextContent(); text != "" {
				system = append(system, sdk.TextBlockParam{Text: text})
			}
			continue
		}
		blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Parts))
		for _, part := range m.Parts {
			switch v := part.(type) {
			case llm.TextPart:
				if v.Text != "" {
					blocks = append(blocks, sdk.NewTextBlock(v.Text))
				}
			case llm.ToolUsePart:
				blocks = append(blocks, sdk.NewToolUseBlock(v.ID, v.Input, v.Name))
			case llm.ToolResultPart:
				blocks = append(blocks, encodeAnthropicToolResult(v))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		switch m.Role {
		case llm.RoleUser, llm.RoleTool:
			conversation = append(conversation, sdk.NewUserMessage(blocks...))
		case llm.RoleAssistant:
			conversation = append(conversation, sdk.NewAssistantMessage(blocks...))
		default:
			return nil, nil, fmt.Errorf("anthropic: unsupported message role %q", m.Role)
		}
	}
	if len(conversation) == 0 {
		return nil, nil, errors.New("anthropic: at least one user/assistant message is required")
	}
	return conversation, system, nil
}

func encodeAnthropicToolResult(v llm.ToolResultPart) sdk.ContentBlockParamUnion {
	var content string
	switch c := v.Content.(type) {
	case nil:
		content = ""
	case string:
		content = c
	default:
		if data, err := json.Marshal(c); err == nil {
			content = string(data)
		}
	}
	return sdk.NewToolResultBlock(v.ToolUseID, content, v.IsError)
}

func encodeAnthropicTools(defs []*llm.ToolDefinition) ([]sdk.ToolUnionParam, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	out := make([]sdk.ToolUnionParam, 0, len(defs))
	for _, def := range defs {
		if def == nil || def.Name == "" {
			continue
		}
		raw, err := json.Marshal(def.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("anthropic: marshal tool %s schema: %w", def.Name, err)
		}
		var schemaMap map[string]any
		if err := json.Unmarshal(raw, &schemaMap); err != nil {
			return nil, fmt.Errorf("anthropic: tool %s schema: %w", def.Name, err)
		}
		u := sdk.ToolUnionParamOfTool(sdk.ToolInputSchemaParam{ExtraFields: schemaMap}, def.Name)
		if u.OfTool != nil {
			u.OfTool.Description = sdk.String(def.Description)
		}
		out = append(out, u)
	}
	return out, nil
}

func translateAnthropicResponse(msg *sdk.Message) (*llm.Response, error) {
	if msg == nil {
		return nil, errors.New("anthropic: response message is nil")
	}
	resp := &llm.Response{StopReason: string(msg.StopReason)}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			if block.Text != "" {
				resp.Content = append(resp.Content, llm.Message{
					Role:  llm.RoleAssistant,
					Parts: []llm.Part{llm.TextPart{Text: block.Text}},
				})
			}
		case "tool_use":
			payload, err := json.Marshal(block.Input)
			if err != nil {
				return nil, fmt.Errorf("anthropic: marshal tool_use input: %w", err)
			}
			resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
				ID: block.ID, Name: block.Name, Payload: payload,
			})
		}
	}
	u := msg.Usage
	resp.Usage = llm.TokenUsage{
		InputTokens:      int(u.InputTokens),
		OutputTokens:     int(u.OutputTokens),
		TotalTokens:      int(u.InputTokens + u.OutputTokens),
		CacheReadTokens:  int(u.CacheReadInputTokens),
		CacheWriteTokens: int(u.CacheCreationInputTokens),
	}
	return resp, nil
}

// classifyAnthropicError marks network errors, 429, 5xx, and the
// Anthropic-specific 529 (overloaded) as retryable.
func classifyAnthropicError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		status := apiErr.Response.StatusCode
		if llm.IsTransientHTTPStatus(status) {
			retryAfter := llm.ParseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
			if status == http.StatusTooManyRequests {
				return llm.NewRateLimitedError(err, retryAfter)
			}
			return llm.NewRetryableError(err, retryAfter)
		}
		return err
	}
	// Anything that isn't a well-formed API error (network failure, DNS,
	// connection reset) is treated as transient.
	return llm.NewRetryableError(err, 0)
}

var _ llm.Provider = (*Anthropic)(nil)
