package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/crewforge/orchestrator/runtime/llm"
)

type (
	// chatCompletionsClient captures the subset of the OpenAI SDK client used
	// by the adapter, so tests can substitute a mock.
	chatCompletionsClient interface {
		New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
	}

	// OpenAIOptions configures the OpenAI adapter. Azure and xAI reuse this
	// adapter with a different base URL and auth header via option.RequestOption,
	// since both expose an OpenAI-compatible chat/completions endpoint.
	OpenAIOptions struct {
		DefaultModel string
		Organization string
	}

	// OpenAI implements llm.Provider on top of the Chat Completions API.
	OpenAI struct {
		chat    chatCompletionsClient
		model   string
		tracker llm.TokenTracker
	}
)

// NewOpenAI builds an OpenAI-backed provider from an API key.
func NewOpenAI(apiKey string, opts OpenAIOptions) (*OpenAI, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("openai: default model is required")
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if opts.Organization != "" {
		reqOpts = append(reqOpts, option.WithOrganization(opts.Organization))
	}
	client := openai.NewClient(reqOpts...)
	return &OpenAI{chat: &client.Chat.Completions, model: opts.DefaultModel}, nil
}

// NewOpenAICompatible builds a provider against any OpenAI-shaped endpoint
// (Azure deployments, xAI) by overriding the base URL and auth scheme.
func NewOpenAICompatible(baseURL string, defaultModel string, authOpts ...option.RequestOption) (*OpenAI, error) {
	if defaultModel == "" {
		return nil, errors.New("openai-compatible: default model is required")
	}
	reqOpts := append([]option.RequestOption{option.WithBaseURL(baseURL)}, authOpts...)
	client := openai.NewClient(reqOpts...)
	return &OpenAI{chat: &client.Chat.Completions, model: defaultModel}, nil
}

func (o *OpenAI) SupportsFunctionCalling() bool         { return true }
func (o *OpenAI) SupportsMultimodal() bool              { return true }
func (o *OpenAI) SupportsStopWords() bool               { return true }
func (o *OpenAI) GetContextWindowSize(model string) int { return llm.ContextWindowSize(model) }
func (o *OpenAI) Stream(context.Context, *llm.Request) (llm.Streamer, error) {
	return nil, llm.ErrStreamingUnsupported
}

// Call issues a Chat Completions request under retry/backoff.
func (o *OpenAI) Call(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	params, err := o.prepareRequest(req)
	if err != nil {
		return nil, err
	}
	resp, err := llm.Retry(ctx, llm.DefaultRetryConfig, func(ctx context.Context) (*openai.ChatCompletion, error) {
		resp, err := o.chat.New(ctx, *params)
		if err != nil {
			return nil, classifyOpenAIError(err)
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	out, err := translateOpenAIResponse(resp)
	if err != nil {
		return nil, err
	}
	o.tracker.Track(out.Usage)
	return out, nil
}

func (o *OpenAI) prepareRequest(req *llm.Request) (*openai.ChatCompletionNewParams, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("openai: messages are required")
	}
	modelID := req.Model
	if modelID == "" {
		modelID = o.model
	}
	messages, err := encodeOpenAIMessages(req.Messages)
	if err != nil {
		return nil, err
	}
	params := &openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(modelID),
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(float64(req.Temperature))
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if len(req.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: req.Stop}
	}
	if tools, err := encodeOpenAITools(req.Tools); err != nil {
		return nil, err
	} else if len(tools) > 0 {
		params.Tools = tools
	}
	return params, nil
}

func encodeOpenAIMessages(msgs []*llm.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		text := m.TextContent()
		switch m.Role {
		case llm.RoleSystem:
			out = append(out, openai.SystemMessage(text))
		case llm.RoleUser:
			out = append(out, openai.UserMessage(text))
		case llm.RoleAssistant:
			var calls []openai.ChatCompletionMessageToolCallParam
			for _, p := range m.Parts {
				if tu, ok := p.(llm.ToolUsePart); ok {
					args, err := json.Marshal(tu.Input)
					if err != nil {
						return nil, fmt.Errorf("openai: marshal tool_use input: %w", err)
					}
					calls = append(calls, openai.ChatCompletionMessageToolCallParam{
						ID: tu.ID,
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      tu.Name,
							Arguments: string(args),
						},
					})
				}
			}
			msg := openai.ChatCompletionAssistantMessageParam{}
			if text != "" {
				msg.Content.OfString = openai.String(text)
			}
			if len(calls) > 0 {
				msg.ToolCalls = calls
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &msg})
		case llm.RoleTool:
			var toolCallID string
			for _, p := range m.Parts {
				if tr, ok := p.(llm.ToolResultPart); ok {
					toolCallID = tr.ToolUseID
					break
				}
			}
			out = append(out, openai.ToolMessage(text, toolCallID))
		default:
			return nil, fmt.Errorf("openai: unsupported message role %q", m.Role)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("openai: at least one message is required")
	}
	return out, nil
}

func encodeOpenAITools(defs []*llm.ToolDefinition) ([]openai.ChatCompletionToolParam, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	out := make([]openai.ChatCompletionToolParam, 0, len(defs))
	for _, def := range defs {
		if def == nil {
			continue
		}
		var schema map[string]any
		raw, err := json.Marshal(def.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("openai: marshal tool %s schema: %w", def.Name, err)
		}
		if err := json.Unmarshal(raw, &schema); err != nil {
			return nil, fmt.Errorf("openai: tool %s schema: %w", def.Name, err)
		}
		out = append(out, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        def.Name,
				Description: openai.String(def.Description),
				Parameters:  shared.FunctionParameters(schema),
			},
		})
	}
	return out, nil
}

func translateOpenAIResponse(resp *openai.ChatCompletion) (*llm.Response, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, errors.New("openai: response has no choices")
	}
	choice := resp.Choices[0]
	out := &llm.Response{StopReason: string(choice.FinishReason)}
	if content := choice.Message.Content; content != "" {
		out.Content = append(out.Content, llm.Message{
			Role:  llm.RoleAssistant,
			Parts: []llm.Part{llm.TextPart{Text: content}},
		})
	}
	for _, call := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			ID:      call.ID,
			Name:    call.Function.Name,
			Payload: json.RawMessage(call.Function.Arguments),
		})
	}
	out.Usage = llm.TokenUsage{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:  int(resp.Usage.TotalTokens),
	}
	return out, nil
}

// classifyOpenAIError marks network errors, 429, and 5xx as retryable.
func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if llm.IsTransientHTTPStatus(apiErr.StatusCode) {
			retryAfter := llm.ParseRetryAfter(apiErr.Response.Header.Get("Retry-After"))
			if apiErr.StatusCode == http.StatusTooManyRequests {
				return llm.NewRateLimitedError(err, retryAfter)
			}
			return llm.NewRetryableError(err, retryAfter)
		}
		return err
	}
	return llm.NewRetryableError(err, 0)
}

var _ llm.Provider = (*OpenAI)(nil)
