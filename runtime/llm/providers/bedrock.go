package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/crewforge/orchestrator/runtime/llm"
)

type (
	// converseClient captures the subset of the Bedrock runtime client used
	// by the adapter.
	converseClient interface {
		Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
	}

	// BedrockOptions configures the Bedrock Converse adapter.
	BedrockOptions struct {
		DefaultModel string // e.g. "anthropic.claude-3-5-sonnet-20241022-v2:0"
		MaxTokens    int    // default 4096 when unset
		Region       string
	}

	// Bedrock implements llm.Provider on top of the Converse API. SigV4
	// request signing, lowercase-sorted header canonicalization, and
	// colon-escaping in the model ID path are handled internally by
	// aws-sdk-go-v2's request pipeline; the adapter only shapes the
	// Converse request/response bodies.
	Bedrock struct {
		client  converseClient
		model   string
		maxTok  int
		tracker llm.TokenTracker
	}
)

// NewBedrock builds a Bedrock-backed provider using the default AWS
// credential chain (env vars, shared config, SSO, instance role).
func NewBedrock(ctx context.Context, opts BedrockOptions) (*Bedrock, error) {
	if opts.DefaultModel == "" {
		return nil, errors.New("bedrock: default model is required")
	}
	cfgOpts := []func(*config.LoadOptions) error{}
	if opts.Region != "" {
		cfgOpts = append(cfgOpts, config.WithRegion(opts.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("bedrock: load aws config: %w", err)
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Bedrock{
		client: bedrockruntime.NewFromConfig(cfg),
		model:  opts.DefaultModel,
		maxTok: maxTokens,
	}, nil
}

func (b *Bedrock) SupportsFunctionCalling() bool         { return true }
func (b *Bedrock) SupportsMultimodal() bool              { return true }
func (b *Bedrock) SupportsStopWords() bool               { return true }
func (b *Bedrock) GetContextWindowSize(model string) int { return llm.ContextWindowSize(model) }
func (b *Bedrock) Stream(context.Context, *llm.Request) (llm.Streamer, error) {
	return nil, llm.ErrStreamingUnsupported
}

// Call issues a Converse request under retry/backoff. Each retry re-signs
// the request since aws-sdk-go-v2 computes SigV4 freshly per attempt.
func (b *Bedrock) Call(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	params, err := b.prepareRequest(req)
	if err != nil {
		return nil, err
	}
	out, err := llm.Retry(ctx, llm.DefaultRetryConfig, func(ctx context.Context) (*bedrockruntime.ConverseOutput, error) {
		resp, err := b.client.Converse(ctx, params)
		if err != nil {
			return nil, classifyBedrockError(err)
		}
		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock converse: %w", err)
	}
	resp, err := translateBedrockResponse(out)
	if err != nil {
		return nil, err
	}
	b.tracker.Track(resp.Usage)
	return resp, nil
}

func (b *Bedrock) prepareRequest(req *llm.Request) (*bedrockruntime.ConverseInput, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("bedrock: messages are required")
	}
	modelID := req.Model
	if modelID == "" {
		modelID = b.model
	}
	msgs, system, err := encodeBedrockMessages(req.Messages)
	if err != nil {
		return nil, err
	}
	maxTokens := int32(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = int32(b.maxTok)
	}
	params := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(modelID),
		Messages: msgs,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens: aws.Int32(maxTokens),
		},
	}
	if len(system) > 0 {
		params.System = system
	}
	if req.Temperature > 0 {
		params.InferenceConfig.Temperature = aws.Float32(req.Temperature)
	}
	if toolConfig, err := encodeBedrockTools(req.Tools); err != nil {
		return nil, err
	} else if toolConfig != nil {
		params.ToolConfig = toolConfig
	}
	return params, nil
}

func encodeBedrockMessages(msgs []*llm.Message) ([]types.Message, []types.SystemContentBlock, error) {
	var system []types.SystemContentBlock
	var out []types.Message
	for _, m := range msgs {
		if m == nil {
			continue
		}
		if m.Role == llm.RoleSystem {
			if text := m.TextContent(); text != "" {
				system = append(system, &types.SystemContentBlockMemberText{Value: text})
			}
			continue
		}
		var blocks []types.ContentBlock
		for _, p := range m.Parts {
			switch v := p.(type) {
			case llm.TextPart:
				if v.Text != "" {
					blocks = append(blocks, &types.ContentBlockMemberText{Value: v.Text})
				}
			case llm.ToolUsePart:
				doc, err := smithyDocumentFromAny(v.Input)
				if err != nil {
					return nil, nil, err
				}
				blocks = append(blocks, &types.ContentBlockMemberToolUse{
					Value: types.ToolUseBlock{ToolUseId: aws.String(v.ID), Name: aws.String(v.Name), Input: doc},
				})
			case llm.ToolResultPart:
				content := []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberText{Value: fmt.Sprintf("%v", v.Content)}}
				status := types.ToolResultStatusSuccess
				if v.IsError {
					status = types.ToolResultStatusError
				}
				blocks = append(blocks, &types.ContentBlockMemberToolResult{
					Value: types.ToolResultBlock{ToolUseId: aws.String(v.ToolUseID), Content: content, Status: status},
				})
			}
		}
		if len(blocks) == 0 {
			continue
		}
		role := types.ConversationRoleUser
		if m.Role == llm.RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		out = append(out, types.Message{Role: role, Content: blocks})
	}
	if len(out) == 0 {
		return nil, nil, errors.New("bedrock: at least one user/assistant message is required")
	}
	return out, system, nil
}

func encodeBedrockTools(defs []*llm.ToolDefinition) (*types.ToolConfiguration, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	var tools []types.Tool
	for _, def := range defs {
		if def == nil {
			continue
		}
		doc, err := smithyDocumentFromAny(def.InputSchema)
		if err != nil {
			return nil, err
		}
		tools = append(tools, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(def.Name),
				Description: aws.String(def.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: doc},
			},
		})
	}
	return &types.ToolConfiguration{Tools: tools}, nil
}

func translateBedrockResponse(out *bedrockruntime.ConverseOutput) (*llm.Response, error) {
	if out == nil || out.Output == nil {
		return nil, errors.New("bedrock: empty converse output")
	}
	member, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, errors.New("bedrock: unexpected output variant")
	}
	resp := &llm.Response{StopReason: string(out.StopReason)}
	for _, block := range member.Value.Content {
		switch v := block.(type) {
		case *types.ContentBlockMemberText:
			if v.Value != "" {
				resp.Content = append(resp.Content, llm.Message{
					Role:  llm.RoleAssistant,
					Parts: []llm.Part{llm.TextPart{Text: v.Value}},
				})
			}
		case *types.ContentBlockMemberToolUse:
			payload, err := json.Marshal(v.Value.Input)
			if err != nil {
				return nil, fmt.Errorf("bedrock: marshal tool input: %w", err)
			}
			resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
				ID:      aws.ToString(v.Value.ToolUseId),
				Name:    aws.ToString(v.Value.Name),
				Payload: payload,
			})
		}
	}
	if out.Usage != nil {
		resp.Usage = llm.TokenUsage{
			InputTokens:  int(aws.ToInt32(out.Usage.InputTokens)),
			OutputTokens: int(aws.ToInt32(out.Usage.OutputTokens)),
			TotalTokens:  int(aws.ToInt32(out.Usage.TotalTokens)),
		}
	}
	return resp, nil
}

func smithyDocumentFromAny(v any) (document.Interface, error) {
	return document.NewLazyDocument(&v), nil
}

// classifyBedrockError marks throttling and 5xx responses as retryable.
func classifyBedrockError(err error) error {
	var throttled *types.ThrottlingException
	if errors.As(err, &throttled) {
		return llm.NewRateLimitedError(err, 0)
	}
	var unavailable *types.ServiceUnavailableException
	if errors.As(err, &unavailable) {
		return llm.NewRetryableError(err, 0)
	}
	var internal *types.InternalServerException
	if errors.As(err, &internal) {
		return llm.NewRetryableError(err, 0)
	}
	return err
}

var _ llm.Provider = (*Bedrock)(nil)
