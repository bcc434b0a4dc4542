package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/crewforge/orchestrator/runtime/llm"
)

// Gemini implements llm.Provider directly over Google's Gen AI REST API.
// No lightweight official Go SDK for Gemini ships in the dependency set
// this module draws from, so the adapter speaks the generateContent wire
// format directly, mirroring the request/response shaping the rest of the
// adapters do through their respective SDKs.
type (
	GeminiOptions struct {
		DefaultModel string
		APIKey       string // GOOGLE_API_KEY or GEMINI_API_KEY
		HTTPClient   *http.Client
	}

	Gemini struct {
		apiKey  string
		model   string
		http    *http.Client
		tracker llm.TokenTracker
	}
)

const geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta/models"

func NewGemini(opts GeminiOptions) (*Gemini, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("gemini: default model is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Gemini{apiKey: opts.APIKey, model: opts.DefaultModel, http: client}, nil
}

func (g *Gemini) SupportsFunctionCalling() bool         { return true }
func (g *Gemini) SupportsMultimodal() bool              { return true }
func (g *Gemini) SupportsStopWords() bool               { return true }
func (g *Gemini) GetContextWindowSize(model string) int { return llm.ContextWindowSize(model) }
func (g *Gemini) Stream(context.Context, *llm.Request) (llm.Streamer, error) {
	return nil, llm.ErrStreamingUnsupported
}

type geminiPart struct {
	Text         string              `json:"text,omitempty"`
	FunctionCall *geminiFunctionCall `json:"functionCall,omitempty"`
	FunctionResp *geminiFunctionResp `json:"functionResponse,omitempty"`
}

type geminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type geminiFunctionResp struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiFunctionDeclaration struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations"`
}

type geminiGenerationConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	StopSequences   []string `json:"stopSequences,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Tools             []geminiTool            `json:"tools,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Call issues a generateContent request under retry/backoff.
func (g *Gemini) Call(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	body, err := g.prepareRequest(req)
	if err != nil {
		return nil, err
	}
	modelID := req.Model
	if modelID == "" {
		modelID = g.model
	}
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiAPIBase, modelID, g.apiKey)

	resp, err := llm.Retry(ctx, llm.DefaultRetryConfig, func(ctx context.Context) (*geminiResponse, error) {
		return g.doRequest(ctx, url, body)
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generateContent: %w", err)
	}
	out, err := translateGeminiResponse(resp)
	if err != nil {
		return nil, err
	}
	g.tracker.Track(out.Usage)
	return out, nil
}

func (g *Gemini) doRequest(ctx context.Context, url string, body []byte) (*geminiResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := g.http.Do(httpReq)
	if err != nil {
		return nil, llm.NewRetryableError(err, 0)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if llm.IsTransientHTTPStatus(resp.StatusCode) {
		apiErr := fmt.Errorf("gemini: status %d: %s", resp.StatusCode, data)
		retryAfter := llm.ParseRetryAfter(resp.Header.Get("Retry-After"))
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, llm.NewRateLimitedError(apiErr, retryAfter)
		}
		return nil, llm.NewRetryableError(apiErr, retryAfter)
	}
	var out geminiResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("gemini: decode response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("gemini: api error %d: %s", out.Error.Code, out.Error.Message)
	}
	return &out, nil
}

func (g *Gemini) prepareRequest(req *llm.Request) ([]byte, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("gemini: messages are required")
	}
	body := geminiRequest{}
	for _, m := range req.Messages {
		if m == nil {
			continue
		}
		if m.Role == llm.RoleSystem {
			if text := m.TextContent(); text != "" {
				body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: text}}}
			}
			continue
		}
		content := geminiContent{Role: geminiRole(m.Role)}
		for _, p := range m.Parts {
			switch v := p.(type) {
			case llm.TextPart:
				if v.Text != "" {
					content.Parts = append(content.Parts, geminiPart{Text: v.Text})
				}
			case llm.ToolUsePart:
				args, _ := v.Input.(map[string]any)
				content.Parts = append(content.Parts, geminiPart{
					FunctionCall: &geminiFunctionCall{Name: v.Name, Args: args},
				})
			case llm.ToolResultPart:
				respMap, _ := v.Content.(map[string]any)
				if respMap == nil {
					respMap = map[string]any{"result": v.Content}
				}
				content.Parts = append(content.Parts, geminiPart{
					FunctionResp: &geminiFunctionResp{Name: v.ToolUseID, Response: respMap},
				})
			}
		}
		if len(content.Parts) == 0 {
			continue
		}
		body.Contents = append(body.Contents, content)
	}
	if len(body.Contents) == 0 {
		return nil, errors.New("gemini: at least one user/assistant message is required")
	}
	if len(req.Tools) > 0 {
		decls := make([]geminiFunctionDeclaration, 0, len(req.Tools))
		for _, def := range req.Tools {
			if def == nil {
				continue
			}
			decls = append(decls, geminiFunctionDeclaration{
				Name: def.Name, Description: def.Description, Parameters: def.InputSchema,
			})
		}
		body.Tools = []geminiTool{{FunctionDeclarations: decls}}
	}
	cfg := &geminiGenerationConfig{StopSequences: req.Stop}
	if req.Temperature > 0 {
		t := req.Temperature
		cfg.Temperature = &t
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = req.MaxTokens
	}
	body.GenerationConfig = cfg
	return json.Marshal(body)
}

// geminiRole maps canonical roles to Gemini's role vocabulary: "assistant"
// becomes "model"; "tool" becomes "function"; everything else becomes "user".
func geminiRole(r llm.Role) string {
	switch r {
	case llm.RoleAssistant:
		return "model"
	case llm.RoleTool:
		return "function"
	default:
		return "user"
	}
}

func translateGeminiResponse(resp *geminiResponse) (*llm.Response, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, errors.New("gemini: response has no candidates")
	}
	candidate := resp.Candidates[0]
	out := &llm.Response{StopReason: candidate.FinishReason}
	fabricatedID := 0
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			out.Content = append(out.Content, llm.Message{
				Role:  llm.RoleAssistant,
				Parts: []llm.Part{llm.TextPart{Text: part.Text}},
			})
		}
		if part.FunctionCall != nil {
			payload, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return nil, fmt.Errorf("gemini: marshal functionCall args: %w", err)
			}
			fabricatedID++
			out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
				ID:      fmt.Sprintf("gemini-call-%d", fabricatedID),
				Name:    part.FunctionCall.Name,
				Payload: payload,
			})
		}
	}
	out.Usage = llm.TokenUsage{
		InputTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		TotalTokens:  resp.UsageMetadata.TotalTokenCount,
	}
	return out, nil
}

var _ llm.Provider = (*Gemini)(nil)
