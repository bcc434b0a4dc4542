package providers

import (
	"context"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewforge/orchestrator/runtime/llm"
)

type stubChatCompletionsClient struct {
	lastParams openai.ChatCompletionNewParams
	resp       *openai.ChatCompletion
	err        error
}

func (s *stubChatCompletionsClient) New(_ context.Context, body openai.ChatCompletionNewParams, _ ...option.RequestOption) (*openai.ChatCompletion, error) {
	s.lastParams = body
	return s.resp, s.err
}

func TestOpenAICallTranslatesTextResponse(t *testing.T) {
	stub := &stubChatCompletionsClient{resp: &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{{
			FinishReason: "stop",
			Message:      openai.ChatCompletionMessage{Content: "hi there"},
		}},
		Usage: openai.CompletionUsage{PromptTokens: 12, CompletionTokens: 3, TotalTokens: 15},
	}}
	o := &OpenAI{chat: stub, model: "gpt-4o"}

	resp, err := o.Call(context.Background(), &llm.Request{
		Messages: []*llm.Message{{Role: llm.RoleUser, Parts: []llm.Part{llm.TextPart{Text: "hi"}}}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Content, 1)
	assert.Equal(t, "hi there", resp.Content[0].TextContent())
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, "stop", resp.StopReason)
}

func TestOpenAICallRejectsEmptyMessages(t *testing.T) {
	o := &OpenAI{chat: &stubChatCompletionsClient{}, model: "gpt-4o"}
	_, err := o.Call(context.Background(), &llm.Request{})
	require.Error(t, err)
}

func TestOpenAISupportsCapabilities(t *testing.T) {
	o := &OpenAI{model: "gpt-4o"}
	assert.True(t, o.SupportsFunctionCalling())
	assert.True(t, o.SupportsMultimodal())
	assert.True(t, o.SupportsStopWords())
	assert.Equal(t, 128_000, o.GetContextWindowSize("gpt-4o-2024-08-06"))
}

func TestOpenAIStreamIsUnsupported(t *testing.T) {
	o := &OpenAI{}
	_, err := o.Stream(context.Background(), &llm.Request{})
	assert.ErrorIs(t, err, llm.ErrStreamingUnsupported)
}
