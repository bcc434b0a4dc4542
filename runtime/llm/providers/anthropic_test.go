package providers

import (
	"context"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewforge/orchestrator/runtime/llm"
)

type stubMessagesClient struct {
	lastParams sdk.MessageNewParams
	resp       *sdk.Message
	err        error
}

func (s *stubMessagesClient) New(_ context.Context, body sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	s.lastParams = body
	return s.resp, s.err
}

func TestAnthropicCallTranslatesTextResponse(t *testing.T) {
	stub := &stubMessagesClient{resp: &sdk.Message{
		Content: []sdk.ContentBlockUnion{{Type: "text", Text: "hello there"}},
		Usage:   sdk.Usage{InputTokens: 10, OutputTokens: 4},
	}}
	a := &Anthropic{msg: stub, model: "claude-3-5-sonnet", maxTok: 512}

	resp, err := a.Call(context.Background(), &llm.Request{
		Messages: []*llm.Message{{Role: llm.RoleUser, Parts: []llm.Part{llm.TextPart{Text: "hi"}}}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Content, 1)
	assert.Equal(t, "hello there", resp.Content[0].TextContent())
	assert.Equal(t, 14, resp.Usage.TotalTokens)
}

func TestAnthropicCallEncodesSystemMessageSeparately(t *testing.T) {
	stub := &stubMessagesClient{resp: &sdk.Message{Content: []sdk.ContentBlockUnion{{Type: "text", Text: "ok"}}}}
	a := &Anthropic{msg: stub, model: "claude-3-5-sonnet", maxTok: 512}

	_, err := a.Call(context.Background(), &llm.Request{
		Messages: []*llm.Message{
			{Role: llm.RoleSystem, Parts: []llm.Part{llm.TextPart{Text: "be terse"}}},
			{Role: llm.RoleUser, Parts: []llm.Part{llm.TextPart{Text: "hi"}}},
		},
	})
	require.NoError(t, err)
	require.Len(t, stub.lastParams.System, 1)
	assert.Equal(t, "be terse", stub.lastParams.System[0].Text)
}

func TestAnthropicSupportsCapabilities(t *testing.T) {
	a := &Anthropic{model: "claude-3-5-sonnet"}
	assert.True(t, a.SupportsFunctionCalling())
	assert.True(t, a.SupportsMultimodal())
	assert.True(t, a.SupportsStopWords())
	assert.Equal(t, 200_000, a.GetContextWindowSize("claude-3-5-sonnet-20241022"))
}

func TestAnthropicStreamIsUnsupported(t *testing.T) {
	a := &Anthropic{}
	_, err := a.Stream(context.Background(), &llm.Request{})
	assert.ErrorIs(t, err, llm.ErrStreamingUnsupported)
}
