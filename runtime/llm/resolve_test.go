package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crewforge/orchestrator/runtime/llm"
)

func TestResolveProviderExplicitForm(t *testing.T) {
	provider, model := llm.ResolveProvider("azure/gpt-4o-deployment")
	assert.Equal(t, llm.ProviderAzure, provider)
	assert.Equal(t, "gpt-4o-deployment", model)
}

func TestResolveProviderPrefixMatching(t *testing.T) {
	cases := map[string]llm.ProviderName{
		"gpt-4o":                      llm.ProviderOpenAI,
		"o1-preview":                  llm.ProviderOpenAI,
		"o3-mini":                     llm.ProviderOpenAI,
		"claude-sonnet-4-5":           llm.ProviderAnthropic,
		"gemini-1.5-pro":              llm.ProviderGemini,
		"gemma-2-9b":                  llm.ProviderGemini,
		"grok-4":                      llm.ProviderXAI,
		"some-unrecognized-model-tag": llm.ProviderOpenAI,
	}
	for model, want := range cases {
		provider, gotModel := llm.ResolveProvider(model)
		assert.Equalf(t, want, provider, "model %q", model)
		assert.Equal(t, model, gotModel)
	}
}

func TestResolveProviderBedrockExplicit(t *testing.T) {
	provider, model := llm.ResolveProvider("bedrock/anthropic.claude-3-5-sonnet-20241022-v2:0")
	assert.Equal(t, llm.ProviderBedrock, provider)
	assert.Equal(t, "anthropic.claude-3-5-sonnet-20241022-v2:0", model)
}
