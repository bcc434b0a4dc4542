package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolvesOpenAI(t *testing.T) {
	p, model, err := New(context.Background(), "gpt-4o", Credentials{OpenAIAPIKey: "key"}, "")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", model)
	assert.IsType(t, &OpenAI{}, p)
}

func TestNewResolvesAnthropic(t *testing.T) {
	p, model, err := New(context.Background(), "claude-sonnet-4-5", Credentials{AnthropicKey: "key"}, "")
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5", model)
	assert.IsType(t, &Anthropic{}, p)
}

func TestNewResolvesAzureFallsBackToModelAsDeployment(t *testing.T) {
	p, _, err := New(context.Background(), "azure/gpt-4o", Credentials{
		AzureAPIKey: "key", AzureEndpoint: "https://example.openai.azure.com",
	}, "")
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, p)
}

func TestNewResolvesXAI(t *testing.T) {
	p, model, err := New(context.Background(), "grok-4", Credentials{XAIAPIKey: "key"}, "")
	require.NoError(t, err)
	assert.Equal(t, "grok-4", model)
	assert.IsType(t, &OpenAI{}, p)
}

func TestNewFailsMissingCredentials(t *testing.T) {
	_, _, err := New(context.Background(), "gpt-4o", Credentials{}, "")
	require.Error(t, err)
}

func TestCredentialsFromEnvDefaultsAWSRegion(t *testing.T) {
	t.Setenv("AWS_DEFAULT_REGION", "")
	t.Setenv("AWS_REGION", "")
	creds := CredentialsFromEnv()
	assert.Equal(t, "us-east-1", creds.AWSRegion)
}
