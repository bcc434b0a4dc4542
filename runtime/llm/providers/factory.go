package providers

import (
	"context"
	"fmt"
	"os"

	"github.com/crewforge/orchestrator/runtime/llm"
)

// Credentials bundles the environment variables each provider adapter
// needs. CredentialsFromEnv reads these from the process environment;
// callers embedding this module in a different host can populate
// Credentials directly instead.
type Credentials struct {
	OpenAIAPIKey  string
	OpenAIOrg     string
	AnthropicKey  string
	AzureAPIKey   string
	AzureEndpoint string
	AzureAPIVer   string
	AWSRegion     string
	GoogleAPIKey  string
	XAIAPIKey     string
	XAIBaseURL    string
}

// CredentialsFromEnv reads every provider credential from its documented
// environment variable.
func CredentialsFromEnv() Credentials {
	googleKey := os.Getenv("GOOGLE_API_KEY")
	if googleKey == "" {
		googleKey = os.Getenv("GEMINI_API_KEY")
	}
	return Credentials{
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIOrg:     os.Getenv("OPENAI_ORGANIZATION"),
		AnthropicKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AzureAPIKey:   os.Getenv("AZURE_API_KEY"),
		AzureEndpoint: os.Getenv("AZURE_ENDPOINT"),
		AzureAPIVer:   os.Getenv("AZURE_API_VERSION"),
		AWSRegion:     firstNonEmpty(os.Getenv("AWS_DEFAULT_REGION"), os.Getenv("AWS_REGION"), "us-east-1"),
		GoogleAPIKey:  googleKey,
		XAIAPIKey:     os.Getenv("XAI_API_KEY"),
		XAIBaseURL:    os.Getenv("XAI_BASE_URL"),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// New resolves llmString (an agent's `llm` configuration field, e.g.
// "openai/gpt-4o" or bare "claude-sonnet-4-5") to a concrete llm.Provider,
// instantiated from creds. deployment is only consulted for Azure, where
// the model string names the deployment rather than a model family.
func New(ctx context.Context, llmString string, creds Credentials, deployment string) (llm.Provider, string, error) {
	name, model := llm.ResolveProvider(llmString)
	switch name {
	case llm.ProviderOpenAI:
		p, err := NewOpenAI(creds.OpenAIAPIKey, OpenAIOptions{DefaultModel: model, Organization: creds.OpenAIOrg})
		return p, model, err
	case llm.ProviderAnthropic:
		p, err := NewAnthropic(creds.AnthropicKey, AnthropicOptions{DefaultModel: model, MaxTokens: 4096})
		return p, model, err
	case llm.ProviderGemini:
		p, err := NewGemini(GeminiOptions{DefaultModel: model, APIKey: creds.GoogleAPIKey})
		return p, model, err
	case llm.ProviderBedrock:
		p, err := NewBedrock(ctx, BedrockOptions{DefaultModel: model, Region: creds.AWSRegion})
		return p, model, err
	case llm.ProviderAzure:
		dep := deployment
		if dep == "" {
			dep = model
		}
		p, err := NewAzure(AzureOptions{
			Endpoint: creds.AzureEndpoint, Deployment: dep, APIVersion: creds.AzureAPIVer, APIKey: creds.AzureAPIKey,
		})
		return p, model, err
	case llm.ProviderXAI:
		p, err := NewXAI(creds.XAIAPIKey, creds.XAIBaseURL, model)
		return p, model, err
	default:
		return nil, "", fmt.Errorf("llm providers: unknown provider %q", name)
	}
}
