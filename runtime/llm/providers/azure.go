package providers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/option"
)

// AzureOptions configures the Azure OpenAI adapter.
type AzureOptions struct {
	Endpoint   string // e.g. "https://my-resource.openai.azure.com"
	Deployment string
	APIVersion string // default "2024-02-01"
	APIKey     string
}

// NewAzure builds a provider against an Azure OpenAI deployment. Azure's
// request/response bodies are OpenAI-shaped, so this wraps
// NewOpenAICompatible with Azure's URL layout and its "api-key" header
// instead of Bearer auth.
func NewAzure(opts AzureOptions) (*OpenAI, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("azure: api key is required")
	}
	if opts.Endpoint == "" || opts.Deployment == "" {
		return nil, errors.New("azure: endpoint and deployment are required")
	}
	version := opts.APIVersion
	if version == "" {
		version = "2024-02-01"
	}
	baseURL := fmt.Sprintf("%s/openai/deployments/%s", strings.TrimRight(opts.Endpoint, "/"), opts.Deployment)
	return NewOpenAICompatible(baseURL, opts.Deployment,
		option.WithHeader("api-key", opts.APIKey),
		option.WithQuery("api-version", version),
	)
}
