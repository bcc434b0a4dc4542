package providers

import (
	"errors"
	"strings"

	"github.com/openai/openai-go/option"
)

const defaultXAIBaseURL = "https://api.x.ai/v1"

// NewXAI builds a provider against xAI's OpenAI-compatible endpoint. xAI
// reuses the OpenAI request/response shape entirely; only the base URL and
// key differ. baseURL defaults to the public xAI API when empty, letting
// XAI_BASE_URL override it for self-hosted or staging endpoints.
func NewXAI(apiKey, baseURL, defaultModel string) (*OpenAI, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("xai: api key is required")
	}
	if baseURL == "" {
		baseURL = defaultXAIBaseURL
	}
	return NewOpenAICompatible(baseURL, defaultModel, option.WithAPIKey(apiKey))
}
