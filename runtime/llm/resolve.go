package llm

import "strings"

// ProviderName identifies which adapter handles a given model string.
type ProviderName string

const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGemini    ProviderName = "gemini"
	ProviderBedrock   ProviderName = "bedrock"
	ProviderAzure     ProviderName = "azure"
	ProviderXAI       ProviderName = "xai"
)

// modelPrefixProviders matches a bare model string (no "provider/" prefix)
// against its owning provider, checked in order so more specific prefixes
// can be added ahead of catch-alls without reordering the whole table.
var modelPrefixProviders = []struct {
	prefix   string
	provider ProviderName
}{
	{"gpt-", ProviderOpenAI},
	{"o1", ProviderOpenAI},
	{"o3", ProviderOpenAI},
	{"o4", ProviderOpenAI},
	{"claude-", ProviderAnthropic},
	{"gemini-", ProviderGemini},
	{"gemma-", ProviderGemini},
	{"grok-", ProviderXAI},
}

// ResolveProvider determines which provider owns llmString, the agent's
// `llm` configuration field. A "provider/model" form names the provider
// explicitly; otherwise the model string is matched against known prefixes,
// defaulting to OpenAI when nothing matches. The model identifier to pass to
// that provider is returned alongside it.
func ResolveProvider(llmString string) (provider ProviderName, model string) {
	if idx := strings.Index(llmString, "/"); idx >= 0 {
		return ProviderName(llmString[:idx]), llmString[idx+1:]
	}
	for _, entry := range modelPrefixProviders {
		if strings.HasPrefix(llmString, entry.prefix) {
			return entry.provider, llmString
		}
	}
	return ProviderOpenAI, llmString
}
