package agent

import (
	"context"

	"github.com/crewforge/orchestrator/runtime/llm"
	"github.com/crewforge/orchestrator/runtime/llm/providers"
)

// resolveLLMString returns the provider/model string to use for the main
// reasoning loop, defaulting to "openai/gpt-4o-mini" when the agent leaves
// LLM unset.
func (a *Agent) resolveLLMString() string {
	if a.LLM != "" {
		return a.LLM
	}
	return "openai/gpt-4o-mini"
}

// NewProvider instantiates the provider the agent's LLM string resolves to,
// using creds for API keys/endpoints. Deployment is only consulted for the
// Azure provider, where it names the deployed model.
func (a *Agent) NewProvider(ctx context.Context, creds providers.Credentials, deployment string) (llm.Provider, string, error) {
	return providers.New(ctx, a.resolveLLMString(), creds, deployment)
}

// NewFunctionCallingProvider resolves the (optionally distinct) provider used
// to drive tool-calling turns, falling back to the agent's main LLM when
// FunctionCallingLLM is unset.
func (a *Agent) NewFunctionCallingProvider(ctx context.Context, creds providers.Credentials, deployment string) (llm.Provider, string, error) {
	llmString := a.FunctionCallingLLM
	if llmString == "" {
		return a.NewProvider(ctx, creds, deployment)
	}
	return providers.New(ctx, llmString, creds, deployment)
}
