// Package usage implements the monotone token-usage counters tracked per LLM
// instance and aggregated per crew.
package usage

// Metrics is a monotone counter tuple. Callers only ever add to it; fields
// never decrement.
type Metrics struct {
	TotalTokens        int64
	PromptTokens       int64
	CachedPromptTokens int64
	CompletionTokens   int64
	SuccessfulRequests int64
}

// Add accumulates delta into m in place and returns m for chaining.
func (m *Metrics) Add(delta Metrics) *Metrics {
	m.TotalTokens += delta.TotalTokens
	m.PromptTokens += delta.PromptTokens
	m.CachedPromptTokens += delta.CachedPromptTokens
	m.CompletionTokens += delta.CompletionTokens
	m.SuccessfulRequests += delta.SuccessfulRequests
	return m
}

// RawUsage is the loosely-typed usage payload returned by a provider
// response, before field-name normalization. Only the fields a given
// provider populates are set.
type RawUsage struct {
	PromptTokens         int64
	PromptTokenCount     int64
	InputTokens          int64
	CompletionTokens     int64
	CandidatesTokenCount int64
	OutputTokens         int64
	CachedTokens         int64
	CachedPromptTokens   int64
}

// firstNonZero returns the first non-zero value among candidates.
func firstNonZero(candidates ...int64) int64 {
	for _, c := range candidates {
		if c != 0 {
			return c
		}
	}
	return 0
}

// Normalize reshapes a provider's raw usage payload into the canonical
// Metrics fields, following the fallback chains documented for each
// provider: prompt_tokens ← {prompt_tokens, prompt_token_count, input_tokens};
// completion_tokens ← {completion_tokens, candidates_token_count,
// output_tokens}; cached_tokens ← {cached_tokens, cached_prompt_tokens}. One
// successful request is recorded per call.
func Normalize(raw RawUsage) Metrics {
	prompt := firstNonZero(raw.PromptTokens, raw.PromptTokenCount, raw.InputTokens)
	completion := firstNonZero(raw.CompletionTokens, raw.CandidatesTokenCount, raw.OutputTokens)
	cached := firstNonZero(raw.CachedTokens, raw.CachedPromptTokens)
	return Metrics{
		TotalTokens:        prompt + completion,
		PromptTokens:       prompt,
		CompletionTokens:   completion,
		CachedPromptTokens: cached,
		SuccessfulRequests: 1,
	}
}
