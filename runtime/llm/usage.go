package llm

import (
	"sync"

	"github.com/crewforge/orchestrator/runtime/usage"
)

// TokenTracker accumulates per-provider-instance token usage. Providers hold
// one of these and call Track after every successful call; Summary returns
// the running totals. The providers keep their tracker unexported, so the
// agent executor sums each Response's Usage into Result.Usage instead.
type TokenTracker struct {
	mu      sync.Mutex
	metrics usage.Metrics
}

// Track adds u to the running total. Thread-safe: providers are called
// concurrently across agents sharing one instance.
func (t *TokenTracker) Track(u TokenUsage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics.Add(usage.Metrics{
		TotalTokens:        int64(u.TotalTokens),
		PromptTokens:       int64(u.InputTokens),
		CachedPromptTokens: int64(u.CacheReadTokens),
		CompletionTokens:   int64(u.OutputTokens),
		SuccessfulRequests: 1,
	})
}

// Summary returns the accumulated totals.
func (t *TokenTracker) Summary() usage.Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.metrics
}
