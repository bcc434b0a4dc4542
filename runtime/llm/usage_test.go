package llm_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crewforge/orchestrator/runtime/llm"
)

func TestTokenTrackerAccumulates(t *testing.T) {
	var tracker llm.TokenTracker
	tracker.Track(llm.TokenUsage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150})
	tracker.Track(llm.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15, CacheReadTokens: 3})

	summary := tracker.Summary()
	assert.Equal(t, int64(165), summary.TotalTokens)
	assert.Equal(t, int64(110), summary.PromptTokens)
	assert.Equal(t, int64(55), summary.CompletionTokens)
	assert.Equal(t, int64(3), summary.CachedPromptTokens)
	assert.Equal(t, int64(2), summary.SuccessfulRequests)
}

func TestTokenTrackerConcurrentTrackIsSafe(t *testing.T) {
	var tracker llm.TokenTracker
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Track(llm.TokenUsage{TotalTokens: 1})
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(100), tracker.Summary().SuccessfulRequests)
}
