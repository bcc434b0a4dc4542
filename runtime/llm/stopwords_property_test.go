package llm_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/crewforge/orchestrator/runtime/llm"
)

// TestApplyStopWordsIdempotentProperty checks spec.md §8's stop-word
// invariant: applying ApplyStopWords twice with the same stop set is a
// no-op, since the first pass already removes anything a stop string could
// match in the remaining prefix.
func TestApplyStopWordsIdempotentProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("ApplyStopWords(ApplyStopWords(s)) == ApplyStopWords(s)", prop.ForAll(
		func(content string, stops []string) bool {
			once := llm.ApplyStopWords(content, stops)
			twice := llm.ApplyStopWords(once, stops)
			return once == twice
		},
		gen.AnyString(),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
