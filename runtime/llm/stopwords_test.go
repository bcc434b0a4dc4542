package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crewforge/orchestrator/runtime/llm"
)

func TestApplyStopWordsTruncatesAtEarliestMatch(t *testing.T) {
	out := llm.ApplyStopWords("thought here\nObservation: it worked\nmore text", []string{"Observation:", "Final Answer:"})
	assert.Equal(t, "thought here", out)
}

func TestApplyStopWordsNoMatchReturnsInput(t *testing.T) {
	out := llm.ApplyStopWords("nothing to see here", []string{"Observation:"})
	assert.Equal(t, "nothing to see here", out)
}

func TestApplyStopWordsIsIdempotent(t *testing.T) {
	input := "answer\nObservation: leaked tool output\nObservation: again"
	stops := []string{"Observation:"}
	once := llm.ApplyStopWords(input, stops)
	twice := llm.ApplyStopWords(once, stops)
	assert.Equal(t, once, twice)
}

func TestApplyStopWordsEmptyStopsIsNoop(t *testing.T) {
	out := llm.ApplyStopWords("unchanged", nil)
	assert.Equal(t, "unchanged", out)
}
