package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReActFinalAnswerTakesPrecedence(t *testing.T) {
	text := "Thought: I now know the final answer\nFinal Answer: Paris is the capital of France."
	step, ok := parseReAct(text)
	require.True(t, ok)
	assert.True(t, step.IsFinal)
	assert.Equal(t, "Paris is the capital of France.", step.Final)
}

func TestParseReActExtractsActionAndJSONInput(t *testing.T) {
	text := "Thought: I should search\nAction: search\nAction Input: {\"query\": \"go modules\"}\n"
	step, ok := parseReAct(text)
	require.True(t, ok)
	assert.False(t, step.IsFinal)
	assert.Equal(t, "search", step.ToolName)
	assert.Equal(t, "go modules", step.ToolInput["query"])
}

func TestParseReActWrapsBareStringInput(t *testing.T) {
	text := "Action: lookup\nAction Input: just a plain string\n"
	step, ok := parseReAct(text)
	require.True(t, ok)
	assert.Equal(t, "just a plain string", step.ToolInput["input"])
}

func TestParseReActReturnsFalseWhenNeitherMarkerPresent(t *testing.T) {
	_, ok := parseReAct("I am still thinking about this problem.")
	assert.False(t, ok)
}

func TestFormatObservationPrefixesResult(t *testing.T) {
	assert.Equal(t, "Observation: 42", formatObservation("42"))
}

func TestFormatRetryHintIncludesReasonAndDetail(t *testing.T) {
	hint := formatRetryHint(RetryReasonMissingFields, "field 'query' is required")
	assert.Contains(t, hint, "missing_fields")
	assert.Contains(t, hint, "field 'query' is required")
}
