package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaults(t *testing.T) {
	a := New("researcher", "find facts", "a careful analyst")
	assert.Equal(t, 25, a.MaxIter)
	assert.Equal(t, 2, a.MaxRetryLimit)
	assert.Equal(t, 3, a.GuardrailMaxRetries)
	assert.True(t, a.Cache)
	assert.True(t, a.UseSystemPrompt)
	assert.NotEmpty(t, a.Fingerprint.UUIDStr)
}

func TestCloneAssignsFreshIdentity(t *testing.T) {
	a := New("researcher", "find facts", "a careful analyst")
	a.ToolsResults = []map[string]any{{"result": "x"}}
	clone := a.Clone()
	assert.NotEqual(t, a.ID, clone.ID)
	assert.NotEqual(t, a.Fingerprint.UUIDStr, clone.Fingerprint.UUIDStr)
	assert.Empty(t, clone.ToolsResults)
	assert.Equal(t, a.Role, clone.Role)
}

func TestKeyIsStableAcrossInterpolation(t *testing.T) {
	a := New("researcher for {topic}", "find facts about {topic}", "an analyst")
	before := a.Key()
	a.InterpolateInputs(map[string]string{"topic": "space"})
	after := a.Key()
	require.Equal(t, before, after, "key must be computed over pre-interpolation originals")
	assert.Equal(t, "researcher for space", a.Role)
}

func TestInterpolateInputsIsIdempotentOnOriginals(t *testing.T) {
	a := New("{role}", "{goal}", "{backstory}")
	a.InterpolateInputs(map[string]string{"role": "r1", "goal": "g1", "backstory": "b1"})
	a.InterpolateInputs(map[string]string{"role": "r2", "goal": "g2", "backstory": "b2"})
	assert.Equal(t, "r2", a.Role)
	assert.Equal(t, "g2", a.Goal)
	assert.Equal(t, "b2", a.Backstory)
}

func TestInterpolateInputsEmptyIsNoop(t *testing.T) {
	a := New("role", "goal", "backstory")
	a.InterpolateInputs(nil)
	assert.Equal(t, "role", a.Role)
}
