package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewforge/orchestrator/runtime/events"
)

func TestScopePushPopBalances(t *testing.T) {
	s := events.NewScope(events.ScopeConfig{})
	require.NoError(t, s.PushEventScope("e1", "task_started"))
	assert.Equal(t, 1, s.Depth())
	id, typ, ok := s.PopEventScope()
	require.True(t, ok)
	assert.Equal(t, "e1", id)
	assert.Equal(t, "task_started", typ)
	assert.Equal(t, 0, s.Depth())
}

func TestScopeEnclosingParentIsSecondFromTop(t *testing.T) {
	s := events.NewScope(events.ScopeConfig{})
	require.NoError(t, s.PushEventScope("outer", "flow_started"))
	require.NoError(t, s.PushEventScope("inner", "task_started"))
	assert.Equal(t, "outer", *s.EnclosingParentID())
	assert.Equal(t, "inner", *s.CurrentParentID())
}

func TestScopeStackDepthExceededIsFatal(t *testing.T) {
	s := events.NewScope(events.ScopeConfig{MaxStackDepth: 1})
	require.NoError(t, s.PushEventScope("e1", "task_started"))
	err := s.PushEventScope("e2", "task_started")
	require.Error(t, err)
}

func TestEmissionSequenceMonotonic(t *testing.T) {
	s := events.NewScope(events.ScopeConfig{})
	a := s.NextEmissionSequence()
	b := s.NextEmissionSequence()
	assert.Greater(t, b, a)
}
