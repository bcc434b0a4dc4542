package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewforge/orchestrator/runtime/events"
)

func TestBuildExecutionPlanOrdersByDependency(t *testing.T) {
	h1 := events.NewHandlerId("h1")
	h2 := events.NewHandlerId("h2")
	h3 := events.NewHandlerId("h3")

	plan, err := events.BuildExecutionPlan(map[events.HandlerId][]events.Depends{
		h1: nil,
		h2: {{HandlerID: h1}},
		h3: {{HandlerID: h2}},
	})
	require.NoError(t, err)
	require.Len(t, plan, 3)
	assert.Equal(t, []events.HandlerId{h1}, plan[0])
	assert.Equal(t, []events.HandlerId{h2}, plan[1])
	assert.Equal(t, []events.HandlerId{h3}, plan[2])
}

func TestBuildExecutionPlanLevelIndependence(t *testing.T) {
	h1 := events.NewHandlerId("h1")
	h2 := events.NewHandlerId("h2")
	h3 := events.NewHandlerId("h3")

	// h2 and h3 both depend only on h1: they must land in the same level.
	plan, err := events.BuildExecutionPlan(map[events.HandlerId][]events.Depends{
		h1: nil,
		h2: {{HandlerID: h1}},
		h3: {{HandlerID: h1}},
	})
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.ElementsMatch(t, []events.HandlerId{h2, h3}, plan[1])
}

func TestBuildExecutionPlanDetectsCycle(t *testing.T) {
	h1 := events.NewHandlerId("h1")
	h2 := events.NewHandlerId("h2")

	_, err := events.BuildExecutionPlan(map[events.HandlerId][]events.Depends{
		h1: {{HandlerID: h2}},
		h2: {{HandlerID: h1}},
	})
	require.Error(t, err)
	var cycleErr *events.CircularDependencyError
	require.ErrorAs(t, err, &cycleErr)
	assert.Len(t, cycleErr.Handlers, 2)
}
