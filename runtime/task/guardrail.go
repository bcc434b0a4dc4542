package task

import (
	"context"

	"github.com/crewforge/orchestrator/runtime/llm"
)

// FromLLMOutputGuardrail adapts a string-level llm.GuardrailFunc, as used
// inside the agent execution loop, into a task-level GuardrailFunc that
// validates TaskOutput.Raw and rewrites it in place on acceptance.
func FromLLMOutputGuardrail(ctx context.Context, g llm.GuardrailFunc) GuardrailFunc {
	return func(output *TaskOutput) (*TaskOutput, error) {
		accepted, err := g(ctx, output.Raw)
		if err != nil {
			return nil, err
		}
		clone := *output
		clone.Raw = accepted
		return &clone, nil
	}
}
