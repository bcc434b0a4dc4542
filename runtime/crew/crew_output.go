package crew

import (
	"encoding/json"
	"fmt"

	"github.com/crewforge/orchestrator/runtime/task"
	"github.com/crewforge/orchestrator/runtime/usage"
)

// CrewOutput is the result of a kickoff: the final task's raw/structured
// answer, every task's individual output in execution order, and the token
// usage summed across all agent calls made along the way.
type CrewOutput struct {
	Raw         string
	Pydantic    any
	JSONDict    map[string]any
	TasksOutput []*task.TaskOutput
	TokenUsage  usage.Metrics
}

// newCrewOutput builds a CrewOutput from a completed run's task outputs,
// taking the last non-empty raw as the crew's final answer. Errors when no
// task produced output at all.
func newCrewOutput(outputs []*task.TaskOutput, tokenUsage usage.Metrics) (*CrewOutput, error) {
	if len(outputs) == 0 {
		return nil, fmt.Errorf("crew: no task outputs available to build a crew output")
	}
	var final *task.TaskOutput
	for _, o := range outputs {
		if o.Raw != "" {
			final = o
		}
	}
	if final == nil {
		return nil, fmt.Errorf("crew: no valid (non-empty) task outputs available to build a crew output")
	}
	return &CrewOutput{
		Raw:         final.Raw,
		Pydantic:    final.Pydantic,
		JSONDict:    final.JSONDict,
		TasksOutput: outputs,
		TokenUsage:  tokenUsage,
	}, nil
}

// JSON renders JSONDict as a JSON string. It errors unless the final task
// requested JSON output via output_json.
func (o *CrewOutput) JSON() (string, error) {
	if len(o.TasksOutput) > 0 {
		last := o.TasksOutput[len(o.TasksOutput)-1]
		if last.OutputFormat != task.OutputFormatJSON {
			return "", fmt.Errorf("crew: no JSON output found in the final task; set output_json on the final task in the crew")
		}
	}
	if o.JSONDict == nil {
		return "null", nil
	}
	b, err := json.Marshal(o.JSONDict)
	if err != nil {
		return "", fmt.Errorf("crew: marshal crew output: %w", err)
	}
	return string(b), nil
}

// ToDict flattens JSONDict or, failing that, a map-shaped Pydantic value
// into a plain map. JSONDict takes precedence.
func (o *CrewOutput) ToDict() map[string]any {
	out := make(map[string]any)
	if o.JSONDict != nil {
		for k, v := range o.JSONDict {
			out[k] = v
		}
		return out
	}
	if m, ok := o.Pydantic.(map[string]any); ok {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// Get looks up key, checking Pydantic first and JSONDict second.
func (o *CrewOutput) Get(key string) (any, error) {
	if m, ok := o.Pydantic.(map[string]any); ok {
		if v, ok := m[key]; ok {
			return v, nil
		}
	}
	if o.JSONDict != nil {
		if v, ok := o.JSONDict[key]; ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("crew: key %q not found in crew output", key)
}

func (o *CrewOutput) String() string {
	if o.Pydantic != nil {
		return fmt.Sprintf("%v", o.Pydantic)
	}
	if o.JSONDict != nil {
		return fmt.Sprintf("%v", o.JSONDict)
	}
	return o.Raw
}
