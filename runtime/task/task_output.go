package task

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/crewforge/orchestrator/runtime/llm"
)

// TaskOutput is the result of a completed (or skipped) task execution.
type TaskOutput struct {
	Description    string
	Name           string
	ExpectedOutput string
	Summary        string
	Raw            string
	Pydantic       any
	JSONDict       map[string]any
	Agent          string
	OutputFormat   OutputFormat
	Messages       []llm.Message
}

// NewTaskOutput builds a TaskOutput with its summary auto-generated from
// description (first ten words, ellipsized).
func NewTaskOutput(description, agent, raw string, format OutputFormat) *TaskOutput {
	return &TaskOutput{
		Description:  description,
		Summary:      summarize(description),
		Raw:          raw,
		Agent:        agent,
		OutputFormat: format,
	}
}

func summarize(description string) string {
	words := strings.Fields(description)
	if len(words) > 10 {
		words = words[:10]
	}
	return strings.Join(words, " ") + "..."
}

// JSON renders JSONDict as a JSON string. Only valid when OutputFormat is
// OutputFormatJSON.
func (o *TaskOutput) JSON() (string, error) {
	if o.OutputFormat != OutputFormatJSON {
		return "", fmt.Errorf("task: output_format is %q, not json; set output_json on the task to request JSON output", o.OutputFormat)
	}
	if o.JSONDict == nil {
		return "null", nil
	}
	raw, err := json.Marshal(o.JSONDict)
	if err != nil {
		return "", fmt.Errorf("task: marshal json_dict: %w", err)
	}
	return string(raw), nil
}

// ToDict merges JSONDict and Pydantic (when JSONDict is unset and Pydantic
// is a JSON object) into a single map, JSONDict taking precedence.
func (o *TaskOutput) ToDict() map[string]any {
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

// String renders Pydantic if set, else JSONDict, else the raw text.
func (o *TaskOutput) String() string {
	if o.Pydantic != nil {
		if raw, err := json.Marshal(o.Pydantic); err == nil {
			return string(raw)
		}
	}
	if o.JSONDict != nil {
		if raw, err := json.Marshal(o.JSONDict); err == nil {
			return string(raw)
		}
	}
	return o.Raw
}
