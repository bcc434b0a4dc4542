package crew

import (
	"context"
	"fmt"
	"sync"

	"github.com/crewforge/orchestrator/runtime/task"
	"github.com/crewforge/orchestrator/runtime/usage"
)

// OutputStore persists a CrewOutput and its per-task outputs, keyed by crew
// ID. The store is an external collaborator; schema is intentionally
// unspecified beyond SaveOutput/LoadOutput/DeleteOutput.
type OutputStore interface {
	SaveOutput(ctx context.Context, crewID string, output *CrewOutput) error
	LoadOutput(ctx context.Context, crewID string) (*CrewOutput, error)
	DeleteOutput(ctx context.Context, crewID string) error
}

// StoredTaskOutput is the persisted shape of a task.TaskOutput. It omits
// the chat Messages transcript: Part is an interface with no concrete type
// recorded on the wire, so a generic json.Unmarshal back into
// []llm.Message cannot reconstruct it. Persisted outputs keep only the
// structured result, which is what a store's consumers actually need.
type StoredTaskOutput struct {
	Description    string
	Name           string
	ExpectedOutput string
	Summary        string
	Raw            string
	Pydantic       any
	JSONDict       map[string]any
	Agent          string
	OutputFormat   task.OutputFormat
}

// StoredCrewOutput is the persisted shape of a CrewOutput.
type StoredCrewOutput struct {
	Raw         string
	Pydantic    any
	JSONDict    map[string]any
	TasksOutput []StoredTaskOutput
	TokenUsage  usage.Metrics
}

// ToStored drops the chat-transcript field from every task output and
// returns the persistable shape.
func (o *CrewOutput) ToStored() StoredCrewOutput {
	tasks := make([]StoredTaskOutput, len(o.TasksOutput))
	for i, t := range o.TasksOutput {
		tasks[i] = StoredTaskOutput{
			Description:    t.Description,
			Name:           t.Name,
			ExpectedOutput: t.ExpectedOutput,
			Summary:        t.Summary,
			Raw:            t.Raw,
			Pydantic:       t.Pydantic,
			JSONDict:       t.JSONDict,
			Agent:          t.Agent,
			OutputFormat:   t.OutputFormat,
		}
	}
	return StoredCrewOutput{
		Raw:         o.Raw,
		Pydantic:    o.Pydantic,
		JSONDict:    o.JSONDict,
		TasksOutput: tasks,
		TokenUsage:  o.TokenUsage,
	}
}

// FromStored rebuilds a CrewOutput from its persisted shape. TasksOutput
// entries carry no chat transcript (see StoredTaskOutput).
func FromStored(s StoredCrewOutput) *CrewOutput {
	tasks := make([]*task.TaskOutput, len(s.TasksOutput))
	for i, t := range s.TasksOutput {
		tasks[i] = &task.TaskOutput{
			Description:    t.Description,
			Name:           t.Name,
			ExpectedOutput: t.ExpectedOutput,
			Summary:        t.Summary,
			Raw:            t.Raw,
			Pydantic:       t.Pydantic,
			JSONDict:       t.JSONDict,
			Agent:          t.Agent,
			OutputFormat:   t.OutputFormat,
		}
	}
	return &CrewOutput{
		Raw:         s.Raw,
		Pydantic:    s.Pydantic,
		JSONDict:    s.JSONDict,
		TasksOutput: tasks,
		TokenUsage:  s.TokenUsage,
	}
}

// MemoryOutputStore is an in-process OutputStore backed by a map, useful
// for tests and single-process deployments.
type MemoryOutputStore struct {
	mu      sync.Mutex
	outputs map[string]*CrewOutput
}

// NewMemoryOutputStore constructs an empty MemoryOutputStore.
func NewMemoryOutputStore() *MemoryOutputStore {
	return &MemoryOutputStore{outputs: map[string]*CrewOutput{}}
}

func (s *MemoryOutputStore) SaveOutput(_ context.Context, crewID string, output *CrewOutput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs[crewID] = output
	return nil
}

func (s *MemoryOutputStore) LoadOutput(_ context.Context, crewID string) (*CrewOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := s.outputs[crewID]
	if !ok {
		return nil, fmt.Errorf("crew: no stored output for crew %s", crewID)
	}
	return out, nil
}

func (s *MemoryOutputStore) DeleteOutput(_ context.Context, crewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.outputs, crewID)
	return nil
}
