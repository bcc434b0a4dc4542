package crew

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewforge/orchestrator/runtime/agent"
	"github.com/crewforge/orchestrator/runtime/llm"
	"github.com/crewforge/orchestrator/runtime/llm/providers"
	"github.com/crewforge/orchestrator/runtime/task"
	"github.com/crewforge/orchestrator/runtime/usage"
)

// scriptedProvider returns one canned response per Call, in order, looping
// on the last entry once exhausted.
type scriptedProvider struct {
	responses []*llm.Response
	calls     int
}

func (s *scriptedProvider) Call(context.Context, *llm.Request) (*llm.Response, error) {
	i := s.calls
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.calls++
	return s.responses[i], nil
}

func (s *scriptedProvider) Stream(context.Context, *llm.Request) (llm.Streamer, error) {
	return nil, llm.ErrStreamingUnsupported
}
func (s *scriptedProvider) SupportsFunctionCalling() bool   { return false }
func (s *scriptedProvider) SupportsMultimodal() bool        { return false }
func (s *scriptedProvider) SupportsStopWords() bool         { return true }
func (s *scriptedProvider) GetContextWindowSize(string) int { return 8192 }

var _ llm.Provider = (*scriptedProvider)(nil)

func finalAnswer(text string) *llm.Response {
	return &llm.Response{
		Content: []llm.Message{{Role: llm.RoleAssistant, Parts: []llm.Part{
			llm.TextPart{Text: "Thought: done\nFinal Answer: " + text},
		}}},
		Usage: llm.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
	}
}

func newScriptedExecutor(a *agent.Agent, text string) *agent.Executor {
	return &agent.Executor{
		Agent:    a,
		Provider: &scriptedProvider{responses: []*llm.Response{finalAnswer(text)}},
	}
}

func TestKeyIsDerivedFromAgentAndTaskKeys(t *testing.T) {
	a := agent.New("researcher", "find facts", "a careful researcher")
	tk := task.New("research {topic}", "a summary")
	c := New([]*task.Task{tk}, []*agent.Agent{a})

	want := md5.Sum([]byte(a.Key() + "|" + tk.Key()))
	assert.Equal(t, hex.EncodeToString(want[:]), c.Key())
}

func TestCloneAssignsFreshIdentityAndDeepCopiesTasksAndAgents(t *testing.T) {
	a := agent.New("researcher", "find facts", "a careful researcher")
	tk := task.New("research", "a summary")
	c := New([]*task.Task{tk}, []*agent.Agent{a})
	c.ExecutionLog = append(c.ExecutionLog, map[string]any{"task": "research"})

	clone := c.Clone()
	assert.NotEqual(t, c.ID, clone.ID)
	assert.NotEqual(t, c.Agents[0].ID, clone.Agents[0].ID)
	assert.NotEqual(t, c.Tasks[0].ID, clone.Tasks[0].ID)
	assert.Empty(t, clone.ExecutionLog)
	assert.Equal(t, c.Tasks[0].Description, clone.Tasks[0].Description)
}

func TestResetMemoriesRejectsInvalidKind(t *testing.T) {
	c := New(nil, nil)
	err := c.ResetMemories("bogus")
	assert.Error(t, err)
}

func TestResetMemoriesClearsExecutionLogForKickoffOutputsAndAll(t *testing.T) {
	c := New(nil, nil)
	c.ExecutionLog = []map[string]any{{"task": "x"}}
	require.NoError(t, c.ResetMemories("kickoff_outputs"))
	assert.Empty(t, c.ExecutionLog)

	c.ExecutionLog = []map[string]any{{"task": "x"}}
	require.NoError(t, c.ResetMemories("all"))
	assert.Empty(t, c.ExecutionLog)

	c.ExecutionLog = []map[string]any{{"task": "x"}}
	require.NoError(t, c.ResetMemories("short"))
	assert.NotEmpty(t, c.ExecutionLog, "a memory kind unrelated to kickoff outputs leaves the log untouched")
}

func TestKickoffFailsWithNoAgents(t *testing.T) {
	c := New([]*task.Task{task.New("d", "e")}, nil)
	_, err := c.Kickoff(context.Background(), nil)
	assert.Error(t, err)
}

func TestKickoffFailsWithNoTasks(t *testing.T) {
	c := New(nil, []*agent.Agent{agent.New("r", "g", "b")})
	_, err := c.Kickoff(context.Background(), nil)
	assert.Error(t, err)
}

func TestRunSequentialThreadsPriorOutputsAsContext(t *testing.T) {
	writer := agent.New("writer", "write", "a writer")
	editor := agent.New("editor", "edit", "an editor")

	t1 := task.New("draft something", "a draft")
	t1.AgentRole = writer.Role
	t2 := task.New("polish the draft", "a polished result")
	t2.AgentRole = editor.Role

	c := New([]*task.Task{t1, t2}, []*agent.Agent{writer, editor})
	c.executors = map[string]*agent.Executor{
		writer.Role: newScriptedExecutor(writer, "a rough draft"),
		editor.Role: newScriptedExecutor(editor, "a polished draft"),
	}

	out, err := c.Kickoff(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "a polished draft", out.Raw)
	require.Len(t, out.TasksOutput, 2)
	assert.Equal(t, "a rough draft", out.TasksOutput[0].Raw)
	assert.Equal(t, "a rough draft", t2.PromptContext, "the editor's task receives the writer's output as context")
	assert.Equal(t, usage.Metrics{TotalTokens: 30, PromptTokens: 20, CompletionTokens: 10, SuccessfulRequests: 2}, out.TokenUsage)
}

func TestRunSequentialSkipsConditionalTaskAndRecordsPlaceholder(t *testing.T) {
	writer := agent.New("writer", "write", "a writer")

	t1 := task.New("draft something", "a draft")
	t1.AgentRole = writer.Role
	t2 := task.New("only runs if asked", "a maybe")
	t2.AgentRole = writer.Role
	t2.Condition = func(priorOutputs []*task.TaskOutput) bool { return false }

	c := New([]*task.Task{t1, t2}, []*agent.Agent{writer})
	c.executors = map[string]*agent.Executor{
		writer.Role: newScriptedExecutor(writer, "a rough draft"),
	}

	out, err := c.Kickoff(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "a rough draft", out.Raw, "the skipped task's empty raw must not become the crew's final answer")
	require.Len(t, out.TasksOutput, 2)
	assert.Empty(t, out.TasksOutput[1].Raw)
}

func TestInterpolateInputsAppliesToTasksAndAgents(t *testing.T) {
	a := agent.New("researcher about {topic}", "find facts about {topic}", "a careful researcher")
	tk := task.New("research {topic}", "a summary of {topic}")
	c := New([]*task.Task{tk}, []*agent.Agent{a})

	c.interpolateInputs(map[string]string{"topic": "rust"})
	assert.Equal(t, "research rust", tk.Description)
	assert.Equal(t, "researcher about rust", a.Role)
}

func TestAdaptExecutorNarrowsToolRegistryToTaskToolNames(t *testing.T) {
	called := map[string]bool{}
	makeTool := func(name string) *agent.Tool {
		return &agent.Tool{Name: name, Invoke: func(ctx context.Context, input map[string]any) (string, error) {
			called[name] = true
			return "ok", nil
		}}
	}
	reg, err := agent.NewToolRegistry(makeTool("search"), makeTool("write_file"))
	require.NoError(t, err)

	actionReply := func(tool string) *llm.Response {
		return &llm.Response{Content: []llm.Message{{Role: llm.RoleAssistant, Parts: []llm.Part{
			llm.TextPart{Text: "Action: " + tool + "\nAction Input: {}\n"},
		}}}}
	}
	a := agent.New("worker", "do work", "a worker")
	ex := &agent.Executor{Agent: a, Tools: reg, Provider: &scriptedProvider{responses: []*llm.Response{
		actionReply("write_file"), actionReply("search"), finalAnswer("done"),
	}}}

	c := &Crew{}
	tk := task.New("d", "e")
	adapted := c.adaptExecutor(ex, tk)

	// The task restricts tools to "search": the model's write_file call
	// fails lookup in the narrowed registry, while search still runs.
	out, _, err := adapted(context.Background(), "d", "", []string{"search"})
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.True(t, called["search"])
	assert.False(t, called["write_file"])
	assert.Equal(t, 1, tk.UsedTools)
	assert.Equal(t, 1, tk.ToolsErrors)
	assert.Len(t, ex.Tools, 2, "the shared executor's registry is not narrowed in place")
}

func TestManagerExecutorScopesDelegationToolsOverCoworkersExcludingItself(t *testing.T) {
	manager := agent.New("lead", "coordinate", "a lead")
	manager.LLM = "openai/gpt-4o"
	worker := agent.New("writer", "write", "a writer")
	worker.LLM = "openai/gpt-4o"

	c := New(nil, []*agent.Agent{manager, worker})
	c.ManagerAgentRole = manager.Role
	c.Credentials = providers.Credentials{OpenAIAPIKey: "test-key"}
	c.executors = map[string]*agent.Executor{
		worker.Role: newScriptedExecutor(worker, "a written answer"),
	}

	ex, err := c.managerExecutor(context.Background())
	require.NoError(t, err)
	assert.Len(t, ex.Tools, 2)
	assert.Contains(t, ex.Tools, "Delegate work to coworker")
	assert.Contains(t, ex.Tools, "Ask question to coworker")

	_, err = ex.Tools["Delegate work to coworker"].Invoke(context.Background(), map[string]any{
		"task": "draft it", "context": "", "coworker": manager.Role,
	})
	assert.Error(t, err, "the manager must not be able to delegate to itself")

	result, err := ex.Tools["Delegate work to coworker"].Invoke(context.Background(), map[string]any{
		"task": "draft it", "context": "", "coworker": worker.Role,
	})
	require.NoError(t, err)
	assert.Equal(t, "a written answer", result)
}

func TestJoinRawsSkipsEmptyOutputs(t *testing.T) {
	outputs := []*task.TaskOutput{{Raw: "first"}, {Raw: ""}, {Raw: "third"}}
	assert.Equal(t, "first\nthird", joinRaws(outputs))
}

func TestSanitizeAgentNameNormalizesWhitespaceQuotesAndCase(t *testing.T) {
	assert.Equal(t, "senior writer", sanitizeAgentName(`  Senior   "Writer"  `))
}

func TestCoworkerNotFoundErrorListsRoster(t *testing.T) {
	err := coworkerNotFoundError("nobody", []string{"Writer", "Editor"})
	msg := err.Error()
	assert.True(t, strings.Contains(msg, "writer") && strings.Contains(msg, "editor"))
}
