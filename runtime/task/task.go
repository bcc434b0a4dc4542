package task

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crewforge/orchestrator/runtime/fingerprint"
)

// AgentExecutorFunc runs a task's prompt through whichever agent the crew
// assigned, returning the agent's raw text answer and its chat transcript.
// The crew wires this from agent.Executor.ExecuteTask; Task itself has no
// notion of how the answer is produced.
type AgentExecutorFunc func(ctx context.Context, prompt, taskContext string, toolNames []string) (string, []TaskMessage, error)

// TaskMessage is the minimal chat-turn shape an AgentExecutorFunc reports
// back, independent of the richer llm.Message used inside the agent loop.
type TaskMessage struct {
	Role    string
	Content string
}

// GuardrailFunc validates or rewrites a completed TaskOutput. A non-nil
// error rejects the output; the caller feeds the error back to the agent
// for another attempt, up to GuardrailMaxRetries.
type GuardrailFunc func(output *TaskOutput) (*TaskOutput, error)

// ConditionFunc decides whether a conditional task should run, given the
// outputs of every task that ran before it. Nothing rejects a conditional
// task placed first in a crew; its condition then receives an empty slice.
type ConditionFunc func(priorOutputs []*TaskOutput) bool

// Task describes one unit of work: what to do, what a good answer looks
// like, and who should do it.
type Task struct {
	ID          uuid.UUID
	Fingerprint fingerprint.Fingerprint

	Name           string
	PromptContext  string
	Description    string
	ExpectedOutput string
	Config         map[string]any

	AgentRole string
	Context   []uuid.UUID

	AsyncExecution bool

	OutputJSON     string
	OutputPydantic string
	ResponseModel  string

	OutputFile      string
	CreateDirectory bool

	Output *TaskOutput

	ToolNames  []string
	InputFiles map[string]string

	HumanInput bool
	Markdown   bool

	Guardrail           GuardrailFunc
	GuardrailMaxRetries int
	RetryCount          int

	StartTime *time.Time
	EndTime   *time.Time

	ProcessedByAgents map[string]struct{}

	UsedTools   int
	ToolsErrors int
	Delegations int

	Condition ConditionFunc

	Callback      func(*TaskOutput)
	AgentExecutor AgentExecutorFunc

	originalDescription    *string
	originalExpectedOutput *string
	originalOutputFile     *string
}

// New constructs a Task with the same defaults the crew orchestrator
// expects: directory creation on, three guardrail retries.
func New(description, expectedOutput string) *Task {
	return &Task{
		ID:                  uuid.New(),
		Fingerprint:         fingerprint.Generate("", nil),
		Description:         description,
		ExpectedOutput:      expectedOutput,
		CreateDirectory:     true,
		GuardrailMaxRetries: 3,
		InputFiles:          map[string]string{},
		ProcessedByAgents:   map[string]struct{}{},
	}
}

// Clone returns a copy of the task with a fresh ID and fingerprint, its
// counters and timestamps reset, and its callbacks dropped (callbacks are
// reattached by whoever clones the task, e.g. async re-execution).
func (t *Task) Clone() *Task {
	clone := *t
	clone.ID = uuid.New()
	clone.Fingerprint = fingerprint.Generate("", nil)
	clone.RetryCount = 0
	clone.UsedTools = 0
	clone.ToolsErrors = 0
	clone.Delegations = 0
	clone.StartTime = nil
	clone.EndTime = nil
	clone.ProcessedByAgents = map[string]struct{}{}
	clone.Callback = nil
	clone.AgentExecutor = nil

	clone.Context = append([]uuid.UUID(nil), t.Context...)
	clone.ToolNames = append([]string(nil), t.ToolNames...)
	clone.InputFiles = make(map[string]string, len(t.InputFiles))
	for k, v := range t.InputFiles {
		clone.InputFiles[k] = v
	}
	return &clone
}

// Key computes md5(description|expected_output) over the pre-interpolation
// originals when present, falling back to the current values otherwise.
func (t *Task) Key() string {
	description := t.Description
	if t.originalDescription != nil {
		description = *t.originalDescription
	}
	expectedOutput := t.ExpectedOutput
	if t.originalExpectedOutput != nil {
		expectedOutput = *t.originalExpectedOutput
	}
	sum := md5.Sum([]byte(description + "|" + expectedOutput))
	return hex.EncodeToString(sum[:])
}

// InterpolateInputs substitutes "{key}" placeholders in Description,
// ExpectedOutput, and OutputFile, remembering the pre-interpolation
// originals on first call so Key() and repeated interpolation stay stable.
func (t *Task) InterpolateInputs(inputs map[string]string) {
	if t.originalDescription == nil {
		d := t.Description
		t.originalDescription = &d
	}
	if t.originalExpectedOutput == nil {
		e := t.ExpectedOutput
		t.originalExpectedOutput = &e
	}
	if t.OutputFile != "" && t.originalOutputFile == nil {
		f := t.OutputFile
		t.originalOutputFile = &f
	}
	if len(inputs) == 0 {
		return
	}
	t.Description = interpolate(*t.originalDescription, inputs)
	t.ExpectedOutput = interpolate(*t.originalExpectedOutput, inputs)
	if t.originalOutputFile != nil {
		t.OutputFile = interpolate(*t.originalOutputFile, inputs)
	}
}

func interpolate(template string, inputs map[string]string) string {
	out := template
	for k, v := range inputs {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

// Prompt renders the text sent to the agent: description, expected output,
// and (when Markdown is set) formatting instructions.
func (t *Task) Prompt() string {
	var b strings.Builder
	b.WriteString(t.Description)
	b.WriteString("\nExpected Output: ")
	b.WriteString(t.ExpectedOutput)
	if t.Markdown {
		b.WriteString("\n" + markdownInstruction)
	}
	return b.String()
}

const markdownInstruction = "Your final answer MUST be formatted in Markdown syntax.\n" +
	"Follow these guidelines:\n" +
	"- Use # for headers\n" +
	"- Use ** for bold text\n" +
	"- Use * for italic text\n" +
	"- Use - or * for bullet points\n" +
	"- Use `code` for inline code\n" +
	"- Use ```language for code blocks"

// OutputSelector returns the OutputFormat the task requests, in precedence
// order response_model > output_pydantic > output_json > raw.
func (t *Task) OutputSelector() OutputFormat {
	switch {
	case t.ResponseModel != "":
		return OutputFormatPydantic
	case t.OutputPydantic != "":
		return OutputFormatPydantic
	case t.OutputJSON != "":
		return OutputFormatJSON
	default:
		return OutputFormatRaw
	}
}

// ExecuteSync runs the task synchronously via AgentExecutor, recording
// start/end times, the producing agent, and invoking Callback on success.
// agentRole overrides t.AgentRole when non-empty; taskContext, when
// non-empty, is threaded through as prior-task context.
func (t *Task) ExecuteSync(ctx context.Context, agentRole, taskContext string) (*TaskOutput, error) {
	now := time.Now()
	t.StartTime = &now

	role := agentRole
	if role == "" {
		role = t.AgentRole
	}
	if role == "" {
		return nil, fmt.Errorf("task: %q has no agent assigned; it must run inside a crew process that supports unassigned tasks", t.Description)
	}
	if taskContext != "" {
		t.PromptContext = taskContext
	}
	t.ProcessedByAgents[role] = struct{}{}

	if t.AgentExecutor == nil {
		return nil, fmt.Errorf("task: %q has no agent executor configured", t.Description)
	}
	raw, messages, err := t.AgentExecutor(ctx, t.Prompt(), taskContext, t.ToolNames)
	if err != nil {
		return nil, fmt.Errorf("task: execution failed: %w", err)
	}

	name := t.Name
	if name == "" {
		name = t.Description
	}
	out := &TaskOutput{
		Description:    t.Description,
		Name:           name,
		ExpectedOutput: t.ExpectedOutput,
		Summary:        summarize(t.Description),
		Raw:            raw,
		Agent:          role,
		OutputFormat:   t.OutputSelector(),
	}
	for _, m := range messages {
		out.Messages = append(out.Messages, toLLMMessage(m))
	}

	if t.Guardrail != nil {
		guarded, gerr := t.runGuardrail(ctx, out, taskContext)
		if gerr != nil {
			return nil, gerr
		}
		out = guarded
	}

	t.Output = out
	end := time.Now()
	t.EndTime = &end

	if t.Callback != nil {
		t.Callback(out)
	}
	return out, nil
}

func (t *Task) runGuardrail(ctx context.Context, out *TaskOutput, taskContext string) (*TaskOutput, error) {
	current := out
	for {
		result, err := t.Guardrail(current)
		if err == nil {
			return result, nil
		}
		t.RetryCount++
		if t.RetryCount > t.GuardrailMaxRetries {
			return nil, fmt.Errorf("task: %q failed guardrail validation after %d retries: %w", t.Description, t.GuardrailMaxRetries, err)
		}
		feedback := t.Prompt() + "\n\nYour previous answer was rejected by the guardrail: " + err.Error()
		raw, messages, aerr := t.AgentExecutor(ctx, feedback, taskContext, t.ToolNames)
		if aerr != nil {
			return nil, fmt.Errorf("task: execution failed: %w", aerr)
		}
		retried := *current
		retried.Raw = raw
		retried.Messages = nil
		for _, m := range messages {
			retried.Messages = append(retried.Messages, toLLMMessage(m))
		}
		current = &retried
	}
}

// ExecutionDuration reports the elapsed time between StartTime and EndTime,
// or false if either is unset.
func (t *Task) ExecutionDuration() (time.Duration, bool) {
	if t.StartTime == nil || t.EndTime == nil {
		return 0, false
	}
	return t.EndTime.Sub(*t.StartTime), true
}

// IncrementToolsErrors bumps the tool-error counter by one. runtime/crew's
// executor adapter does not call it; it adds the agent loop's tool-error
// count to ToolsErrors directly after each execution.
func (t *Task) IncrementToolsErrors() { t.ToolsErrors++ }

// IncrementDelegations bumps the delegation counter and records the
// delegate's role as having processed this task.
func (t *Task) IncrementDelegations(agentRole string) {
	if agentRole != "" {
		t.ProcessedByAgents[agentRole] = struct{}{}
	}
	t.Delegations++
}

// SaveFile writes result to OutputFile, creating its parent directory first
// when CreateDirectory is set.
func (t *Task) SaveFile(result string) error {
	if t.OutputFile == "" {
		return fmt.Errorf("task: output_file is not set")
	}
	if t.CreateDirectory {
		if dir := filepath.Dir(t.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("task: create output directory: %w", err)
			}
		}
	}
	if err := os.WriteFile(t.OutputFile, []byte(result), 0o644); err != nil {
		return fmt.Errorf("task: save output file: %w", err)
	}
	return nil
}

func (t *Task) String() string {
	return fmt.Sprintf("Task(description=%s, expected_output=%s)", t.Description, t.ExpectedOutput)
}
