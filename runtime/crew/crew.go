// Package crew implements the orchestrator that runs a crew's tasks under a
// process (sequential or hierarchical), interpolating inputs, threading
// context between tasks, and aggregating usage metrics into a CrewOutput.
package crew

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/crewforge/orchestrator/runtime/agent"
	"github.com/crewforge/orchestrator/runtime/events"
	"github.com/crewforge/orchestrator/runtime/fingerprint"
	"github.com/crewforge/orchestrator/runtime/llm"
	"github.com/crewforge/orchestrator/runtime/llm/providers"
	"github.com/crewforge/orchestrator/runtime/task"
	"github.com/crewforge/orchestrator/runtime/usage"
)

const managerRoleLabel = "Crew Manager"

// validResetKinds are the only command types ResetMemories accepts.
var validResetKinds = map[string]bool{
	"long": true, "short": true, "entity": true, "knowledge": true,
	"agent_knowledge": true, "kickoff_outputs": true, "external": true, "all": true,
}

type (
	// BeforeKickoffFunc rewrites kickoff inputs before tasks run.
	BeforeKickoffFunc func(inputs map[string]string) map[string]string
	// AfterKickoffFunc rewrites the final CrewOutput after tasks run.
	AfterKickoffFunc func(output *CrewOutput) *CrewOutput

	// Crew is a group of agents and an ordered task list, plus the process
	// that decides how tasks are dispatched across them.
	Crew struct {
		ID          uuid.UUID
		Fingerprint fingerprint.Fingerprint
		Name        string

		Cache     bool
		Verbose   bool
		Memory    bool
		Planning  bool
		Tracing   bool
		Stream    bool
		ShareCrew bool

		Tasks  []*task.Task
		Agents []*agent.Agent

		Process Process

		// ManagerAgentRole names an existing crew agent to act as the
		// hierarchical manager. ManagerLLM, when ManagerAgentRole is
		// unset, constructs a standalone manager agent from that LLM
		// identifier. Hierarchical kickoff requires one or the other.
		ManagerAgentRole string
		ManagerLLM       string

		FunctionCallingLLM string

		MaxRPM *int
		Config map[string]any

		// Tools is the global registry worker agents may draw from by
		// name (Agent.ToolNames, further narrowed per task by
		// Task.ToolNames). Nil means no tools are available.
		Tools agent.ToolRegistry

		Credentials providers.Credentials
		Deployment  string

		Bus *events.Bus

		StepCallback           func(step string)
		TaskCallback           func(*task.TaskOutput)
		BeforeKickoffCallbacks []BeforeKickoffFunc
		AfterKickoffCallbacks  []AfterKickoffFunc

		// ExecutionLog is an observational record of each completed task,
		// appended by runTask as the task finishes. It is never consulted by replay or by
		// kickoff itself (decision D3); ResetMemories("kickoff_outputs")
		// and ResetMemories("all") are the only things that clear it.
		ExecutionLog []map[string]any

		TokenUsage usage.Metrics

		inputs       map[string]string
		executors    map[string]*agent.Executor
		kickoffUsage usage.Metrics
	}
)

// New constructs a Crew with sequential dispatch, caching on, and
// credentials read from the process environment.
func New(tasks []*task.Task, agents []*agent.Agent) *Crew {
	return &Crew{
		ID:          uuid.New(),
		Fingerprint: fingerprint.Generate("", nil),
		Name:        "crew",
		Cache:       true,
		Tasks:       tasks,
		Agents:      agents,
		Process:     ProcessSequential,
		Credentials: providers.CredentialsFromEnv(),
	}
}

// Key computes md5(agent_keys ++ task_keys, joined by "|"): each agent's own
// Key() (role|goal|backstory) followed by each task's own Key()
// (description|expected_output).
func (c *Crew) Key() string {
	parts := make([]string, 0, len(c.Agents)+len(c.Tasks))
	for _, a := range c.Agents {
		parts = append(parts, a.Key())
	}
	for _, t := range c.Tasks {
		parts = append(parts, t.Key())
	}
	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// Clone returns a deep copy of the crew with a fresh ID and fingerprint,
// fresh agent and task identities, cleared usage and execution log, and no
// callbacks (callbacks are reattached by whoever clones the crew).
func (c *Crew) Clone() *Crew {
	clone := *c
	clone.ID = uuid.New()
	clone.Fingerprint = fingerprint.Generate("", nil)
	clone.TokenUsage = usage.Metrics{}
	clone.kickoffUsage = usage.Metrics{}
	clone.StepCallback = nil
	clone.TaskCallback = nil
	clone.BeforeKickoffCallbacks = nil
	clone.AfterKickoffCallbacks = nil
	clone.ExecutionLog = nil
	clone.inputs = nil
	clone.executors = nil

	clone.Tasks = make([]*task.Task, len(c.Tasks))
	for i, t := range c.Tasks {
		clone.Tasks[i] = t.Clone()
	}
	clone.Agents = make([]*agent.Agent, len(c.Agents))
	for i, a := range c.Agents {
		clone.Agents[i] = a.Clone()
	}
	return &clone
}

// ResetMemories clears one of {long, short, entity, knowledge,
// agent_knowledge, kickoff_outputs, external, all}. The memory backends
// themselves are external collaborators outside this module's scope; the
// only in-process state a reset touches is ExecutionLog.
func (c *Crew) ResetMemories(kind string) error {
	if !validResetKinds[kind] {
		return fmt.Errorf("crew: invalid reset kind %q; must be one of long, short, entity, knowledge, agent_knowledge, kickoff_outputs, external, all", kind)
	}
	if kind == "kickoff_outputs" || kind == "all" {
		c.ExecutionLog = nil
	}
	return nil
}

func (c *Crew) interpolateInputs(inputs map[string]string) {
	for _, t := range c.Tasks {
		t.InterpolateInputs(inputs)
	}
	for _, a := range c.Agents {
		a.InterpolateInputs(inputs)
	}
}

// Kickoff runs before-kickoff callbacks, interpolates inputs into every
// task and agent, dispatches tasks under Process, then runs after-kickoff
// callbacks over the resulting CrewOutput. Emits crew_kickoff_started
// bracketing crew_kickoff_completed or crew_kickoff_failed.
func (c *Crew) Kickoff(ctx context.Context, inputs map[string]string) (*CrewOutput, error) {
	if len(c.Agents) == 0 {
		return nil, fmt.Errorf("crew: cannot kick off with no agents")
	}
	if len(c.Tasks) == 0 {
		return nil, fmt.Errorf("crew: cannot kick off with no tasks")
	}

	current := inputs
	for _, cb := range c.BeforeKickoffCallbacks {
		current = cb(current)
	}
	c.inputs = current
	if len(current) > 0 {
		c.interpolateInputs(current)
	}

	c.kickoffUsage = usage.Metrics{}
	c.emit(ctx, events.NewCrewKickoffStartedEvent(c.Name, toAnyMap(current)))

	var (
		result *CrewOutput
		err    error
	)
	switch c.Process {
	case ProcessHierarchical:
		result, err = c.runHierarchical(ctx)
	default:
		result, err = c.runSequential(ctx)
	}
	if err != nil {
		c.emit(ctx, events.NewCrewKickoffFailedEvent(c.Name, err.Error()))
		return nil, err
	}

	for _, cb := range c.AfterKickoffCallbacks {
		result = cb(result)
	}

	c.TokenUsage = result.TokenUsage
	c.emit(ctx, events.NewCrewKickoffCompletedEvent(c.Name, result.Raw))
	return result, nil
}

func (c *Crew) runSequential(ctx context.Context) (*CrewOutput, error) {
	outputs := make([]*task.TaskOutput, 0, len(c.Tasks))
	for _, t := range c.Tasks {
		if !t.ShouldExecute(outputs) {
			outputs = append(outputs, t.SkippedOutput())
			continue
		}
		role := t.AgentRole
		if role == "" {
			return nil, fmt.Errorf("crew: task %q has no agent assigned", t.Description)
		}
		ex, err := c.executorFor(ctx, role)
		if err != nil {
			return nil, err
		}
		out, err := c.runTask(ctx, t, ex, role, outputs)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return newCrewOutput(outputs, c.kickoffUsage)
}

func (c *Crew) runHierarchical(ctx context.Context) (*CrewOutput, error) {
	manager, err := c.managerExecutor(ctx)
	if err != nil {
		return nil, err
	}
	outputs := make([]*task.TaskOutput, 0, len(c.Tasks))
	for _, t := range c.Tasks {
		if !t.ShouldExecute(outputs) {
			outputs = append(outputs, t.SkippedOutput())
			continue
		}
		role := t.AgentRole
		if role == "" {
			role = managerRoleLabel
		}
		out, err := c.runTask(ctx, t, manager, role, outputs)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return newCrewOutput(outputs, c.kickoffUsage)
}

func (c *Crew) runTask(ctx context.Context, t *task.Task, ex *agent.Executor, role string, prior []*task.TaskOutput) (*task.TaskOutput, error) {
	if t.Callback == nil && c.TaskCallback != nil {
		t.Callback = c.TaskCallback
	}
	t.AgentExecutor = c.adaptExecutor(ex, t)
	out, err := t.ExecuteSync(ctx, role, joinRaws(prior))
	if err != nil {
		return nil, fmt.Errorf("crew: task %q failed: %w", t.Description, err)
	}
	c.ExecutionLog = append(c.ExecutionLog, map[string]any{
		"task": t.Description, "agent": out.Agent, "raw": out.Raw,
	})
	return out, nil
}

func joinRaws(outputs []*task.TaskOutput) string {
	if len(outputs) == 0 {
		return ""
	}
	raws := make([]string, 0, len(outputs))
	for _, o := range outputs {
		if o.Raw != "" {
			raws = append(raws, o.Raw)
		}
	}
	return strings.Join(raws, "\n")
}

// adaptExecutor bridges an agent.Executor into the task.AgentExecutorFunc
// shape, narrowing the executor's tool registry to toolNames when the task
// restricts tools, and folding the call's usage and tool counters back into
// the crew and the task.
func (c *Crew) adaptExecutor(ex *agent.Executor, t *task.Task) task.AgentExecutorFunc {
	return func(ctx context.Context, prompt, taskContext string, toolNames []string) (string, []task.TaskMessage, error) {
		runEx := ex
		if len(toolNames) > 0 {
			scoped := make(agent.ToolRegistry, len(toolNames))
			for _, name := range toolNames {
				if tool, ok := ex.Tools[name]; ok {
					scoped[name] = tool
				}
			}
			clone := *ex
			clone.Tools = scoped
			runEx = &clone
		}
		result, err := runEx.ExecuteTask(ctx, prompt, taskContext)
		if err != nil {
			return "", nil, err
		}
		c.kickoffUsage.Add(result.Usage)
		t.UsedTools += result.ToolsUsed
		t.ToolsErrors += result.ToolsErrors
		msgs := make([]task.TaskMessage, 0, len(result.Messages))
		for _, m := range result.Messages {
			msgs = append(msgs, task.TaskMessage{Role: string(m.Role), Content: m.TextContent()})
		}
		return result.Output, msgs, nil
	}
}

func (c *Crew) findAgent(role string) *agent.Agent {
	for _, a := range c.Agents {
		if a.Role == role {
			return a
		}
	}
	return nil
}

func (c *Crew) scopedTools(names []string) agent.ToolRegistry {
	if len(names) == 0 {
		return c.Tools
	}
	scoped := make(agent.ToolRegistry, len(names))
	for _, name := range names {
		if tool, ok := c.Tools[name]; ok {
			scoped[name] = tool
		}
	}
	return scoped
}

// executorFor lazily builds and caches the Executor for a crew agent role:
// resolves its provider from LLM, scopes its tools, and wires an
// LLM-backed guardrail when the agent declares guardrail instructions.
func (c *Crew) executorFor(ctx context.Context, role string) (*agent.Executor, error) {
	if ex, ok := c.executors[role]; ok {
		return ex, nil
	}
	ag := c.findAgent(role)
	if ag == nil {
		return nil, fmt.Errorf("crew: no agent with role %q", role)
	}
	provider, _, err := providers.New(ctx, ag.LLM, c.Credentials, c.Deployment)
	if err != nil {
		return nil, fmt.Errorf("crew: resolve provider for agent %q: %w", role, err)
	}
	var guard llm.GuardrailFunc
	if ag.GuardrailInstructions != "" {
		guard = llm.Guardrail(provider, ag.GuardrailInstructions)
	}
	ex := &agent.Executor{
		Agent:     ag,
		Provider:  provider,
		Tools:     c.scopedTools(ag.ToolNames),
		Guardrail: guard,
		Bus:       c.Bus,
	}
	if c.executors == nil {
		c.executors = map[string]*agent.Executor{}
	}
	c.executors[role] = ex
	return ex, nil
}

// managerExecutor builds the hierarchical process's manager agent: either
// an existing crew agent named by ManagerAgentRole, or a fresh one
// constructed from ManagerLLM. Its only tools are "Delegate work to
// coworker" and "Ask question to coworker" (delegateWorkTool and
// askQuestionTool), scoped over every other crew agent (decision D2).
func (c *Crew) managerExecutor(ctx context.Context) (*agent.Executor, error) {
	var mgr *agent.Agent
	if c.ManagerAgentRole != "" {
		mgr = c.findAgent(c.ManagerAgentRole)
		if mgr == nil {
			return nil, fmt.Errorf("crew: manager_agent role %q not found among crew agents", c.ManagerAgentRole)
		}
	} else {
		if c.ManagerLLM == "" {
			return nil, fmt.Errorf("crew: hierarchical process requires manager_llm or manager_agent")
		}
		mgr = agent.New(managerRoleLabel,
			"Coordinate the crew's tasks by delegating each one to the best-suited coworker.",
			"An experienced project manager who knows every coworker's strengths and weaknesses.")
		mgr.LLM = c.ManagerLLM
	}

	provider, _, err := providers.New(ctx, mgr.LLM, c.Credentials, c.Deployment)
	if err != nil {
		return nil, fmt.Errorf("crew: resolve manager provider: %w", err)
	}

	coworkers := make(map[string]*agent.Executor, len(c.Agents))
	for _, a := range c.Agents {
		if a.Role == mgr.Role {
			continue
		}
		ex, err := c.executorFor(ctx, a.Role)
		if err != nil {
			return nil, err
		}
		coworkers[a.Role] = ex
	}
	tools, err := agent.NewToolRegistry(delegateWorkTool(coworkers), askQuestionTool(coworkers))
	if err != nil {
		return nil, fmt.Errorf("crew: build manager toolkit: %w", err)
	}
	return &agent.Executor{Agent: mgr, Provider: provider, Tools: tools, Bus: c.Bus}, nil
}

func (c *Crew) emit(ctx context.Context, ev events.Event) {
	if c.Bus == nil {
		return
	}
	_ = c.Bus.Emit(ctx, c, ev)
}

func toAnyMap(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (c *Crew) String() string {
	return fmt.Sprintf("Crew(id=%s, process=%s, number_of_agents=%d, number_of_tasks=%d)",
		c.ID, c.Process, len(c.Agents), len(c.Tasks))
}
