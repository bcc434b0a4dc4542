// Package config loads agents.yaml / tasks.yaml / crew.yaml into the
// runtime's typed Agent/Task/Crew values. Provider credentials and the rest
// of the process environment are read separately, with plain os.Getenv and
// validated at construction (see runtime/llm/providers.CredentialsFromEnv),
// rather than through this package's generic YAML binding.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/crewforge/orchestrator/runtime/agent"
	"github.com/crewforge/orchestrator/runtime/crew"
	"github.com/crewforge/orchestrator/runtime/task"
)

// LoadAgents reads an agents.yaml document (a map of role -> AgentSpec) and
// builds one agent.Agent per entry, keyed by role.
func LoadAgents(path string) (map[string]*agent.Agent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(path, "read agents file", err)
	}
	var specs map[string]AgentSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, newError(path, "parse agents YAML", err)
	}
	agents := make(map[string]*agent.Agent, len(specs))
	for role, spec := range specs {
		agents[role] = buildAgent(role, spec)
	}
	return agents, nil
}

func buildAgent(role string, spec AgentSpec) *agent.Agent {
	a := agent.New(role, spec.Goal, spec.Backstory)
	a.LLM = spec.LLM
	a.FunctionCallingLLM = spec.FunctionCallingLLM
	a.ToolNames = spec.Tools
	a.MaxRPM = spec.MaxRPM
	a.MaxExecutionTime = spec.MaxExecutionTime
	a.AllowDelegation = spec.AllowDelegation
	a.Verbose = spec.Verbose
	a.Reasoning = spec.Reasoning
	a.MaxReasoningAttempts = spec.MaxReasoningAttempts
	a.InjectDate = spec.InjectDate
	a.Multimodal = spec.Multimodal
	a.GuardrailInstructions = spec.GuardrailInstructions
	a.AllowCodeExecution = spec.AllowCodeExecution
	if spec.MaxIter > 0 {
		a.MaxIter = spec.MaxIter
	}
	if spec.Cache != nil {
		a.Cache = *spec.Cache
	}
	if spec.DateFormat != "" {
		a.DateFormat = spec.DateFormat
	}
	if spec.RespectContextWindow != nil {
		a.RespectContextWindow = *spec.RespectContextWindow
	}
	if spec.UseSystemPrompt != nil {
		a.UseSystemPrompt = *spec.UseSystemPrompt
	}
	if spec.MaxRetryLimit != nil {
		a.MaxRetryLimit = *spec.MaxRetryLimit
	}
	if spec.GuardrailMaxRetries != nil {
		a.GuardrailMaxRetries = *spec.GuardrailMaxRetries
	}
	return a
}

// LoadTasks reads a tasks.yaml document (a map of name -> TaskSpec) and
// builds one task.Task per entry, resolving each entry's agent reference
// against agents and each context reference against sibling task names.
// Tasks are returned in a deterministic order (task name, ascending) so
// sequential dispatch is reproducible across loads of the same file.
func LoadTasks(path string, agents map[string]*agent.Agent) ([]*task.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(path, "read tasks file", err)
	}
	var specs map[string]TaskSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, newError(path, "parse tasks YAML", err)
	}

	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	built := make(map[string]*task.Task, len(specs))
	tasks := make([]*task.Task, 0, len(specs))
	for _, name := range names {
		spec := specs[name]
		if spec.Agent != "" {
			if _, ok := agents[spec.Agent]; !ok {
				return nil, newError(path, fmt.Sprintf("task %q references unknown agent %q", name, spec.Agent), nil)
			}
		}
		t := buildTask(name, spec)
		built[name] = t
		tasks = append(tasks, t)
	}
	for _, name := range names {
		spec := specs[name]
		t := built[name]
		for _, dep := range spec.Context {
			depTask, ok := built[dep]
			if !ok {
				return nil, newError(path, fmt.Sprintf("task %q context references unknown task %q", name, dep), nil)
			}
			t.Context = append(t.Context, depTask.ID)
		}
	}
	return tasks, nil
}

func buildTask(name string, spec TaskSpec) *task.Task {
	t := task.New(spec.Description, spec.ExpectedOutput)
	t.Name = name
	t.AgentRole = spec.Agent
	t.AsyncExecution = spec.AsyncExecution
	t.OutputJSON = spec.OutputJSON
	t.OutputPydantic = spec.OutputPydantic
	t.ResponseModel = spec.ResponseModel
	t.OutputFile = spec.OutputFile
	t.ToolNames = spec.Tools
	t.InputFiles = spec.InputFiles
	t.HumanInput = spec.HumanInput
	t.Markdown = spec.Markdown
	if spec.CreateDirectory != nil {
		t.CreateDirectory = *spec.CreateDirectory
	}
	if spec.GuardrailMaxRetries != nil {
		t.GuardrailMaxRetries = *spec.GuardrailMaxRetries
	}
	return t
}

// LoadCrewSpec reads a crew.yaml document.
func LoadCrewSpec(path string) (*CrewSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError(path, "read crew file", err)
	}
	var spec CrewSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, newError(path, "parse crew YAML", err)
	}
	return &spec, nil
}

// Load reads agents.yaml, tasks.yaml, and crew.yaml from dir and assembles
// a *crew.Crew ready for Kickoff. crew.yaml is optional; its absence leaves
// the crew on its New defaults (sequential process, caching on).
func Load(dir string) (*crew.Crew, error) {
	agentsPath := dir + "/agents.yaml"
	tasksPath := dir + "/tasks.yaml"
	crewPath := dir + "/crew.yaml"

	agents, err := LoadAgents(agentsPath)
	if err != nil {
		return nil, err
	}
	agentList := make([]*agent.Agent, 0, len(agents))
	for _, a := range orderedRoles(agents) {
		agentList = append(agentList, agents[a])
	}

	tasks, err := LoadTasks(tasksPath, agents)
	if err != nil {
		return nil, err
	}

	c := crew.New(tasks, agentList)

	if _, err := os.Stat(crewPath); err == nil {
		spec, err := LoadCrewSpec(crewPath)
		if err != nil {
			return nil, err
		}
		applyCrewSpec(c, spec)
	}
	return c, nil
}

func orderedRoles(agents map[string]*agent.Agent) []string {
	roles := make([]string, 0, len(agents))
	for role := range agents {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

func applyCrewSpec(c *crew.Crew, spec *CrewSpec) {
	if spec.Name != "" {
		c.Name = spec.Name
	}
	if spec.Process == "hierarchical" {
		c.Process = crew.ProcessHierarchical
	}
	c.ManagerAgentRole = spec.ManagerAgent
	c.ManagerLLM = spec.ManagerLLM
	c.MaxRPM = spec.MaxRPM
	if spec.Cache != nil {
		c.Cache = *spec.Cache
	}
	c.Verbose = spec.Verbose
	c.Planning = spec.Planning
	c.Memory = spec.Memory
	c.Tracing = spec.Tracing
}
