package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewforge/orchestrator/runtime/config"
	"github.com/crewforge/orchestrator/runtime/crew"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadAgentsBuildsOneAgentPerEntry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "agents.yaml", `
researcher:
  goal: find facts
  backstory: a careful researcher
  llm: openai/gpt-4o
  tools: [search]
  max_iter: 10
  allow_delegation: true
writer:
  goal: write prose
  backstory: a clear writer
  llm: anthropic/claude-3-5-sonnet
`)
	agents, err := config.LoadAgents(filepath.Join(dir, "agents.yaml"))
	require.NoError(t, err)
	require.Contains(t, agents, "researcher")
	researcher := agents["researcher"]
	assert.Equal(t, "researcher", researcher.Role)
	assert.Equal(t, "find facts", researcher.Goal)
	assert.Equal(t, "openai/gpt-4o", researcher.LLM)
	assert.Equal(t, []string{"search"}, researcher.ToolNames)
	assert.Equal(t, 10, researcher.MaxIter)
	assert.True(t, researcher.AllowDelegation)

	writer := agents["writer"]
	assert.Equal(t, 25, writer.MaxIter, "unset max_iter keeps agent.New's default")
}

func TestLoadAgentsErrorsOnMissingFile(t *testing.T) {
	_, err := config.LoadAgents("/nonexistent/agents.yaml")
	assert.Error(t, err)
}

func TestLoadAgentsErrorsOnMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "agents.yaml", "not: [valid\n")
	_, err := config.LoadAgents(filepath.Join(dir, "agents.yaml"))
	assert.Error(t, err)
}

func TestLoadTasksResolvesAgentAndContextReferences(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "agents.yaml", `
researcher:
  goal: find facts
  backstory: a careful researcher
writer:
  goal: write prose
  backstory: a clear writer
`)
	writeFile(t, dir, "tasks.yaml", `
research_task:
  description: research the topic
  expected_output: a list of facts
  agent: researcher
write_task:
  description: write it up
  expected_output: a short article
  agent: writer
  context: [research_task]
`)
	agents, err := config.LoadAgents(filepath.Join(dir, "agents.yaml"))
	require.NoError(t, err)
	tasks, err := config.LoadTasks(filepath.Join(dir, "tasks.yaml"), agents)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	byName := map[string]int{}
	for i, tk := range tasks {
		byName[tk.Name] = i
	}
	writeTask := tasks[byName["write_task"]]
	researchTask := tasks[byName["research_task"]]
	require.Len(t, writeTask.Context, 1)
	assert.Equal(t, researchTask.ID, writeTask.Context[0])
}

func TestLoadTasksErrorsOnUnknownAgentReference(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "agents.yaml", `
researcher:
  goal: find facts
  backstory: a careful researcher
`)
	writeFile(t, dir, "tasks.yaml", `
orphan_task:
  description: d
  expected_output: e
  agent: nobody
`)
	agents, err := config.LoadAgents(filepath.Join(dir, "agents.yaml"))
	require.NoError(t, err)
	_, err = config.LoadTasks(filepath.Join(dir, "tasks.yaml"), agents)
	assert.Error(t, err)
}

func TestLoadTasksErrorsOnUnknownContextReference(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tasks.yaml", `
write_task:
  description: d
  expected_output: e
  context: [nonexistent_task]
`)
	_, err := config.LoadTasks(filepath.Join(dir, "tasks.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadAssemblesCrewFromDirectoryWithoutCrewYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "agents.yaml", `
researcher:
  goal: find facts
  backstory: a careful researcher
`)
	writeFile(t, dir, "tasks.yaml", `
research_task:
  description: research the topic
  expected_output: a list of facts
  agent: researcher
`)
	c, err := config.Load(dir)
	require.NoError(t, err)
	assert.Len(t, c.Agents, 1)
	assert.Len(t, c.Tasks, 1)
	assert.Equal(t, crew.ProcessSequential, c.Process)
}

func TestLoadAppliesCrewYAMLSettings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "agents.yaml", `
researcher:
  goal: find facts
  backstory: a careful researcher
manager:
  goal: coordinate
  backstory: a lead
`)
	writeFile(t, dir, "tasks.yaml", `
research_task:
  description: research the topic
  expected_output: a list of facts
  agent: researcher
`)
	writeFile(t, dir, "crew.yaml", `
name: research-crew
process: hierarchical
manager_agent: manager
`)
	c, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "research-crew", c.Name)
	assert.Equal(t, crew.ProcessHierarchical, c.Process)
	assert.Equal(t, "manager", c.ManagerAgentRole)
}
