package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppliesDefaults(t *testing.T) {
	tk := New("write a report", "a markdown report")
	assert.Equal(t, 3, tk.GuardrailMaxRetries)
	assert.True(t, tk.CreateDirectory)
	assert.NotEmpty(t, tk.Fingerprint.UUIDStr)
}

func TestCloneAssignsFreshIdentityAndResetsCounters(t *testing.T) {
	tk := New("write a report", "a markdown report")
	tk.RetryCount = 2
	clone := tk.Clone()
	assert.NotEqual(t, tk.ID, clone.ID)
	assert.NotEqual(t, tk.Fingerprint.UUIDStr, clone.Fingerprint.UUIDStr)
	assert.Zero(t, clone.RetryCount)
	assert.Equal(t, tk.Description, clone.Description)
}

func TestKeyIsStableAcrossInterpolation(t *testing.T) {
	tk := New("summarize {topic}", "a summary of {topic}")
	before := tk.Key()
	tk.InterpolateInputs(map[string]string{"topic": "quarterly earnings"})
	after := tk.Key()
	require.Equal(t, before, after, "key must be computed over pre-interpolation originals")
	assert.Equal(t, "summarize quarterly earnings", tk.Description)
}

func TestOutputSelectorPrecedence(t *testing.T) {
	tk := New("d", "e")
	assert.Equal(t, OutputFormatRaw, tk.OutputSelector())

	tk.OutputJSON = "schema"
	assert.Equal(t, OutputFormatJSON, tk.OutputSelector())

	tk.OutputPydantic = "Model"
	assert.Equal(t, OutputFormatPydantic, tk.OutputSelector())

	tk.ResponseModel = "Model"
	assert.Equal(t, OutputFormatPydantic, tk.OutputSelector())
}

func TestPromptAppendsMarkdownInstructionsWhenSet(t *testing.T) {
	tk := New("write something", "a clean document")
	tk.Markdown = true
	assert.Contains(t, tk.Prompt(), "Markdown syntax")
}

func TestExecuteSyncRequiresAnAssignedAgent(t *testing.T) {
	tk := New("do work", "a result")
	_, err := tk.ExecuteSync(context.Background(), "", "")
	assert.Error(t, err)
}

func TestExecuteSyncRunsAgentExecutorAndRecordsOutput(t *testing.T) {
	tk := New("do work", "a result")
	tk.AgentRole = "worker"
	tk.AgentExecutor = func(ctx context.Context, prompt, taskContext string, toolNames []string) (string, []TaskMessage, error) {
		return "done", []TaskMessage{{Role: "assistant", Content: "done"}}, nil
	}

	out, err := tk.ExecuteSync(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "done", out.Raw)
	assert.Equal(t, "worker", out.Agent)
	assert.Len(t, out.Messages, 1)
	assert.NotNil(t, tk.StartTime)
	assert.NotNil(t, tk.EndTime)
	assert.Same(t, out, tk.Output)
}

func TestExecuteSyncAppliesGuardrailRewrite(t *testing.T) {
	tk := New("do work", "a result")
	tk.AgentRole = "worker"
	tk.AgentExecutor = func(ctx context.Context, prompt, taskContext string, toolNames []string) (string, []TaskMessage, error) {
		return "draft", nil, nil
	}
	tk.Guardrail = func(output *TaskOutput) (*TaskOutput, error) {
		clone := *output
		clone.Raw = "revised: " + output.Raw
		return &clone, nil
	}

	out, err := tk.ExecuteSync(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "revised: draft", out.Raw)
}

func TestExecuteSyncSurfacesGuardrailFailureAfterExhaustingRetries(t *testing.T) {
	tk := New("do work", "a result")
	tk.AgentRole = "worker"
	tk.GuardrailMaxRetries = 1
	tk.AgentExecutor = func(ctx context.Context, prompt, taskContext string, toolNames []string) (string, []TaskMessage, error) {
		return "draft", nil, nil
	}
	tk.Guardrail = func(output *TaskOutput) (*TaskOutput, error) {
		return nil, errors.New("does not satisfy the guardrail")
	}

	_, err := tk.ExecuteSync(context.Background(), "", "")
	assert.Error(t, err)
}

func TestShouldExecuteDefaultsTrueWithoutCondition(t *testing.T) {
	tk := New("d", "e")
	assert.True(t, tk.ShouldExecute(nil))
}

func TestShouldExecuteDelegatesToCondition(t *testing.T) {
	tk := New("d", "e")
	tk.Condition = func(priorOutputs []*TaskOutput) bool {
		return len(priorOutputs) > 0 && priorOutputs[0].Raw == "go"
	}
	assert.False(t, tk.ShouldExecute(nil))
	assert.True(t, tk.ShouldExecute([]*TaskOutput{{Raw: "go"}}))
}

func TestSkippedOutputCarriesEmptyRaw(t *testing.T) {
	tk := New("d", "e")
	tk.AgentRole = "worker"
	out := tk.SkippedOutput()
	assert.Empty(t, out.Raw)
	assert.Equal(t, "worker", out.Agent)
}
