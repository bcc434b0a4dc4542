package agent_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewforge/orchestrator/runtime/agent"
	"github.com/crewforge/orchestrator/runtime/llm"
)

// scriptedProvider returns one canned response per Call, in order, looping
// on the last entry once exhausted.
type scriptedProvider struct {
	responses []*llm.Response
	errs      []error
	calls     int
}

func (s *scriptedProvider) Call(context.Context, *llm.Request) (*llm.Response, error) {
	i := s.calls
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return nil, err
	}
	return s.responses[i], nil
}
func (s *scriptedProvider) Stream(context.Context, *llm.Request) (llm.Streamer, error) {
	return nil, llm.ErrStreamingUnsupported
}
func (s *scriptedProvider) SupportsFunctionCalling() bool   { return false }
func (s *scriptedProvider) SupportsMultimodal() bool        { return false }
func (s *scriptedProvider) SupportsStopWords() bool         { return true }
func (s *scriptedProvider) GetContextWindowSize(string) int { return 8192 }

func textResponse(text string) *llm.Response {
	return &llm.Response{Content: []llm.Message{{Role: llm.RoleAssistant, Parts: []llm.Part{llm.TextPart{Text: text}}}}}
}

func echoTool() *agent.Tool {
	return &agent.Tool{
		Name:        "search",
		Description: "searches for something",
		Invoke: func(ctx context.Context, input map[string]any) (string, error) {
			return "3 results found", nil
		},
	}
}

func TestExecuteTaskReactRoundTripToFinalAnswer(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		textResponse("Thought: I should search\nAction: search\nAction Input: {\"query\": \"go\"}\nObservation:"),
		textResponse("Thought: I now know the final answer\nFinal Answer: Go is a programming language."),
	}}
	tools, err := agent.NewToolRegistry(echoTool())
	require.NoError(t, err)

	a := agent.New("researcher", "answer questions", "a careful analyst")
	ex := &agent.Executor{Agent: a, Provider: provider, Tools: tools}

	result, err := ex.ExecuteTask(context.Background(), "What is Go?", "")
	require.NoError(t, err)
	assert.Equal(t, "Go is a programming language.", result.Output)
	assert.Equal(t, 1, result.ToolsUsed)
	assert.Equal(t, 2, provider.calls)
}

func TestExecuteTaskRetriesOnParseFailureThenSucceeds(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		textResponse("I am thinking without using the required format."),
		textResponse("Final Answer: done."),
	}}
	a := agent.New("worker", "finish", "diligent")
	ex := &agent.Executor{Agent: a, Provider: provider, Tools: agent.ToolRegistry{}}

	result, err := ex.ExecuteTask(context.Background(), "finish the job", "")
	require.NoError(t, err)
	assert.Equal(t, "done.", result.Output)
	assert.Equal(t, 1, result.RetryCount)
}

func TestExecuteTaskSurfacesParseErrorAfterExhaustingRetries(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		textResponse("still no final answer or action here"),
	}}
	a := agent.New("worker", "finish", "diligent")
	a.MaxRetryLimit = 1
	ex := &agent.Executor{Agent: a, Provider: provider, Tools: agent.ToolRegistry{}}

	_, err := ex.ExecuteTask(context.Background(), "finish the job", "")
	require.Error(t, err)
	var agentErr *agent.Error
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, agent.ErrorKindParse, agentErr.Kind)
}

func TestExecuteTaskSurfacesProviderError(t *testing.T) {
	boom := assert.AnError
	provider := &scriptedProvider{responses: []*llm.Response{nil}, errs: []error{boom}}
	a := agent.New("worker", "finish", "diligent")
	ex := &agent.Executor{Agent: a, Provider: provider, Tools: agent.ToolRegistry{}}

	_, err := ex.ExecuteTask(context.Background(), "finish the job", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestExecuteTaskRejectsNonPositiveMaxExecutionTime(t *testing.T) {
	a := agent.New("worker", "finish", "diligent")
	bad := int64(-5)
	a.MaxExecutionTime = &bad
	ex := &agent.Executor{Agent: a, Provider: &scriptedProvider{}, Tools: agent.ToolRegistry{}}

	_, err := ex.ExecuteTask(context.Background(), "finish the job", "")
	require.Error(t, err)
	var agentErr *agent.Error
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, agent.ErrorKindConfig, agentErr.Kind)
}

func TestExecuteTaskGuardrailRejectsThenRetriesAndAccepts(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		textResponse("Final Answer: first draft"),
		textResponse("Final Answer: revised draft"),
	}}
	a := agent.New("writer", "write", "careful")
	attempts := 0
	guardrail := func(ctx context.Context, output string) (string, error) {
		attempts++
		if attempts == 1 {
			return "", assert.AnError
		}
		return output, nil
	}
	ex := &agent.Executor{Agent: a, Provider: provider, Tools: agent.ToolRegistry{}, Guardrail: guardrail}

	result, err := ex.ExecuteTask(context.Background(), "write something", "")
	require.NoError(t, err)
	assert.Equal(t, "revised draft", result.Output)
}

func TestExecuteTaskMaxIterExceeded(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.Response{
		textResponse("no markers here, ever"),
	}}
	a := agent.New("worker", "finish", "diligent")
	a.MaxIter = 2
	a.MaxRetryLimit = 10
	ex := &agent.Executor{Agent: a, Provider: provider, Tools: agent.ToolRegistry{}}

	_, err := ex.ExecuteTask(context.Background(), "finish the job", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, agent.ErrMaxIterExceeded)
}
