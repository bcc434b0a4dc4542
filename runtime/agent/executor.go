package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/crewforge/orchestrator/runtime/events"
	"github.com/crewforge/orchestrator/runtime/llm"
	"github.com/crewforge/orchestrator/runtime/usage"
)

// loopState names the state machine's current node: Planning (call the
// model and parse its reply), ToolCall, Retry (re-prompt after a parse
// failure), and Final (guardrail check, then return). Parsing happens
// inside Planning; there is no separate awaiting-response state. Each state
// visited consumes one MaxIter iteration.
type loopState int

const (
	statePlanning loopState = iota
	stateToolCall
	stateRetry
	stateFinal
)

type (
	// Executor drives a single Agent through its execution loop against a
	// concrete provider and tool registry. It keeps no per-call state, so
	// one Executor may serve many ExecuteTask/Kickoff calls; runtime/crew
	// caches one per agent role and reuses it across tasks.
	Executor struct {
		Agent     *Agent
		Provider  llm.Provider
		Tools     ToolRegistry
		Guardrail llm.GuardrailFunc
		Bus       *events.Bus

		// Now, when set, overrides time.Now for date injection (tests only).
		Now func() time.Time
	}

	// Result is the outcome of a completed execution loop.
	Result struct {
		Output         string
		Messages       []llm.Message
		ToolsUsed      int
		ToolsErrors    int
		RetryCount     int
		IterationsUsed int
		Usage          usage.Metrics
	}
)

// ExecuteTask runs the agent against a single task description, optionally
// scoped by prior context, returning a Result that carries the final answer
// text with the transcript, tool and retry counters, and token usage. Mirrors
// Agent.execute_task: reasoning pre-step, date injection, timeout handling,
// tool-result-as-answer short-circuit, then the loop itself.
func (ex *Executor) ExecuteTask(ctx context.Context, taskDescription, taskContext string) (*Result, error) {
	if err := ex.validateTiming(); err != nil {
		return nil, err
	}

	var reasoningUsage usage.Metrics
	description := taskDescription
	if ex.Agent.Reasoning {
		plan, err := ex.runReasoning(ctx, description, &reasoningUsage)
		if err == nil && plan != "" {
			description = description + "\n\nReasoning Plan: " + plan
		}
	}
	if ex.Agent.InjectDate {
		description = ex.injectDate(description)
	}

	prompt := buildTaskPrompt(description, taskContext)

	if ex.Agent.MaxExecutionTime != nil {
		timeout := time.Duration(*ex.Agent.MaxExecutionTime) * time.Second
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ex.emit(ctx, events.NewAgentExecutionStartedEvent(ex.Agent.Role, taskDescription))
	result, err := ex.run(ctx, prompt)
	if err != nil {
		ex.emit(ctx, events.NewAgentExecutionErrorEvent(ex.Agent.Role, err.Error()))
		if ctxErr := ctx.Err(); ctxErr == context.DeadlineExceeded {
			return nil, newError(ErrorKindTimeout, "execution timed out", ctxErr)
		}
		return nil, err
	}
	result.Usage.Add(reasoningUsage)
	result.Output = ex.applyResultAsAnswer(result.Output)
	ex.emit(ctx, events.NewAgentExecutionCompletedEvent(ex.Agent.Role, result.Output))
	return result, nil
}

func (ex *Executor) validateTiming() error {
	if ex.Agent.MaxExecutionTime != nil && *ex.Agent.MaxExecutionTime <= 0 {
		return newError(ErrorKindConfig, "max_execution_time must be a positive number of seconds", nil)
	}
	return nil
}

func (ex *Executor) injectDate(description string) string {
	now := time.Now
	if ex.Now != nil {
		now = ex.Now
	}
	return fmt.Sprintf("%s\n\nCurrent Date: %s", description, now().Format(ex.Agent.DateFormat))
}

// applyResultAsAnswer returns the first tool result flagged result_as_answer,
// if any, overriding the model's own final answer.
func (ex *Executor) applyResultAsAnswer(output string) string {
	for _, tr := range ex.Agent.ToolsResults {
		if flag, _ := tr["result_as_answer"].(bool); flag {
			if s, ok := tr["result"].(string); ok {
				return s
			}
		}
	}
	return output
}

func buildTaskPrompt(description, taskContext string) string {
	if taskContext == "" {
		return description
	}
	return fmt.Sprintf("%s\n\nContext:\n%s", description, taskContext)
}

func (ex *Executor) systemPrompt(toolNames []string) string {
	var tb strings.Builder
	tb.WriteString(fmt.Sprintf(
		"You are %s.\n%s\n\nYour goal: %s\n\n",
		ex.Agent.Role, ex.Agent.Backstory, ex.Agent.Goal,
	))
	if len(toolNames) == 0 {
		return tb.String()
	}
	joined := strings.Join(toolNames, ", ")
	tb.WriteString(fmt.Sprintf(
		"Available tools: %s\n\nYou MUST use the following format:\n\n"+
			"Thought: you should always think about what to do\n"+
			"Action: the action to take, one of [%s]\n"+
			"Action Input: the input to the action\n"+
			"Observation: the result of the action\n"+
			"... (this Thought/Action/Action Input/Observation can repeat N times)\n"+
			"Thought: I now know the final answer\n"+
			"Final Answer: the final answer to the original input question",
		joined, joined,
	))
	return tb.String()
}

// run executes the bounded state machine, starting from Planning with the
// supplied user prompt.
func (ex *Executor) run(ctx context.Context, userPrompt string) (*Result, error) {
	toolNames := make([]string, 0, len(ex.Tools))
	toolDefs := make([]*llm.ToolDefinition, 0, len(ex.Tools))
	for name, t := range ex.Tools {
		toolNames = append(toolNames, name)
		toolDefs = append(toolDefs, &llm.ToolDefinition{Name: t.Name, Description: t.Description, InputSchema: t.Schema})
	}

	messages := []*llm.Message{
		{Role: llm.RoleSystem, Parts: []llm.Part{llm.TextPart{Text: ex.systemPrompt(toolNames)}}},
		{Role: llm.RoleUser, Parts: []llm.Part{llm.TextPart{Text: userPrompt}}},
	}

	result := &Result{}
	state := statePlanning
	retryCount := 0
	guardrailRetries := 0
	var pendingText string
	var pendingFinal string
	var pendingTool reactStep

	for iter := 0; iter < ex.Agent.MaxIter; iter++ {
		result.IterationsUsed = iter + 1
		switch state {
		case statePlanning:
			req := &llm.Request{Messages: messages, Stop: DefaultStopWords}
			if maxTok := ex.Agent.MaxTokens; maxTok != nil {
				req.MaxTokens = *maxTok
			}
			if len(toolDefs) > 0 && ex.Provider.SupportsFunctionCalling() {
				req.Tools = toolDefs
			}
			resp, err := ex.Provider.Call(ctx, req)
			if err != nil {
				return nil, newError(ErrorKindProvider, "llm call failed", err)
			}
			result.Usage.Add(usage.Metrics{
				TotalTokens:        int64(resp.Usage.TotalTokens),
				PromptTokens:       int64(resp.Usage.InputTokens),
				CachedPromptTokens: int64(resp.Usage.CacheReadTokens),
				CompletionTokens:   int64(resp.Usage.OutputTokens),
				SuccessfulRequests: 1,
			})
			text := llm.ApplyStopWords(joinResponseText(resp), DefaultStopWords)
			messages = append(messages, assistantMessage(resp, text))

			if len(resp.ToolCalls) > 0 {
				pendingText = ""
				pendingFinal = ""
				step, ok := nativeToolStep(resp.ToolCalls[0])
				if !ok {
					state = stateRetry
					pendingText = "malformed tool call arguments"
					continue
				}
				pendingTool = step
				state = stateToolCall
				continue
			}
			step, ok := parseReAct(text)
			if !ok {
				state = stateRetry
				pendingText = "response matched neither an Action nor a Final Answer"
				continue
			}
			if step.IsFinal {
				pendingFinal = step.Final
				state = stateFinal
				continue
			}
			pendingTool = step
			state = stateToolCall

		case stateToolCall:
			step := pendingTool
			tool, lookupErr := ex.Tools.Lookup(step.ToolName)
			var observation string
			if lookupErr != nil {
				result.ToolsErrors++
				observation = lookupErr.Error()
			} else {
				ex.emit(ctx, events.NewToolUsageStartedEvent(tool.Name))
				out, err := tool.invoke(ctx, step.ToolInput)
				if err != nil {
					result.ToolsErrors++
					observation = err.Error()
					ex.emit(ctx, events.NewToolUsageErrorEvent(tool.Name, err.Error()))
				} else {
					result.ToolsUsed++
					observation = out
					ex.emit(ctx, events.NewToolUsageFinishedEvent(tool.Name))
					if tool.ResultAsAnswer {
						pendingFinal = out
						state = stateFinal
						continue
					}
				}
			}
			messages = append(messages, &llm.Message{
				Role:  llm.RoleTool,
				Parts: []llm.Part{llm.TextPart{Text: formatObservation(observation)}},
			})
			state = statePlanning

		case stateRetry:
			retryCount++
			if retryCount > ex.Agent.MaxRetryLimit {
				return nil, newError(ErrorKindParse, pendingText, nil)
			}
			messages = append(messages, &llm.Message{
				Role:  llm.RoleUser,
				Parts: []llm.Part{llm.TextPart{Text: formatRetryHint(RetryReasonMalformedResponse, pendingText)}},
			})
			state = statePlanning

		case stateFinal:
			result.RetryCount = retryCount
			if ex.Guardrail == nil {
				result.Output = pendingFinal
				result.Messages = dereferenceMessages(messages)
				return result, nil
			}
			accepted, gerr := ex.Guardrail(ctx, pendingFinal)
			if gerr == nil {
				result.Output = accepted
				result.Messages = dereferenceMessages(messages)
				return result, nil
			}
			guardrailRetries++
			if guardrailRetries > ex.Agent.GuardrailMaxRetries {
				return nil, newError(ErrorKindGuardrail, "guardrail validation failed", gerr)
			}
			messages = append(messages, &llm.Message{
				Role:  llm.RoleUser,
				Parts: []llm.Part{llm.TextPart{Text: "Your answer was rejected: " + gerr.Error() + "\nPlease revise and try again."}},
			})
			state = statePlanning
		}
	}
	result.RetryCount = retryCount
	return nil, ErrMaxIterExceeded
}

func (ex *Executor) emit(ctx context.Context, ev events.Event) {
	if ex.Bus == nil {
		return
	}
	_ = ex.Bus.Emit(ctx, ex.Agent, ev)
}

func joinResponseText(resp *llm.Response) string {
	var b strings.Builder
	for _, m := range resp.Content {
		b.WriteString(m.TextContent())
	}
	return b.String()
}

func assistantMessage(resp *llm.Response, text string) *llm.Message {
	parts := make([]llm.Part, 0, 1+len(resp.ToolCalls))
	if text != "" {
		parts = append(parts, llm.TextPart{Text: text})
	}
	for _, tc := range resp.ToolCalls {
		var input any
		_ = json.Unmarshal(tc.Payload, &input)
		parts = append(parts, llm.ToolUsePart{ID: tc.ID, Name: tc.Name, Input: input})
	}
	return &llm.Message{Role: llm.RoleAssistant, Parts: parts}
}

func dereferenceMessages(msgs []*llm.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out
}

func nativeToolStep(tc llm.ToolCall) (reactStep, bool) {
	var input map[string]any
	if err := json.Unmarshal(tc.Payload, &input); err != nil {
		return reactStep{}, false
	}
	return reactStep{ToolName: tc.Name, ToolInput: input}, true
}
