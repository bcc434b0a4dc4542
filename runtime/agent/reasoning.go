package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/crewforge/orchestrator/runtime/events"
	"github.com/crewforge/orchestrator/runtime/llm"
	"github.com/crewforge/orchestrator/runtime/usage"
)

const defaultMaxReasoningAttempts = 3

// runReasoning asks the provider to produce a short plan for the task before
// the main loop starts, retrying up to MaxReasoningAttempts times on a
// provider error. An empty return means reasoning failed after all attempts;
// ExecuteTask proceeds without a plan rather than failing the task outright.
// Token spend for the reasoning call(s) accumulates into usageOut so callers
// can fold it into the task's overall usage.
func (ex *Executor) runReasoning(ctx context.Context, taskDescription string, usageOut *usage.Metrics) (string, error) {
	attempts := defaultMaxReasoningAttempts
	if ex.Agent.MaxReasoningAttempts != nil {
		attempts = *ex.Agent.MaxReasoningAttempts
	}
	prompt := fmt.Sprintf(
		"You are %s. Before executing the following task, produce a short, numbered plan "+
			"describing the steps you will take. Do not execute the task yet.\n\nTask: %s",
		ex.Agent.Role, taskDescription,
	)
	req := &llm.Request{
		Messages: []*llm.Message{{Role: llm.RoleUser, Parts: []llm.Part{llm.TextPart{Text: prompt}}}},
	}

	ex.emit(ctx, &events.AgentReasoningStartedEvent{
		Header:    events.NewHeader("agent_reasoning_started"),
		AgentRole: ex.Agent.Role,
	})
	var lastErr error
	for i := 0; i < attempts; i++ {
		resp, err := ex.Provider.Call(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		usageOut.Add(usage.Metrics{
			TotalTokens:        int64(resp.Usage.TotalTokens),
			PromptTokens:       int64(resp.Usage.InputTokens),
			CachedPromptTokens: int64(resp.Usage.CacheReadTokens),
			CompletionTokens:   int64(resp.Usage.OutputTokens),
			SuccessfulRequests: 1,
		})
		plan := strings.TrimSpace(joinResponseText(resp))
		if plan != "" {
			ex.emitReasoningCompleted(ctx, plan)
			return plan, nil
		}
	}
	if lastErr != nil {
		ex.emit(ctx, &events.AgentReasoningFailedEvent{
			Header:    events.NewHeader("agent_reasoning_failed"),
			AgentRole: ex.Agent.Role,
			Error:     lastErr.Error(),
		})
		return "", lastErr
	}
	return "", nil
}

func (ex *Executor) emitReasoningCompleted(ctx context.Context, plan string) {
	if ex.Bus == nil {
		return
	}
	_ = ex.Bus.Emit(ctx, ex.Agent, &events.AgentReasoningCompletedEvent{
		Header:    events.NewHeader("agent_reasoning_completed"),
		AgentRole: ex.Agent.Role,
		Plan:      plan,
	})
}
