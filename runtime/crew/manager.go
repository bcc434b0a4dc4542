package crew

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/crewforge/orchestrator/runtime/agent"
)

// sanitizeAgentName normalizes a coworker role for comparison: whitespace
// collapsed to single spaces, quotes stripped, lowercased.
func sanitizeAgentName(name string) string {
	if name == "" {
		return ""
	}
	joined := strings.Join(strings.Fields(name), " ")
	joined = strings.ReplaceAll(joined, `"`, "")
	return strings.ToLower(joined)
}

func lookupCoworker(coworkers map[string]*agent.Executor, name string) (*agent.Executor, []string) {
	target := sanitizeAgentName(name)
	roster := make([]string, 0, len(coworkers))
	for role, ex := range coworkers {
		roster = append(roster, role)
		if sanitizeAgentName(role) == target {
			return ex, nil
		}
	}
	sort.Strings(roster)
	return nil, roster
}

func coworkerNotFoundError(name string, roster []string) error {
	lines := make([]string, len(roster))
	for i, r := range roster {
		lines[i] = "- " + sanitizeAgentName(r)
	}
	return fmt.Errorf("coworker %q not found. Available coworkers:\n%s", sanitizeAgentName(name), strings.Join(lines, "\n"))
}

func coworkerSchema(fieldName, fieldDescription string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			fieldName: map[string]any{
				"type":        "string",
				"description": fieldDescription,
			},
			"context": map[string]any{
				"type":        "string",
				"description": "The context for the " + fieldName,
			},
			"coworker": map[string]any{
				"type":        "string",
				"description": "The role/name of the coworker to delegate to",
			},
		},
		"required": []any{fieldName, "context", "coworker"},
	}
}

// delegateWorkTool builds the manager-only tool that hands a task off to a
// named coworker and runs it to completion synchronously, returning the
// coworker's answer as the observation.
func delegateWorkTool(coworkers map[string]*agent.Executor) *agent.Tool {
	return &agent.Tool{
		Name:        "Delegate work to coworker",
		Description: "Delegate a specific task to one of your coworkers, passing along any useful context.",
		Schema:      coworkerSchema("task", "The task to delegate"),
		Invoke: func(ctx context.Context, input map[string]any) (string, error) {
			taskDesc, _ := input["task"].(string)
			taskContext, _ := input["context"].(string)
			coworker, _ := input["coworker"].(string)
			ex, roster := lookupCoworker(coworkers, coworker)
			if ex == nil {
				return "", coworkerNotFoundError(coworker, roster)
			}
			result, err := ex.ExecuteTask(ctx, taskDesc, taskContext)
			if err != nil {
				return "", fmt.Errorf("delegate to %s: %w", sanitizeAgentName(coworker), err)
			}
			return result.Output, nil
		},
	}
}

// askQuestionTool builds the manager-only tool that asks a named coworker a
// question and runs it synchronously, returning the coworker's answer.
func askQuestionTool(coworkers map[string]*agent.Executor) *agent.Tool {
	return &agent.Tool{
		Name:        "Ask question to coworker",
		Description: "Ask a specific question to one of your coworkers, passing along any useful context.",
		Schema:      coworkerSchema("question", "The question to ask"),
		Invoke: func(ctx context.Context, input map[string]any) (string, error) {
			question, _ := input["question"].(string)
			taskContext, _ := input["context"].(string)
			coworker, _ := input["coworker"].(string)
			ex, roster := lookupCoworker(coworkers, coworker)
			if ex == nil {
				return "", coworkerNotFoundError(coworker, roster)
			}
			result, err := ex.ExecuteTask(ctx, question, taskContext)
			if err != nil {
				return "", fmt.Errorf("ask %s: %w", sanitizeAgentName(coworker), err)
			}
			return result.Output, nil
		},
	}
}
