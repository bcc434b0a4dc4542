package agent

import "context"

// LiteAgentOutput is the result of a standalone Kickoff call: no crew, no
// task bookkeeping, just the agent's answer to a query.
type LiteAgentOutput struct {
	Raw      string
	Messages []Message
}

// Message is the minimal chat turn shape Kickoff reports back, independent
// of the richer llm.Message used internally by the loop.
type Message struct {
	Role    string
	Content string
}

// Kickoff runs the agent against a bare query with no crew or task
// bookkeeping, reusing the same execution loop as ExecuteTask with empty
// context.
func (ex *Executor) Kickoff(ctx context.Context, query string) (*LiteAgentOutput, error) {
	result, err := ex.ExecuteTask(ctx, query, "")
	if err != nil {
		return nil, err
	}
	out := &LiteAgentOutput{Raw: result.Output}
	for _, m := range result.Messages {
		out.Messages = append(out.Messages, Message{Role: string(m.Role), Content: m.TextContent()})
	}
	return out, nil
}
