package agent

import (
	"encoding/json"
	"regexp"
	"strings"
)

// DefaultStopWords is the stop-word set applied to ReAct-style text
// completions before parsing, truncating at the earliest occurrence so a
// model's echoed "Observation:" continuation never leaks into the parse.
var DefaultStopWords = []string{"Observation:"}

var (
	actionRE      = regexp.MustCompile(`(?is)Action:\s*(.+?)[\r\n]`)
	actionInputRE = regexp.MustCompile(`(?is)Action Input:\s*(.+)`)
	finalAnswerRE = regexp.MustCompile(`(?is)Final Answer:\s*(.+)`)
)

// reactStep is the outcome of parsing one ReAct-formatted completion: either
// a single tool call or a final answer, never both.
type reactStep struct {
	ToolName  string
	ToolInput map[string]any
	Final     string
	IsFinal   bool
}

// parseReAct extracts an Action/Action Input pair or a Final Answer from a
// ReAct-formatted completion. Final Answer takes precedence when both
// markers are present, matching "Thought: I now know the final answer"
// immediately preceding it in the documented format. Returns false when
// neither marker is found, signaling a parse failure that should retry.
func parseReAct(text string) (reactStep, bool) {
	if m := finalAnswerRE.FindStringSubmatch(text); m != nil {
		return reactStep{Final: strings.TrimSpace(m[1]), IsFinal: true}, true
	}
	actionMatch := actionRE.FindStringSubmatch(text)
	inputMatch := actionInputRE.FindStringSubmatch(text)
	if actionMatch == nil || inputMatch == nil {
		return reactStep{}, false
	}
	name := strings.TrimSpace(actionMatch[1])
	rawInput := strings.TrimSpace(inputMatch[1])
	input, ok := parseActionInput(rawInput)
	if !ok {
		return reactStep{}, false
	}
	return reactStep{ToolName: name, ToolInput: input}, true
}

// parseActionInput decodes the Action Input payload as JSON. A bare string
// (not a JSON object) is wrapped under an "input" key so single-argument
// tools still validate against an object schema.
func parseActionInput(raw string) (map[string]any, bool) {
	if raw == "" {
		return map[string]any{}, true
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		return obj, true
	}
	var any any
	if err := json.Unmarshal([]byte(raw), &any); err == nil {
		return map[string]any{"input": any}, true
	}
	return map[string]any{"input": raw}, true
}

// formatObservation renders a tool result back into the ReAct transcript
// convention the loop appends to the running completion.
func formatObservation(result string) string {
	return "Observation: " + result
}

// formatRetryHint renders a correction prompt appended to the transcript
// after a parse or tool failure, nudging the model back onto the required
// response format.
func formatRetryHint(reason RetryReason, detail string) string {
	var b strings.Builder
	b.WriteString("I encountered an issue and must retry: ")
	b.WriteString(string(reason))
	if detail != "" {
		b.WriteString(": ")
		b.WriteString(detail)
	}
	b.WriteString("\nPlease correct your response and continue using the required format.")
	return b.String()
}
