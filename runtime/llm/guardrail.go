package llm

import (
	"context"
	"fmt"
	"strings"
)

// GuardrailFunc validates or rewrites a task's raw text output. A non-nil
// error means the output was rejected; the error message is fed back to the
// agent loop as re-prompt feedback. Returning a different string than the
// input rewrites the accepted output (e.g. stripping a preamble).
type GuardrailFunc func(ctx context.Context, output string) (string, error)

// Guardrail builds a GuardrailFunc that asks provider whether output
// satisfies instructions, expressed as a natural-language sentence (e.g.
// "the response must be valid JSON matching the invoice schema"). The
// provider is prompted to answer with a single line: "PASS" or
// "FAIL: <reason>".
func Guardrail(provider Provider, instructions string) GuardrailFunc {
	return func(ctx context.Context, output string) (string, error) {
		prompt := fmt.Sprintf(
			"Validate the following output against this instruction: %s\n\n"+
				"Output:\n%s\n\n"+
				"Respond with exactly \"PASS\" if the output satisfies the instruction, "+
				"or \"FAIL: <reason>\" if it does not.",
			instructions, output,
		)
		resp, err := provider.Call(ctx, &Request{
			Messages:  []*Message{{Role: RoleUser, Parts: []Part{TextPart{Text: prompt}}}},
			MaxTokens: 256,
		})
		if err != nil {
			return "", fmt.Errorf("llm guardrail: %w", err)
		}
		verdict := strings.TrimSpace(joinContent(resp.Content))
		if strings.HasPrefix(verdict, "PASS") {
			return output, nil
		}
		reason := strings.TrimPrefix(verdict, "FAIL:")
		return "", fmt.Errorf("guardrail rejected output: %s", strings.TrimSpace(reason))
	}
}

func joinContent(msgs []Message) string {
	var out strings.Builder
	for _, m := range msgs {
		out.WriteString(m.TextContent())
	}
	return out.String()
}
