package llm

import "strings"

// contextWindows maps model-family prefixes to their known context window
// in tokens. Longest-prefix match wins; lookups fall back to a conservative
// default when no entry matches.
var contextWindows = map[string]int{
	"gpt-4o":           128_000,
	"gpt-4-turbo":      128_000,
	"gpt-4":            8_192,
	"gpt-3.5-turbo":    16_385,
	"o1":               200_000,
	"o3":               200_000,
	"o4":               200_000,
	"claude-3-5":       200_000,
	"claude-3-7":       200_000,
	"claude-sonnet-4":  200_000,
	"claude-opus-4":    200_000,
	"claude-3":         200_000,
	"gemini-1.5-pro":   2_000_000,
	"gemini-1.5-flash": 1_000_000,
	"gemini-2":         1_000_000,
	"gemma-":           8_192,
	"grok-":            131_072,
}

// defaultContextWindow is used when no prefix in contextWindows matches.
const defaultContextWindow = 8_192

// UsableContextBudget is the fraction of the raw context window callers
// should treat as usable headroom, leaving margin for response tokens.
const UsableContextBudget = 0.85

// ContextWindowSize returns the known context window for model, falling back
// to defaultContextWindow when the family is unrecognized.
func ContextWindowSize(model string) int {
	best := 0
	bestLen := -1
	for prefix, size := range contextWindows {
		if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
			best = size
			bestLen = len(prefix)
		}
	}
	if bestLen == -1 {
		return defaultContextWindow
	}
	return best
}
