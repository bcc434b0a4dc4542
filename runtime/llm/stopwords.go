package llm

import "strings"

// ApplyStopWords truncates content at the earliest occurrence of any stop
// string, excluding the stop string itself, then right-trims whitespace.
// Applying it twice is a no-op: once the earliest stop string is removed,
// nothing in the remaining prefix can match again.
func ApplyStopWords(content string, stops []string) string {
	if len(stops) == 0 {
		return content
	}
	cut := -1
	for _, stop := range stops {
		if stop == "" {
			continue
		}
		if idx := strings.Index(content, stop); idx >= 0 && (cut == -1 || idx < cut) {
			cut = idx
		}
	}
	if cut == -1 {
		return content
	}
	return strings.TrimRight(content[:cut], " \t\n\r")
}

// DefaultReActStopWords is the default truncation set used by ReAct-style
// planners so a model cannot fabricate its own "Observation:" block.
var DefaultReActStopWords = []string{"Observation:"}
