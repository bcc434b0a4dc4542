package task

import "github.com/crewforge/orchestrator/runtime/llm"

func toLLMMessage(m TaskMessage) llm.Message {
	return llm.Message{
		Role:  llm.Role(m.Role),
		Parts: []llm.Part{llm.TextPart{Text: m.Content}},
	}
}
