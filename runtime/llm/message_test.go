package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crewforge/orchestrator/runtime/llm"
)

func TestMessageTextContentConcatenatesTextParts(t *testing.T) {
	m := llm.Message{
		Role: llm.RoleAssistant,
		Parts: []llm.Part{
			llm.TextPart{Text: "hello "},
			llm.ToolUsePart{ID: "1", Name: "lookup"},
			llm.TextPart{Text: "world"},
		},
	}
	assert.Equal(t, "hello world", m.TextContent())
}

func TestMessageTextContentIgnoresNonTextParts(t *testing.T) {
	m := llm.Message{
		Role:  llm.RoleTool,
		Parts: []llm.Part{llm.ToolResultPart{ToolUseID: "1", Content: "result"}},
	}
	assert.Equal(t, "", m.TextContent())
}
