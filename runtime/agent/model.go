// Package agent implements the ReAct / native-tool-call execution loop that
// drives a single LLM-backed worker through thought, action, and observation
// cycles until it produces a final answer.
package agent

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"github.com/crewforge/orchestrator/runtime/fingerprint"
)

type (
	// Agent is a configured LLM-driven worker: a role/goal/backstory
	// persona, a provider identifier, tool access, and the limits and
	// feature toggles that shape its execution loop.
	Agent struct {
		ID          uuid.UUID
		Role        string
		Goal        string
		Backstory   string
		Fingerprint fingerprint.Fingerprint

		Config          map[string]any
		Cache           bool
		Verbose         bool
		MaxRPM          *int
		AllowDelegation bool
		ToolNames       []string
		MaxIter         int
		LLM             string
		MaxTokens       *int
		ToolsResults    []map[string]any

		MaxExecutionTime *int64

		UseSystemPrompt      bool
		FunctionCallingLLM   string
		SystemTemplate       *string
		PromptTemplate       *string
		ResponseTemplate     *string
		AllowCodeExecution   bool
		RespectContextWindow bool
		MaxRetryLimit        int
		Multimodal           bool

		InjectDate bool
		DateFormat string

		Reasoning            bool
		MaxReasoningAttempts *int

		GuardrailInstructions string
		GuardrailMaxRetries   int

		// StepCallback, when set, is invoked after each loop iteration with
		// a human-readable description of the step taken. Never serialized.
		StepCallback func(step string)

		originalRole      *string
		originalGoal      *string
		originalBackstory *string
		timesExecuted     int
	}
)

// New constructs an Agent with sensible defaults: caching on, 25 max
// iterations, 2 max retries, 3 guardrail retries, ISO date format, system
// prompts on.
func New(role, goal, backstory string) *Agent {
	return &Agent{
		ID:                   uuid.New(),
		Role:                 role,
		Goal:                 goal,
		Backstory:            backstory,
		Fingerprint:          fingerprint.Generate("", nil),
		Cache:                true,
		MaxIter:              25,
		UseSystemPrompt:      true,
		RespectContextWindow: true,
		MaxRetryLimit:        2,
		GuardrailMaxRetries:  3,
		DateFormat:           "2006-01-02",
	}
}

// Clone returns a copy of the agent with a fresh ID and fingerprint, and its
// per-execution counters and results reset. Cloning yields a distinct
// identity for delegation and crew-replication scenarios.
func (a *Agent) Clone() *Agent {
	clone := *a
	clone.ID = uuid.New()
	clone.Fingerprint = fingerprint.Generate("", nil)
	clone.ToolsResults = nil
	clone.StepCallback = nil
	clone.timesExecuted = 0
	return &clone
}

// Key computes md5(role|goal|backstory) over the pre-interpolation originals
// when present, falling back to the current values otherwise.
func (a *Agent) Key() string {
	role := a.Role
	if a.originalRole != nil {
		role = *a.originalRole
	}
	goal := a.Goal
	if a.originalGoal != nil {
		goal = *a.originalGoal
	}
	backstory := a.Backstory
	if a.originalBackstory != nil {
		backstory = *a.originalBackstory
	}
	sum := md5.Sum([]byte(role + "|" + goal + "|" + backstory))
	return hex.EncodeToString(sum[:])
}

// InterpolateInputs substitutes "{key}" placeholders in Role, Goal, and
// Backstory with the provided values, remembering the pre-interpolation
// originals on first call so Key() and repeated interpolation stay stable.
func (a *Agent) InterpolateInputs(inputs map[string]string) {
	if a.originalRole == nil {
		role := a.Role
		a.originalRole = &role
	}
	if a.originalGoal == nil {
		goal := a.Goal
		a.originalGoal = &goal
	}
	if a.originalBackstory == nil {
		backstory := a.Backstory
		a.originalBackstory = &backstory
	}
	if len(inputs) == 0 {
		return
	}
	a.Role = interpolate(*a.originalRole, inputs)
	a.Goal = interpolate(*a.originalGoal, inputs)
	a.Backstory = interpolate(*a.originalBackstory, inputs)
}

func interpolate(template string, inputs map[string]string) string {
	out := template
	for k, v := range inputs {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}
