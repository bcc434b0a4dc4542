package events

// Concrete event shapes. Each embeds Header (satisfying Event) and adds the
// domain payload fields relevant to that lifecycle transition. Constructors
// set the Type discriminator so callers never have to spell the string
// literal twice.

type (
	// FlowStartedEvent opens a flow run.
	FlowStartedEvent struct {
		Header
		FlowName string
	}
	// FlowFinishedEvent closes a flow run successfully.
	FlowFinishedEvent struct {
		Header
		FlowName string
	}
	// FlowFailedEvent closes a flow run with an error.
	FlowFailedEvent struct {
		Header
		FlowName string
		Error    string
	}

	// MethodExecutionStartedEvent opens a flow method invocation.
	MethodExecutionStartedEvent struct {
		Header
		MethodName string
	}
	// MethodExecutionCompletedEvent closes a flow method invocation.
	MethodExecutionCompletedEvent struct {
		Header
		MethodName string
	}
	// MethodExecutionFailedEvent closes a flow method invocation with an error.
	MethodExecutionFailedEvent struct {
		Header
		MethodName string
		Error      string
	}
)

func NewFlowStartedEvent(flowName string) *FlowStartedEvent {
	return &FlowStartedEvent{Header: NewHeader("flow_started"), FlowName: flowName}
}
func NewFlowFinishedEvent(flowName string) *FlowFinishedEvent {
	return &FlowFinishedEvent{Header: NewHeader("flow_finished"), FlowName: flowName}
}
func NewFlowFailedEvent(flowName, errMsg string) *FlowFailedEvent {
	return &FlowFailedEvent{Header: NewHeader("flow_failed"), FlowName: flowName, Error: errMsg}
}
func NewMethodExecutionStartedEvent(method string) *MethodExecutionStartedEvent {
	return &MethodExecutionStartedEvent{Header: NewHeader("method_execution_started"), MethodName: method}
}
func NewMethodExecutionCompletedEvent(method string) *MethodExecutionCompletedEvent {
	return &MethodExecutionCompletedEvent{Header: NewHeader("method_execution_completed"), MethodName: method}
}
func NewMethodExecutionFailedEvent(method, errMsg string) *MethodExecutionFailedEvent {
	return &MethodExecutionFailedEvent{Header: NewHeader("method_execution_failed"), MethodName: method, Error: errMsg}
}

// --- Crew lifecycle ---

type (
	CrewKickoffStartedEvent struct {
		Header
		CrewName string
		Inputs   map[string]any
	}
	CrewKickoffCompletedEvent struct {
		Header
		CrewName string
		Output   string
	}
	CrewKickoffFailedEvent struct {
		Header
		CrewName string
		Error    string
	}
	CrewTrainStartedEvent struct {
		Header
		CrewName string
	}
	CrewTrainCompletedEvent struct {
		Header
		CrewName string
	}
	CrewTrainFailedEvent struct {
		Header
		CrewName, Error string
	}
	CrewTestStartedEvent struct {
		Header
		CrewName string
	}
	CrewTestCompletedEvent struct {
		Header
		CrewName string
	}
	CrewTestFailedEvent struct {
		Header
		CrewName, Error string
	}
)

func NewCrewKickoffStartedEvent(crewName string, inputs map[string]any) *CrewKickoffStartedEvent {
	return &CrewKickoffStartedEvent{Header: NewHeader("crew_kickoff_started"), CrewName: crewName, Inputs: inputs}
}
func NewCrewKickoffCompletedEvent(crewName, output string) *CrewKickoffCompletedEvent {
	return &CrewKickoffCompletedEvent{Header: NewHeader("crew_kickoff_completed"), CrewName: crewName, Output: output}
}
func NewCrewKickoffFailedEvent(crewName, errMsg string) *CrewKickoffFailedEvent {
	return &CrewKickoffFailedEvent{Header: NewHeader("crew_kickoff_failed"), CrewName: crewName, Error: errMsg}
}

// --- Agent lifecycle ---

type (
	AgentExecutionStartedEvent struct {
		Header
		AgentRole string
		Task      string
	}
	AgentExecutionCompletedEvent struct {
		Header
		AgentRole string
		Output    string
	}
	AgentExecutionErrorEvent struct {
		Header
		AgentRole string
		Error     string
	}
	AgentEvaluationStartedEvent struct {
		Header
		AgentRole string
	}
	AgentEvaluationCompletedEvent struct {
		Header
		AgentRole string
	}
	AgentEvaluationFailedEvent struct {
		Header
		AgentRole, Error string
	}
	LiteAgentExecutionStartedEvent struct {
		Header
		AgentRole string
	}
	LiteAgentExecutionCompletedEvent struct {
		Header
		AgentRole string
	}
	LiteAgentExecutionErrorEvent struct {
		Header
		AgentRole, Error string
	}
	AgentReasoningStartedEvent struct {
		Header
		AgentRole string
	}
	AgentReasoningCompletedEvent struct {
		Header
		AgentRole string
		Plan      string
	}
	AgentReasoningFailedEvent struct {
		Header
		AgentRole, Error string
	}
)

func NewAgentExecutionStartedEvent(role, task string) *AgentExecutionStartedEvent {
	return &AgentExecutionStartedEvent{Header: NewHeader("agent_execution_started"), AgentRole: role, Task: task}
}
func NewAgentExecutionCompletedEvent(role, output string) *AgentExecutionCompletedEvent {
	return &AgentExecutionCompletedEvent{Header: NewHeader("agent_execution_completed"), AgentRole: role, Output: output}
}
func NewAgentExecutionErrorEvent(role, errMsg string) *AgentExecutionErrorEvent {
	return &AgentExecutionErrorEvent{Header: NewHeader("agent_execution_error"), AgentRole: role, Error: errMsg}
}

// --- Task lifecycle ---

type (
	TaskStartedEvent struct {
		Header
		TaskDescription string
	}
	TaskCompletedEvent struct {
		Header
		Output string
	}
	TaskFailedEvent struct {
		Header
		Error string
	}
)

func NewTaskStartedEvent(description string) *TaskStartedEvent {
	return &TaskStartedEvent{Header: NewHeader("task_started"), TaskDescription: description}
}
func NewTaskCompletedEvent(output string) *TaskCompletedEvent {
	return &TaskCompletedEvent{Header: NewHeader("task_completed"), Output: output}
}
func NewTaskFailedEvent(errMsg string) *TaskFailedEvent {
	return &TaskFailedEvent{Header: NewHeader("task_failed"), Error: errMsg}
}

// --- LLM call / guardrail ---

type (
	LLMCallStartedEvent struct {
		Header
		Model string
	}
	LLMCallCompletedEvent struct {
		Header
		Model string
	}
	LLMCallFailedEvent struct {
		Header
		Model, Error string
	}
	// LLMGuardrailStartedEvent opens a guardrail validation round.
	LLMGuardrailStartedEvent struct{ Header }
	// LLMGuardrailCompletedEvent closes a guardrail validation round,
	// recording whether the output was accepted.
	LLMGuardrailCompletedEvent struct {
		Header
		Success bool
		Reason  string
	}
)

func NewLLMCallStartedEvent(model string) *LLMCallStartedEvent {
	return &LLMCallStartedEvent{Header: NewHeader("llm_call_started"), Model: model}
}
func NewLLMCallCompletedEvent(model string) *LLMCallCompletedEvent {
	return &LLMCallCompletedEvent{Header: NewHeader("llm_call_completed"), Model: model}
}
func NewLLMCallFailedEvent(model, errMsg string) *LLMCallFailedEvent {
	return &LLMCallFailedEvent{Header: NewHeader("llm_call_failed"), Model: model, Error: errMsg}
}
func NewLLMGuardrailStartedEvent() *LLMGuardrailStartedEvent {
	return &LLMGuardrailStartedEvent{Header: NewHeader("llm_guardrail_started")}
}
func NewLLMGuardrailCompletedEvent(success bool, reason string) *LLMGuardrailCompletedEvent {
	return &LLMGuardrailCompletedEvent{Header: NewHeader("llm_guardrail_completed"), Success: success, Reason: reason}
}

// --- Tool usage ---

type (
	ToolUsageStartedEvent struct {
		Header
		ToolName string
	}
	ToolUsageFinishedEvent struct {
		Header
		ToolName string
	}
	ToolUsageErrorEvent struct {
		Header
		ToolName, Error string
	}
)

func NewToolUsageStartedEvent(tool string) *ToolUsageStartedEvent {
	return &ToolUsageStartedEvent{Header: NewHeader("tool_usage_started"), ToolName: tool}
}
func NewToolUsageFinishedEvent(tool string) *ToolUsageFinishedEvent {
	return &ToolUsageFinishedEvent{Header: NewHeader("tool_usage_finished"), ToolName: tool}
}
func NewToolUsageErrorEvent(tool, errMsg string) *ToolUsageErrorEvent {
	return &ToolUsageErrorEvent{Header: NewHeader("tool_usage_error"), ToolName: tool, Error: errMsg}
}

// --- MCP, memory, knowledge, A2A, reasoning: mirrored opener/closer shapes.
// Payloads are intentionally thin; these domains are external collaborators
// per the core's scope and the event catalogue only needs to carry enough
// to drive the scope tracker faithfully.

type (
	MCPConnectionStartedEvent struct {
		Header
		Server string
	}
	MCPConnectionCompletedEvent struct {
		Header
		Server string
	}
	MCPConnectionFailedEvent struct {
		Header
		Server, Error string
	}
	MCPToolExecutionStartedEvent struct {
		Header
		Tool string
	}
	MCPToolExecutionCompletedEvent struct {
		Header
		Tool string
	}
	MCPToolExecutionFailedEvent struct {
		Header
		Tool, Error string
	}

	MemoryRetrievalStartedEvent struct {
		Header
		Query string
	}
	MemoryRetrievalCompletedEvent struct {
		Header
		Query string
	}
	MemoryRetrievalFailedEvent struct {
		Header
		Query, Error string
	}
	MemorySaveStartedEvent   struct{ Header }
	MemorySaveCompletedEvent struct{ Header }
	MemorySaveFailedEvent    struct {
		Header
		Error string
	}
	MemoryQueryStartedEvent struct {
		Header
		Query string
	}
	MemoryQueryCompletedEvent struct {
		Header
		Query string
	}
	MemoryQueryFailedEvent struct {
		Header
		Query, Error string
	}

	KnowledgeQueryStartedEvent struct {
		Header
		Query string
	}
	KnowledgeQueryCompletedEvent struct {
		Header
		Query string
	}
	KnowledgeQueryFailedEvent struct {
		Header
		Query, Error string
	}
	KnowledgeSearchQueryStartedEvent struct {
		Header
		Query string
	}
	KnowledgeSearchQueryCompletedEvent struct {
		Header
		Query string
	}
	KnowledgeSearchQueryFailedEvent struct {
		Header
		Query, Error string
	}

	A2ADelegationStartedEvent struct {
		Header
		Coworker string
	}
	A2ADelegationCompletedEvent struct {
		Header
		Coworker string
	}
	A2ADelegationFailedEvent struct {
		Header
		Coworker, Error string
	}
	A2AConversationStartedEvent struct {
		Header
		Coworker string
	}
	A2AConversationCompletedEvent struct {
		Header
		Coworker string
	}
	A2AConversationFailedEvent struct {
		Header
		Coworker, Error string
	}
	A2AServerTaskStartedEvent   struct{ Header }
	A2AServerTaskCompletedEvent struct{ Header }
	A2AServerTaskCanceledEvent  struct {
		Header
		Reason string
	}
	A2AServerTaskFailedEvent struct {
		Header
		Error string
	}
	A2AParallelDelegationStartedEvent struct {
		Header
		Coworkers []string
	}
	A2AParallelDelegationCompletedEvent struct{ Header }
	A2AParallelDelegationFailedEvent    struct {
		Header
		Error string
	}
)

func NewMCPConnectionStartedEvent(server string) *MCPConnectionStartedEvent {
	return &MCPConnectionStartedEvent{Header: NewHeader("mcp_connection_started"), Server: server}
}
func NewMCPConnectionCompletedEvent(server string) *MCPConnectionCompletedEvent {
	return &MCPConnectionCompletedEvent{Header: NewHeader("mcp_connection_completed"), Server: server}
}
func NewMCPConnectionFailedEvent(server, errMsg string) *MCPConnectionFailedEvent {
	return &MCPConnectionFailedEvent{Header: NewHeader("mcp_connection_failed"), Server: server, Error: errMsg}
}
