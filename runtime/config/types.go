package config

// AgentSpec is one entry of agents.yaml, keyed by role in the surrounding
// map.
type AgentSpec struct {
	Goal                  string   `yaml:"goal"`
	Backstory             string   `yaml:"backstory"`
	LLM                   string   `yaml:"llm"`
	FunctionCallingLLM    string   `yaml:"function_calling_llm"`
	Tools                 []string `yaml:"tools"`
	MaxIter               int      `yaml:"max_iter"`
	MaxRPM                *int     `yaml:"max_rpm"`
	MaxExecutionTime      *int64   `yaml:"max_execution_time"`
	AllowDelegation       bool     `yaml:"allow_delegation"`
	Cache                 *bool    `yaml:"cache"`
	Verbose               bool     `yaml:"verbose"`
	Reasoning             bool     `yaml:"reasoning"`
	MaxReasoningAttempts  *int     `yaml:"max_reasoning_attempts"`
	InjectDate            bool     `yaml:"inject_date"`
	DateFormat            string   `yaml:"date_format"`
	Multimodal            bool     `yaml:"multimodal"`
	RespectContextWindow  *bool    `yaml:"respect_context_window"`
	UseSystemPrompt       *bool    `yaml:"use_system_prompt"`
	MaxRetryLimit         *int     `yaml:"max_retry_limit"`
	GuardrailInstructions string   `yaml:"guardrail"`
	GuardrailMaxRetries   *int     `yaml:"guardrail_max_retries"`
	AllowCodeExecution    bool     `yaml:"allow_code_execution"`
}

// TaskSpec is one entry of tasks.yaml, keyed by an arbitrary task name in
// the surrounding map. agent and context reference other entries by key:
// agent names an AgentSpec role in agents.yaml, context names sibling
// TaskSpec keys whose output this task depends on.
type TaskSpec struct {
	Description         string            `yaml:"description"`
	ExpectedOutput      string            `yaml:"expected_output"`
	Agent               string            `yaml:"agent"`
	Context             []string          `yaml:"context"`
	AsyncExecution      bool              `yaml:"async_execution"`
	OutputJSON          string            `yaml:"output_json"`
	OutputPydantic      string            `yaml:"output_pydantic"`
	ResponseModel       string            `yaml:"response_model"`
	OutputFile          string            `yaml:"output_file"`
	CreateDirectory     *bool             `yaml:"create_directory"`
	Tools               []string          `yaml:"tools"`
	InputFiles          map[string]string `yaml:"input_files"`
	HumanInput          bool              `yaml:"human_input"`
	Markdown            bool              `yaml:"markdown"`
	GuardrailMaxRetries *int              `yaml:"guardrail_max_retries"`
}

// CrewSpec is the single top-level document in crew.yaml: the process mode
// and the orchestration-level settings that apply across every agent and
// task loaded alongside it.
type CrewSpec struct {
	Name         string `yaml:"name"`
	Process      string `yaml:"process"`
	ManagerAgent string `yaml:"manager_agent"`
	ManagerLLM   string `yaml:"manager_llm"`
	MaxRPM       *int   `yaml:"max_rpm"`
	Cache        *bool  `yaml:"cache"`
	Verbose      bool   `yaml:"verbose"`
	Planning     bool   `yaml:"planning"`
	Memory       bool   `yaml:"memory"`
	Tracing      bool   `yaml:"tracing"`
}
