package task

// ShouldExecute evaluates Condition against the outputs of every task that
// ran before this one. A task with no Condition always executes.
func (t *Task) ShouldExecute(priorOutputs []*TaskOutput) bool {
	if t.Condition == nil {
		return true
	}
	return t.Condition(priorOutputs)
}

// SkippedOutput builds the placeholder TaskOutput recorded for a
// conditional task whose Condition evaluated false, so CrewOutput.tasks_
// output still carries one entry per task even when skipped.
func (t *Task) SkippedOutput() *TaskOutput {
	name := t.Name
	if name == "" {
		name = t.Description
	}
	return &TaskOutput{
		Description:    t.Description,
		Name:           name,
		ExpectedOutput: t.ExpectedOutput,
		Agent:          t.AgentRole,
		OutputFormat:   OutputFormatRaw,
	}
}
