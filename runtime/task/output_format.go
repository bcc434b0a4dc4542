// Package task implements the task data model: description, expected
// output, assignment, and the lifecycle that turns those into a TaskOutput
// through an agent executor callback.
package task

// OutputFormat names the shape a TaskOutput's structured fields take.
type OutputFormat string

const (
	OutputFormatRaw      OutputFormat = "raw"
	OutputFormatJSON     OutputFormat = "json"
	OutputFormatPydantic OutputFormat = "pydantic"
)
