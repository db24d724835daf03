package harness

import (
	"bytes"
	"fmt"
)

// StepResult is what one protocol line printed.
type StepResult struct {
	Input  string
	Output string
}

// Result contains the outcome of running a scenario.
type Result struct {
	Pass   bool
	Errors []string
	Steps  []StepResult

	// Stopped is true when a quit or exit ended the session early.
	Stopped bool
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Pass = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Transcript echoes every input as "> input" followed by its output.
func (r *Result) Transcript() []byte {
	var buf bytes.Buffer
	for _, s := range r.Steps {
		buf.WriteString("> ")
		buf.WriteString(s.Input)
		buf.WriteByte('\n')
		buf.WriteString(s.Output)
	}
	return buf.Bytes()
}
