package harness

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/roach88/bookstore/internal/app"
	"github.com/roach88/bookstore/internal/config"
	"github.com/roach88/bookstore/internal/testutil"
)

// Run executes a scenario against a fresh data directory and evaluates its
// expectations. A non-nil error means the scenario could not run at all;
// failed expectations are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "bookstore-harness-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	defer os.RemoveAll(dir)

	cfg := config.Default()
	cfg.DataDir = dir

	// Fixed clock and token sequence keep transcripts reproducible
	var out bytes.Buffer
	a, err := app.Open(app.Options{
		Config: cfg,
		Out:    &out,
		Clock:  testutil.NewDeterministicClock(testutil.Epoch),
		Tokens: testutil.NewSequenceTokens(""),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open bookstore: %w", err)
	}
	defer a.Close()

	result := NewResult()
	for i, step := range scenario.Steps {
		out.Reset()
		stop, err := a.Exec(step.Input)
		if err != nil {
			return nil, fmt.Errorf("step %d %q failed: %w", i, step.Input, err)
		}
		result.Steps = append(result.Steps, StepResult{Input: step.Input, Output: out.String()})
		checkStep(result, i, step, out.String())
		if stop {
			result.Stopped = true
			break
		}
	}

	evaluateAssertions(a, scenario.Assertions, result)
	return result, nil
}

// checkStep compares one step's output with its expectation.
func checkStep(result *Result, index int, step Step, output string) {
	switch {
	case step.Silent:
		if output != "" {
			result.AddError("steps[%d] %q: expected no output, got %q", index, step.Input, output)
		}
	case len(step.Expect) > 0:
		got := outputLines(output)
		if !slices.Equal(got, step.Expect) {
			result.AddError("steps[%d] %q: expected %q, got %q", index, step.Input, step.Expect, got)
		}
	}
}

// outputLines splits output into lines without their terminators.
func outputLines(output string) []string {
	if output == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(output, "\n"), "\n")
}
