package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted session with expectations.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps are protocol lines run in order against a fresh data directory.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one protocol line.
type Step struct {
	Input string `yaml:"input"`

	// Expect lists the exact output lines. Empty means unchecked.
	Expect []string `yaml:"expect,omitempty"`

	// Silent asserts the line prints nothing.
	Silent bool `yaml:"silent,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// ISBN and Quantity are used by stock.
	ISBN     string `yaml:"isbn,omitempty"`
	Quantity int64  `yaml:"quantity,omitempty"`

	// Income and Expense are used by finance, written as "12.50".
	Income  string `yaml:"income,omitempty"`
	Expense string `yaml:"expense,omitempty"`

	// Count is used by session_depth.
	Count int `yaml:"count,omitempty"`

	// Line is used by output_contains.
	Line string `yaml:"line,omitempty"`
}

// Assertion type constants.
const (
	AssertStock          = "stock"
	AssertFinance        = "finance"
	AssertSessionDepth   = "session_depth"
	AssertOutputContains = "output_contains"
	AssertConsistent     = "consistent"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Silent && len(step.Expect) > 0 {
			return fmt.Errorf("steps[%d]: silent and expect are exclusive", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertStock:
		if a.ISBN == "" {
			return fmt.Errorf("assertions[%d]: isbn is required for stock", index)
		}
	case AssertFinance:
		if a.Income == "" || a.Expense == "" {
			return fmt.Errorf("assertions[%d]: income and expense are required for finance", index)
		}
	case AssertSessionDepth:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for session_depth", index)
		}
	case AssertOutputContains:
		if a.Line == "" {
			return fmt.Errorf("assertions[%d]: line is required for output_contains", index)
		}
	case AssertConsistent:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
