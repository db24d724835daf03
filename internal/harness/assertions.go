package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/bookstore/internal/app"
	"github.com/roach88/bookstore/internal/ledger"
	"github.com/roach88/bookstore/internal/money"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Expected any
	Actual   any
	Message  string
}

func (e *AssertionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s: expected %v, got %v", e.Type, e.Expected, e.Actual)
}

func evaluateAssertions(a *app.App, assertions []Assertion, result *Result) {
	for i, assertion := range assertions {
		if err := evaluateAssertion(a, assertion, result); err != nil {
			result.AddError("assertions[%d]: %v", i, err)
		}
	}
}

func evaluateAssertion(a *app.App, assertion Assertion, result *Result) error {
	switch assertion.Type {
	case AssertStock:
		return assertStock(a, assertion)
	case AssertFinance:
		return assertFinance(a, assertion)
	case AssertSessionDepth:
		if got := a.Sessions().Depth(); got != assertion.Count {
			return &AssertionError{Type: assertion.Type, Expected: assertion.Count, Actual: got}
		}
		return nil
	case AssertOutputContains:
		return assertOutputContains(result, assertion)
	case AssertConsistent:
		if problems := a.Check(); len(problems) > 0 {
			msgs := make([]string, 0, len(problems))
			for _, p := range problems {
				msgs = append(msgs, fmt.Sprintf("%s: %v", p.File, p.Err))
			}
			return &AssertionError{Type: assertion.Type, Message: strings.Join(msgs, "; ")}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", assertion.Type)
	}
}

func assertStock(a *app.App, assertion Assertion) error {
	snap, err := a.Snapshot()
	if err != nil {
		return err
	}
	for _, b := range snap.Books {
		if b.ISBN != assertion.ISBN {
			continue
		}
		if b.Quantity != assertion.Quantity {
			return &AssertionError{Type: assertion.Type, Expected: assertion.Quantity, Actual: b.Quantity}
		}
		return nil
	}
	return &AssertionError{Type: assertion.Type, Message: fmt.Sprintf("no book with isbn %q", assertion.ISBN)}
}

// assertFinance folds the ledger entries rather than trusting the
// maintained totals, so it also catches aggregate drift.
func assertFinance(a *app.App, assertion Assertion) error {
	income, err := money.Parse(assertion.Income)
	if err != nil {
		return fmt.Errorf("income %q: %w", assertion.Income, err)
	}
	expense, err := money.Parse(assertion.Expense)
	if err != nil {
		return fmt.Errorf("expense %q: %w", assertion.Expense, err)
	}

	snap, err := a.Snapshot()
	if err != nil {
		return err
	}
	var got ledger.Totals
	for _, e := range snap.Ledger {
		if e.Income {
			got.Income += e.Amount
		} else {
			got.Expense += e.Amount
		}
	}

	want := ledger.Totals{Income: money.FromDecimal(income), Expense: money.FromDecimal(expense)}
	if got != want {
		return &AssertionError{
			Type:     assertion.Type,
			Expected: fmt.Sprintf("+ %s - %s", want.Income, want.Expense),
			Actual:   fmt.Sprintf("+ %s - %s", got.Income, got.Expense),
		}
	}
	return nil
}

func assertOutputContains(result *Result, assertion Assertion) error {
	for _, s := range result.Steps {
		if slices.Contains(outputLines(s.Output), assertion.Line) {
			return nil
		}
	}
	return &AssertionError{Type: assertion.Type, Message: fmt.Sprintf("no step printed %q", assertion.Line)}
}
