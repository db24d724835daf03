package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bookstore/internal/app"
)

// CheckProblem is one failed file check.
type CheckProblem struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// CheckResult holds the outcome of the check command.
type CheckResult struct {
	DataDir  string         `json:"data_dir"`
	Problems []CheckProblem `json:"problems"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the record files",
		Long: `Verify the record files of the data directory.

Each file's stored record count is compared with its length, and the
ledger's income and expense totals are recomputed from its entries.

Exit codes:
  0 - All files consistent
  1 - One or more files are inconsistent
  2 - Command error (data directory locked or unreadable)

Examples:
  bookstore check
  bookstore --data-dir ./shop check --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, cmd)
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(opts, cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	result := CheckResult{DataDir: opts.Config.DataDir, Problems: []CheckProblem{}}
	for _, c := range a.Check() {
		result.Problems = append(result.Problems, CheckProblem{File: c.File, Error: c.Err.Error()})
	}

	p := newPrinter(opts, cmd)
	failed := len(result.Problems) > 0
	if p.json {
		if failed {
			if err := p.fail("E_INCONSISTENT", fmt.Sprintf("%d file(s) inconsistent", len(result.Problems)), result); err != nil {
				return err
			}
		} else if err := p.ok(result, ""); err != nil {
			return err
		}
	} else {
		for _, pr := range result.Problems {
			fmt.Fprintf(p.out, "✗ %s: %s\n", pr.File, pr.Error)
		}
		if !failed {
			fmt.Fprintf(p.out, "✓ %s is consistent\n", result.DataDir)
		}
	}

	if failed {
		return exit(ExitFailure, fmt.Sprintf("%d file(s) inconsistent", len(result.Problems)), nil)
	}
	return nil
}
