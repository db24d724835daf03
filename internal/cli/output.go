package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1 // scenarios failed, files inconsistent, session aborted
	ExitUsage   = 2 // bad flags, unreadable config, locked data directory
)

// ExitError attaches a process exit code to a command failure.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// exit builds an ExitError reading "msg: cause", or just msg when cause is nil.
func exit(code int, msg string, cause error) error {
	err := errors.New(msg)
	if cause != nil {
		err = fmt.Errorf("%s: %w", msg, cause)
	}
	return &ExitError{Code: code, Err: err}
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var e *ExitError
	if errors.As(err, &e) {
		return e.Code
	}
	return ExitFailure
}

// envelope is what every subcommand prints under --format json.
type envelope struct {
	Status  string   `json:"status"` // "ok" | "error"
	Data    any      `json:"data,omitempty"`
	Problem *problem `json:"error,omitempty"`
}

type problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// printer writes subcommand results to stdout and verbose notes to stderr.
type printer struct {
	json    bool
	out     io.Writer
	diag    io.Writer
	verbose bool
}

func newPrinter(opts *RootOptions, cmd *cobra.Command) *printer {
	return &printer{
		json:    opts.Format == "json",
		out:     cmd.OutOrStdout(),
		diag:    cmd.ErrOrStderr(),
		verbose: opts.Verbose,
	}
}

// ok prints data in an "ok" envelope, or text on its own line.
func (p *printer) ok(data any, text string) error {
	if p.json {
		return p.emit(envelope{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(p.out, text)
	return err
}

// fail prints data in an "error" envelope tagged with code. In text mode it
// prints nothing; callers list their own findings.
func (p *printer) fail(code, msg string, data any) error {
	if !p.json {
		return nil
	}
	return p.emit(envelope{Status: "error", Data: data, Problem: &problem{Code: code, Message: msg}})
}

// notef writes a progress note to stderr when verbose.
func (p *printer) notef(format string, args ...any) {
	if p.verbose {
		fmt.Fprintf(p.diag, format+"\n", args...)
	}
}

func (p *printer) emit(v envelope) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
