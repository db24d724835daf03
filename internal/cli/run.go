package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/bookstore/internal/app"
	"github.com/roach88/bookstore/internal/audit"
	"github.com/roach88/bookstore/internal/session"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	// Clock and Tokens override the audit clock and session token
	// generator (for testing). Nil means the wall clock and UUIDv7.
	Clock  audit.Clock
	Tokens session.TokenGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the command protocol on stdin",
		Long: `Read protocol lines from stdin and write results to stdout.

The data directory is created if needed and locked for the duration of the
session; a second process on the same directory fails immediately.
Recoverable command failures print "Invalid" and the session continues.
The session ends at end of input, quit or exit.

Exit codes:
  0 - Input consumed
  1 - A fatal storage error aborted the session
  2 - Command error (data directory locked or unreadable, bad config)

Examples:
  bookstore run < commands.txt
  bookstore --data-dir /var/lib/bookstore run -v`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProtocol(opts, cmd)
		},
	}

	return cmd
}

func runProtocol(opts *RunOptions, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	a, err := openApp(opts.RootOptions, cmd, app.Options{
		Out:    cmd.OutOrStdout(),
		Clock:  opts.Clock,
		Tokens: opts.Tokens,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Error("error closing data directory", "error", closeErr)
		}
	}()

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("session starting", "data_dir", opts.Config.DataDir)
	if err := a.Run(ctx, cmd.InOrStdin()); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.Info("session interrupted")
			return nil
		}
		return exit(ExitFailure, "session aborted", err)
	}
	logger.Debug("session finished")
	return nil
}

// openApp opens the configured data directory. Lock contention and open
// failures are command errors.
func openApp(opts *RootOptions, cmd *cobra.Command, appOpts app.Options) (*app.App, error) {
	appOpts.Config = opts.Config
	if appOpts.Logger == nil {
		appOpts.Logger = newLogger(opts, cmd.ErrOrStderr())
	}
	a, err := app.Open(appOpts)
	if err != nil {
		if errors.Is(err, app.ErrBusy) {
			return nil, exit(ExitUsage, "data directory is locked", err)
		}
		return nil, exit(ExitUsage, "failed to open data directory", err)
	}
	return a, nil
}
