package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/bookstore/internal/app"
	"github.com/roach88/bookstore/internal/report"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Actor string // optional - one actor only
}

// ReplayEntry is one audit entry in JSON output.
type ReplayEntry struct {
	Time    string `json:"time"`
	Actor   string `json:"actor"`
	Channel string `json:"channel"`
	Action  string `json:"action"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Print the audit trail",
		Long: `Print the audit trail in recording order with timestamps.

Each line is "time actor channel action". Passwords are never recorded.

Examples:
  bookstore replay
  bookstore replay --actor root
  bookstore replay --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Actor, "actor", "", "show entries of one actor only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	a, err := openApp(opts.RootOptions, cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.Trail(opts.Actor)
	if err != nil {
		return exit(ExitFailure, "failed to read audit log", err)
	}

	if opts.Format != "json" {
		return report.Trail(cmd.OutOrStdout(), entries)
	}

	out := make([]ReplayEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ReplayEntry{
			Time:    e.Time.UTC().Format(time.RFC3339),
			Actor:   e.Actor,
			Channel: string(e.Channel),
			Action:  e.Action,
		})
	}
	return newPrinter(opts.RootOptions, cmd).ok(out, "")
}
