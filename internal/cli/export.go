package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bookstore/internal/app"
	"github.com/roach88/bookstore/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Database string
}

// ExportResult holds the row counts written by the export command.
type ExportResult struct {
	Database string `json:"database"`
	Users    int64  `json:"users"`
	Books    int64  `json:"books"`
	Ledger   int64  `json:"ledger"`
	Audit    int64  `json:"audit"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the record files to SQLite",
		Long: `Copy the live content of all four record files into a SQLite database.

The database gets tables users, books, ledger and audit_log. Existing rows
are replaced in a single transaction, so the database always reflects one
snapshot of the data directory.

Examples:
  bookstore export --db ./bookstore.db
  bookstore --data-dir ./shop export --db /tmp/shop.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(opts.RootOptions, cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.Snapshot()
	if err != nil {
		return exit(ExitFailure, "failed to read record files", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return exit(ExitUsage, "failed to open database", err)
	}
	defer st.Close()

	p := newPrinter(opts.RootOptions, cmd)
	p.notef("exporting %d users, %d books, %d ledger entries, %d audit entries",
		len(snap.Users), len(snap.Books), len(snap.Ledger), len(snap.Audit))

	if err := st.Export(ctx, snap); err != nil {
		return exit(ExitFailure, "export failed", err)
	}
	counts, err := st.Counts(ctx)
	if err != nil {
		return exit(ExitFailure, "failed to count exported rows", err)
	}

	result := ExportResult{
		Database: opts.Database,
		Users:    counts.Users,
		Books:    counts.Books,
		Ledger:   counts.Ledger,
		Audit:    counts.Audit,
	}
	return p.ok(result, fmt.Sprintf("Exported %d users, %d books, %d ledger entries, %d audit entries to %s",
		result.Users, result.Books, result.Ledger, result.Audit, result.Database))
}
