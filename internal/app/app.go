// Package app wires the record managers to the command protocol.
//
// An App owns the four record files of one data directory, holds a
// process lock on that directory and keeps the login stack. Exec runs one
// protocol line: it checks arity and privilege, calls one manager
// operation, posts to the ledger for buy and import, records successful
// mutations in the audit log and writes the output. Every recoverable
// failure prints the single line "Invalid".
package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dolthub/fslock"

	"github.com/roach88/bookstore/internal/account"
	"github.com/roach88/bookstore/internal/audit"
	"github.com/roach88/bookstore/internal/catalog"
	"github.com/roach88/bookstore/internal/config"
	"github.com/roach88/bookstore/internal/ledger"
	"github.com/roach88/bookstore/internal/session"
)

// LockFile is created in the data directory while an App holds it.
const LockFile = ".bookstore.lock"

// ErrBusy is returned when another process holds the data directory.
var ErrBusy = errors.New("data directory is in use by another process")

// Options configures Open.
type Options struct {
	Config config.Config
	Out    io.Writer

	// Clock stamps audit entries. Nil means the wall clock.
	Clock audit.Clock
	// Tokens generates session tokens. Nil means UUIDv7.
	Tokens session.TokenGenerator
	Logger *slog.Logger
}

// App is an open bookstore.
type App struct {
	cfg    config.Config
	lock   *fslock.Lock
	out    io.Writer
	logger *slog.Logger

	accounts *account.Manager
	books    *catalog.Manager
	ledger   *ledger.Ledger
	audit    *audit.Log
	sessions *session.Stack
}

// Open locks the data directory and opens the record files in it,
// creating them as needed.
func Open(opts Options) (*App, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	lock := fslock.New(filepath.Join(cfg.DataDir, LockFile))
	if err := lock.TryLock(); err != nil {
		if errors.Is(err, fslock.ErrLocked) {
			return nil, fmt.Errorf("%s: %w", cfg.DataDir, ErrBusy)
		}
		return nil, fmt.Errorf("lock data directory: %w", err)
	}

	a := &App{
		cfg:      cfg,
		lock:     lock,
		out:      out,
		logger:   logger,
		sessions: session.NewStack(opts.Tokens),
	}
	if err := a.openManagers(opts.Clock); err != nil {
		a.Close()
		return nil, err
	}
	logger.Debug("bookstore opened", "data_dir", cfg.DataDir)
	return a, nil
}

func (a *App) openManagers(clock audit.Clock) error {
	var err error
	if a.accounts, err = account.Open(a.cfg.Path(a.cfg.Files.Users), a.logger); err != nil {
		return err
	}
	if a.books, err = catalog.Open(a.cfg.Path(a.cfg.Files.Books), a.logger); err != nil {
		return err
	}
	if a.ledger, err = ledger.Open(a.cfg.Path(a.cfg.Files.Finance), a.logger); err != nil {
		return err
	}
	if a.audit, err = audit.Open(a.cfg.Path(a.cfg.Files.Log), clock, a.logger); err != nil {
		return err
	}
	return nil
}

// Close releases the record files and the directory lock.
func (a *App) Close() error {
	var errs []error
	if a.audit != nil {
		errs = append(errs, a.audit.Close())
	}
	if a.ledger != nil {
		errs = append(errs, a.ledger.Close())
	}
	if a.books != nil {
		errs = append(errs, a.books.Close())
	}
	if a.accounts != nil {
		errs = append(errs, a.accounts.Close())
	}
	if a.lock != nil {
		errs = append(errs, a.lock.Unlock())
		a.lock = nil
	}
	return errors.Join(errs...)
}

// Sessions exposes the login stack.
func (a *App) Sessions() *session.Stack {
	return a.sessions
}
