package app

import (
	"github.com/roach88/bookstore/internal/audit"
	"github.com/roach88/bookstore/internal/store"
)

// Problem is a failed consistency check on one record file.
type Problem struct {
	File string
	Err  error
}

// Check verifies the count slots of every file and recomputes the ledger
// aggregates.
func (a *App) Check() []Problem {
	checks := []struct {
		file   string
		verify func() error
	}{
		{a.cfg.Files.Users, a.accounts.Verify},
		{a.cfg.Files.Books, a.books.Verify},
		{a.cfg.Files.Finance, a.ledger.Verify},
		{a.cfg.Files.Log, a.audit.Verify},
	}

	var problems []Problem
	for _, c := range checks {
		if err := c.verify(); err != nil {
			problems = append(problems, Problem{File: c.file, Err: err})
		}
	}
	return problems
}

// Snapshot reads the live content of every file for export.
func (a *App) Snapshot() (store.Snapshot, error) {
	var (
		snap store.Snapshot
		err  error
	)
	if snap.Users, err = a.accounts.Users(); err != nil {
		return store.Snapshot{}, err
	}
	if snap.Books, err = a.books.All(); err != nil {
		return store.Snapshot{}, err
	}
	if snap.Ledger, err = a.ledger.Entries(); err != nil {
		return store.Snapshot{}, err
	}
	if snap.Audit, err = a.audit.Replay(); err != nil {
		return store.Snapshot{}, err
	}
	return snap, nil
}

// Trail returns the audit entries in recording order, optionally only
// those of one actor.
func (a *App) Trail(actor string) ([]audit.Entry, error) {
	entries, err := a.audit.Replay()
	if err != nil || actor == "" {
		return entries, err
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.Actor == actor {
			kept = append(kept, e)
		}
	}
	return kept, nil
}
