package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/bookstore/internal/account"
	"github.com/roach88/bookstore/internal/audit"
	"github.com/roach88/bookstore/internal/catalog"
	"github.com/roach88/bookstore/internal/ledger"
)

// Snapshot is the content of the four record files.
type Snapshot struct {
	Users  []account.User
	Books  []catalog.Book
	Ledger []ledger.Entry
	Audit  []audit.Entry
}

// Counts reports how many rows each table holds.
type Counts struct {
	Users  int64
	Books  int64
	Ledger int64
	Audit  int64
}

// Export replaces the database contents with snap in one transaction.
func (s *Store) Export(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin export: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"users", "books", "ledger", "audit_log"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := insertAll(ctx, tx,
		"INSERT INTO users (ordinal, id, name, privilege) VALUES (?, ?, ?, ?)",
		snap.Users, func(i int, u account.User) []any {
			return []any{i, u.ID, u.Name, u.Privilege}
		}); err != nil {
		return fmt.Errorf("export users: %w", err)
	}

	if err := insertAll(ctx, tx,
		"INSERT INTO books (isbn, name, author, keywords, price_cents, quantity) VALUES (?, ?, ?, ?, ?, ?)",
		snap.Books, func(_ int, b catalog.Book) []any {
			return []any{b.ISBN, b.Name, b.Author, b.Keywords, int64(b.Price), b.Quantity}
		}); err != nil {
		return fmt.Errorf("export books: %w", err)
	}

	if err := insertAll(ctx, tx,
		"INSERT INTO ledger (seq, kind, amount_cents) VALUES (?, ?, ?)",
		snap.Ledger, func(i int, e ledger.Entry) []any {
			kind := "expense"
			if e.Income {
				kind = "income"
			}
			return []any{i + 1, kind, int64(e.Amount)}
		}); err != nil {
		return fmt.Errorf("export ledger: %w", err)
	}

	if err := insertAll(ctx, tx,
		"INSERT INTO audit_log (seq, actor, channel, action, recorded_at) VALUES (?, ?, ?, ?, ?)",
		snap.Audit, func(i int, e audit.Entry) []any {
			return []any{i + 1, e.Actor, string(e.Channel), e.Action, e.Time.Unix()}
		}); err != nil {
		return fmt.Errorf("export audit log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}
	return nil
}

func insertAll[T any](ctx context.Context, tx *sql.Tx, query string, rows []T, args func(int, T) []any) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, args(i, row)...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

// Counts returns the row count of every table.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	targets := []struct {
		table string
		dst   *int64
	}{
		{"users", &c.Users},
		{"books", &c.Books},
		{"ledger", &c.Ledger},
		{"audit_log", &c.Audit},
	}
	for _, t := range targets {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.table).Scan(t.dst); err != nil {
			return Counts{}, fmt.Errorf("count %s: %w", t.table, err)
		}
	}
	return c, nil
}
