package store

import (
	"context"
	"testing"
	"time"

	"github.com/roach88/bookstore/internal/account"
	"github.com/roach88/bookstore/internal/audit"
	"github.com/roach88/bookstore/internal/catalog"
	"github.com/roach88/bookstore/internal/ledger"
)

func testSnapshot() Snapshot {
	return Snapshot{
		Users: []account.User{
			{ID: "root", Password: "sjtu", Name: "Super Admin", Privilege: 7},
			{ID: "alice", Password: "pw1", Name: "Alice", Privilege: 1},
		},
		Books: []catalog.Book{
			{ISBN: "000", Name: "Dune", Author: "Herbert", Keywords: "scifi", Price: 500, Quantity: 7},
		},
		Ledger: []ledger.Entry{
			{Income: false, Amount: 5000},
			{Income: true, Amount: 1500},
		},
		Audit: []audit.Entry{
			{Actor: "alice", Channel: audit.System, Action: "register alice", Time: time.Unix(100, 0)},
			{Actor: "root", Channel: audit.Financial, Action: "import 10 50.00", Time: time.Unix(200, 0)},
			{Actor: "alice", Channel: audit.Financial, Action: "buy 000 3", Time: time.Unix(300, 0)},
		},
	}
}

func TestExport_WritesAllTables(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	if err := s.Export(ctx, testSnapshot()); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts() failed: %v", err)
	}
	want := Counts{Users: 2, Books: 1, Ledger: 2, Audit: 3}
	if counts != want {
		t.Errorf("Counts() = %+v, want %+v", counts, want)
	}

	var income, expense int64
	err = s.db.QueryRow(`
		SELECT
			COALESCE(SUM(CASE WHEN kind = 'income' THEN amount_cents END), 0),
			COALESCE(SUM(CASE WHEN kind = 'expense' THEN amount_cents END), 0)
		FROM ledger`).Scan(&income, &expense)
	if err != nil {
		t.Fatalf("sum ledger: %v", err)
	}
	if income != 1500 || expense != 5000 {
		t.Errorf("ledger sums = (%d, %d), want (1500, 5000)", income, expense)
	}

	var fin int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM audit_log WHERE actor = 'alice' AND channel = 'FIN'").Scan(&fin); err != nil {
		t.Fatalf("query audit_log: %v", err)
	}
	if fin != 1 {
		t.Errorf("alice FIN entries = %d, want 1", fin)
	}
}

func TestExport_DoesNotStorePasswords(t *testing.T) {
	s, _ := createTestStore(t)
	if err := s.Export(context.Background(), testSnapshot()); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	rows, err := s.db.Query("SELECT name FROM pragma_table_info('users')")
	if err != nil {
		t.Fatalf("table_info: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			t.Fatal(err)
		}
		if col == "password" {
			t.Error("users table has a password column")
		}
	}
}

func TestExport_ReplacesPreviousSnapshot(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	if err := s.Export(ctx, testSnapshot()); err != nil {
		t.Fatalf("first Export() failed: %v", err)
	}
	small := Snapshot{Users: []account.User{{ID: "root", Name: "Super Admin", Privilege: 7}}}
	if err := s.Export(ctx, small); err != nil {
		t.Fatalf("second Export() failed: %v", err)
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts() failed: %v", err)
	}
	if counts != (Counts{Users: 1}) {
		t.Errorf("Counts() = %+v, want only one user", counts)
	}
}

func TestExport_RollsBackOnConstraintViolation(t *testing.T) {
	s, _ := createTestStore(t)
	ctx := context.Background()

	if err := s.Export(ctx, testSnapshot()); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	bad := testSnapshot()
	bad.Books = append(bad.Books, catalog.Book{ISBN: "000"})
	if err := s.Export(ctx, bad); err == nil {
		t.Fatal("Export() accepted duplicate ISBN")
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts() failed: %v", err)
	}
	if counts.Books != 1 || counts.Audit != 3 {
		t.Errorf("Counts() = %+v, previous snapshot should survive", counts)
	}
}
