// Package ledger keeps the append-only finance ledger.
//
// Every entry is appended to a record.File whose three info slots hold
// maintained aggregates:
//
//	slot 1: total income, in cents
//	slot 2: total expense, in cents
//	slot 3: number of entries
//
// Update-on-write rule: an entry is appended first, then its amount is added
// to the matching total, then the entry count is bumped. Readers that take
// the totals from the header therefore always see the fold over all
// entries. Verify recomputes that fold from scratch.
package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/shopspring/decimal"

	"github.com/roach88/bookstore/internal/money"
	"github.com/roach88/bookstore/internal/record"
)

const (
	infoSlots   = 3
	slotIncome  = 1
	slotExpense = 2
	slotCount   = 3
)

var (
	// ErrInvalid is returned for negative amounts or counts, and for
	// amounts that would push a running total out of range.
	ErrInvalid = errors.New("invalid ledger amount")

	// ErrTooMany is returned when more entries are requested than exist.
	ErrTooMany = errors.New("not that many ledger entries")
)

// Entry is one ledger event.
type Entry struct {
	Income bool
	Amount money.Cents
}

// Tombstoned implements record.Record. Ledger entries are never removed.
func (Entry) Tombstoned() bool {
	return false
}

type entryCodec struct{}

func (entryCodec) Size() int { return 1 + 8 }

func (entryCodec) Encode(e Entry, buf []byte) {
	enc := record.NewEncoder(buf)
	enc.Bool(e.Income)
	enc.Int64(int64(e.Amount))
}

func (entryCodec) Decode(buf []byte) Entry {
	d := record.NewDecoder(buf)
	return Entry{Income: d.Bool(), Amount: money.Cents(d.Int64())}
}

// Totals sums income and expense over some entries.
type Totals struct {
	Income  money.Cents
	Expense money.Cents
}

func (t *Totals) add(e Entry) {
	if e.Income {
		t.Income += e.Amount
	} else {
		t.Expense += e.Amount
	}
}

// Summary is the finance report.
type Summary struct {
	Entries int64
	Income  money.Cents
	Expense money.Cents
	Net     money.Cents
}

// aggregate is a header slot maintained as a running sum.
type aggregate struct {
	file *record.File[Entry]
	slot int
}

func (a aggregate) value() (int64, error) {
	return a.file.Info(a.slot)
}

func (a aggregate) set(v int64) error {
	return a.file.SetInfo(a.slot, v)
}

func (a aggregate) add(delta int64) error {
	v, err := a.value()
	if err != nil {
		return err
	}
	if v > math.MaxInt64-delta {
		return fmt.Errorf("slot %d: %w", a.slot, ErrInvalid)
	}
	return a.set(v + delta)
}

// Ledger owns the finance file.
type Ledger struct {
	file    *record.File[Entry]
	income  aggregate
	expense aggregate
	count   aggregate
	logger  *slog.Logger
}

// Open opens the finance file at path.
func Open(path string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := record.Open[Entry](path, infoSlots, entryCodec{})
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return &Ledger{
		file:    f,
		income:  aggregate{file: f, slot: slotIncome},
		expense: aggregate{file: f, slot: slotExpense},
		count:   aggregate{file: f, slot: slotCount},
		logger:  logger,
	}, nil
}

// Close releases the finance file.
func (l *Ledger) Close() error {
	return l.file.Close()
}

// AddIncome records income, rounded half up to cents.
func (l *Ledger) AddIncome(amount decimal.Decimal) error {
	return l.post(true, amount)
}

// AddExpense records an expense, rounded half up to cents.
func (l *Ledger) AddExpense(amount decimal.Decimal) error {
	return l.post(false, amount)
}

// CheckIncome reports whether AddIncome(amount) would be accepted without
// posting anything.
func (l *Ledger) CheckIncome(amount decimal.Decimal) error {
	_, _, err := l.prepare(true, amount)
	return err
}

// CheckExpense is CheckIncome for expenses.
func (l *Ledger) CheckExpense(amount decimal.Decimal) error {
	_, _, err := l.prepare(false, amount)
	return err
}

// prepare builds the entry and the new value of its running total. A total
// that would leave the Cents range is rejected before anything is written.
func (l *Ledger) prepare(income bool, amount decimal.Decimal) (Entry, money.Cents, error) {
	if amount.IsNegative() {
		return Entry{}, 0, fmt.Errorf("post %s: %w", amount, ErrInvalid)
	}
	e := Entry{Income: income, Amount: money.FromDecimal(amount)}

	v, err := l.total(income).value()
	if err != nil {
		return Entry{}, 0, fmt.Errorf("post: %w", err)
	}
	next, err := money.Cents(v).Plus(e.Amount)
	if err != nil {
		return Entry{}, 0, fmt.Errorf("post %s: %v: %w", e.Amount, err, ErrInvalid)
	}
	return e, next, nil
}

func (l *Ledger) total(income bool) aggregate {
	if income {
		return l.income
	}
	return l.expense
}

func (l *Ledger) post(income bool, amount decimal.Decimal) error {
	e, next, err := l.prepare(income, amount)
	if err != nil {
		return err
	}

	if _, err := l.file.Append(e); err != nil {
		return fmt.Errorf("post: %w", err)
	}
	if err := l.total(income).set(int64(next)); err != nil {
		return fmt.Errorf("post: %w", err)
	}
	if err := l.count.add(1); err != nil {
		return fmt.Errorf("post: %w", err)
	}

	l.logger.Debug("ledger entry posted", "income", income, "amount", e.Amount.String())
	return nil
}

// Count returns the number of entries.
func (l *Ledger) Count() (int64, error) {
	return l.count.value()
}

// ShowLast folds the most recent n entries. n == 0 yields zero totals.
func (l *Ledger) ShowLast(n int64) (Totals, error) {
	if n < 0 {
		return Totals{}, fmt.Errorf("show last %d: %w", n, ErrInvalid)
	}
	total, err := l.Count()
	if err != nil {
		return Totals{}, err
	}
	if n > total {
		return Totals{}, fmt.Errorf("show last %d of %d: %w", n, total, ErrTooMany)
	}

	var t Totals
	for i := total - n; i < total; i++ {
		e, err := l.file.Read(l.file.Offset(i))
		if err != nil {
			return Totals{}, fmt.Errorf("show last %d: %w", n, err)
		}
		t.add(e)
	}
	return t, nil
}

// ShowAll returns the maintained totals without scanning entries.
func (l *Ledger) ShowAll() (Totals, error) {
	income, err := l.income.value()
	if err != nil {
		return Totals{}, err
	}
	expense, err := l.expense.value()
	if err != nil {
		return Totals{}, err
	}
	return Totals{Income: money.Cents(income), Expense: money.Cents(expense)}, nil
}

// Report summarises the ledger from the maintained aggregates.
func (l *Ledger) Report() (Summary, error) {
	t, err := l.ShowAll()
	if err != nil {
		return Summary{}, err
	}
	n, err := l.Count()
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Entries: n,
		Income:  t.Income,
		Expense: t.Expense,
		Net:     t.Income - t.Expense,
	}, nil
}

// Entries returns every entry in posting order.
func (l *Ledger) Entries() ([]Entry, error) {
	n, err := l.Count()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, n)
	err = l.file.Scan(n, func(_ record.Offset, e Entry) error {
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	return entries, nil
}

// Verify recomputes the totals by folding every entry and compares them
// with the maintained aggregates.
func (l *Ledger) Verify() error {
	n, err := l.Count()
	if err != nil {
		return err
	}
	stored, torn, err := l.file.Stored()
	if err != nil {
		return err
	}
	if stored != n || torn {
		return &DriftError{Aggregate: "count", Maintained: n, Folded: stored}
	}

	entries, err := l.Entries()
	if err != nil {
		return err
	}
	var fold Totals
	for _, e := range entries {
		fold.add(e)
	}

	have, err := l.ShowAll()
	if err != nil {
		return err
	}
	if have.Income != fold.Income {
		return &DriftError{Aggregate: "income", Maintained: int64(have.Income), Folded: int64(fold.Income)}
	}
	if have.Expense != fold.Expense {
		return &DriftError{Aggregate: "expense", Maintained: int64(have.Expense), Folded: int64(fold.Expense)}
	}
	return nil
}

// DriftError reports a maintained aggregate that disagrees with the fold
// over the ledger entries.
type DriftError struct {
	Aggregate  string
	Maintained int64
	Folded     int64
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("ledger %s drift: maintained %d, folded %d", e.Aggregate, e.Maintained, e.Folded)
}
