// Package catalog stores the book catalog.
//
// Books are kept in a record.File whose single info slot is the record
// count. A book is selected by its Cursor, the record's offset, rather than
// by ISBN: modify may change the ISBN of the selected record, and the
// cursor keeps pointing at the same row afterwards.
package catalog

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/dolthub/swiss"

	"github.com/roach88/bookstore/internal/money"
	"github.com/roach88/bookstore/internal/record"
)

const (
	infoSlots = 1
	slotCount = 1
)

// Cursor is an opaque handle to one catalog record. The zero value means
// nothing is selected.
type Cursor struct {
	off record.Offset
}

// NoCursor is the unselected cursor.
var NoCursor = Cursor{}

// Valid reports whether the cursor refers to a record.
func (c Cursor) Valid() bool {
	return c.off > 0
}

// Field names a modifiable book attribute.
type Field string

// Modifiable fields, spelled as in the command protocol.
const (
	FieldISBN    Field = "ISBN"
	FieldName    Field = "name"
	FieldAuthor  Field = "author"
	FieldKeyword Field = "keyword"
	FieldPrice   Field = "price"
)

// Change sets one field to a new textual value.
type Change struct {
	Field Field
	Value string
}

// Manager owns the books file.
type Manager struct {
	file   *record.File[Book]
	index  *swiss.Map[string, record.Offset]
	logger *slog.Logger
}

// Open opens the books file at path and builds the ISBN index.
func Open(path string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f, err := record.Open[Book](path, infoSlots, bookCodec{})
	if err != nil {
		return nil, fmt.Errorf("open books: %w", err)
	}

	m := &Manager{file: f, logger: logger}
	if err := m.reindex(); err != nil {
		f.Close()
		return nil, err
	}
	return m, nil
}

// Close releases the books file.
func (m *Manager) Close() error {
	return m.file.Close()
}

func (m *Manager) count() (int64, error) {
	return m.file.Info(slotCount)
}

func (m *Manager) reindex() error {
	n, err := m.count()
	if err != nil {
		return fmt.Errorf("index books: %w", err)
	}
	m.index = swiss.NewMap[string, record.Offset](uint32(n) + 1)
	err = m.file.Scan(n, func(off record.Offset, b Book) error {
		if !m.index.Has(b.ISBN) {
			m.index.Put(b.ISBN, off)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("index books: %w", err)
	}
	return nil
}

func (m *Manager) find(isbn string) (Book, record.Offset, error) {
	off, ok := m.index.Get(isbn)
	if !ok {
		return Book{}, record.NoOffset, fmt.Errorf("%w: %q", ErrNotFound, isbn)
	}
	b, err := m.file.Read(off)
	if err != nil {
		return Book{}, record.NoOffset, err
	}
	return b, off, nil
}

// selected reads the live record behind c.
func (m *Manager) selected(c Cursor) (Book, error) {
	if !c.Valid() {
		return Book{}, ErrNoSelection
	}
	b, err := m.file.Read(c.off)
	if err != nil {
		return Book{}, err
	}
	if !record.Live(b) {
		return Book{}, ErrNotFound
	}
	return b, nil
}

func (m *Manager) list(keep func(Book) bool) ([]Book, error) {
	n, err := m.count()
	if err != nil {
		return nil, err
	}
	books := []Book{}
	err = m.file.Scan(n, func(_ record.Offset, b Book) error {
		if keep(b) {
			books = append(books, b)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan books: %w", err)
	}
	slices.SortFunc(books, func(a, b Book) int {
		return strings.Compare(a.ISBN, b.ISBN)
	})
	return books, nil
}

// All returns every live book ordered by ISBN.
func (m *Manager) All() ([]Book, error) {
	return m.list(func(Book) bool { return true })
}

// ByISBN returns the books whose ISBN equals isbn.
func (m *Manager) ByISBN(isbn string) ([]Book, error) {
	return m.list(func(b Book) bool { return b.ISBN == isbn })
}

// ByName returns the books whose name equals name, ordered by ISBN.
func (m *Manager) ByName(name string) ([]Book, error) {
	return m.list(func(b Book) bool { return b.Name == name })
}

// ByAuthor returns the books whose author equals author, ordered by ISBN.
func (m *Manager) ByAuthor(author string) ([]Book, error) {
	return m.list(func(b Book) bool { return b.Author == author })
}

// ByKeyword returns the books carrying keyword as one of their tokens.
func (m *Manager) ByKeyword(keyword string) ([]Book, error) {
	return m.list(func(b Book) bool { return b.HasKeyword(keyword) })
}

// Quote checks that qty copies of isbn can be sold and returns their total
// price. Nothing is written.
func (m *Manager) Quote(isbn string, qty int64) (money.Cents, error) {
	_, _, total, err := m.quote(isbn, qty)
	return total, err
}

func (m *Manager) quote(isbn string, qty int64) (Book, record.Offset, money.Cents, error) {
	if qty <= 0 {
		return Book{}, record.NoOffset, 0, fmt.Errorf("buy: quantity %d: %w", qty, ErrInvalid)
	}
	b, off, err := m.find(isbn)
	if err != nil {
		return Book{}, record.NoOffset, 0, fmt.Errorf("buy: %w", err)
	}
	if b.Quantity < qty {
		return Book{}, record.NoOffset, 0, fmt.Errorf("buy %q: have %d, want %d: %w", isbn, b.Quantity, qty, ErrInsufficient)
	}
	total, err := b.Price.Times(qty)
	if err != nil {
		return Book{}, record.NoOffset, 0, fmt.Errorf("buy %q: %v: %w", isbn, err, ErrInvalid)
	}
	return b, off, total, nil
}

// Buy takes qty copies out of stock and returns the total price. The total
// is computed before stock changes, so a rejected sale writes nothing.
func (m *Manager) Buy(isbn string, qty int64) (money.Cents, error) {
	b, off, total, err := m.quote(isbn, qty)
	if err != nil {
		return 0, err
	}

	b.Quantity -= qty
	if err := m.file.Update(b, off); err != nil {
		return 0, fmt.Errorf("buy %q: %w", isbn, err)
	}
	m.logger.Debug("book sold", "isbn", isbn, "quantity", qty, "total", total.String())
	return total, nil
}

// Select returns the cursor of the book with isbn, creating an empty
// record for an unknown ISBN.
func (m *Manager) Select(isbn string) (Cursor, error) {
	if !ValidISBN(isbn) {
		return NoCursor, fmt.Errorf("select: %w", ErrInvalid)
	}
	if off, ok := m.index.Get(isbn); ok {
		return Cursor{off: off}, nil
	}

	n, err := m.count()
	if err != nil {
		return NoCursor, err
	}
	off, err := m.file.Append(Book{ISBN: isbn})
	if err != nil {
		return NoCursor, fmt.Errorf("select %q: %w", isbn, err)
	}
	if err := m.file.SetInfo(slotCount, n+1); err != nil {
		return NoCursor, fmt.Errorf("select %q: %w", isbn, err)
	}
	m.index.Put(isbn, off)
	m.logger.Debug("book provisioned", "isbn", isbn)
	return Cursor{off: off}, nil
}

// Book returns the record behind c.
func (m *Manager) Book(c Cursor) (Book, error) {
	return m.selected(c)
}

// Modify applies a set of changes to the record behind c. Every change is
// validated before any is applied; the record is written back once.
func (m *Manager) Modify(c Cursor, changes []Change) error {
	if len(changes) == 0 {
		return fmt.Errorf("modify: no changes: %w", ErrInvalid)
	}
	b, err := m.selected(c)
	if err != nil {
		return fmt.Errorf("modify: %w", err)
	}

	seen := make(map[Field]struct{}, len(changes))
	for _, ch := range changes {
		if _, dup := seen[ch.Field]; dup {
			return fmt.Errorf("modify: field %s given twice: %w", ch.Field, ErrInvalid)
		}
		seen[ch.Field] = struct{}{}
	}

	updated := b
	for _, ch := range changes {
		if err := m.apply(&updated, b.ISBN, ch); err != nil {
			return fmt.Errorf("modify %q: %w", b.ISBN, err)
		}
	}

	if err := m.file.Update(updated, c.off); err != nil {
		return fmt.Errorf("modify %q: %w", b.ISBN, err)
	}
	if updated.ISBN != b.ISBN {
		m.index.Delete(b.ISBN)
		m.index.Put(updated.ISBN, c.off)
	}
	m.logger.Debug("book modified", "isbn", updated.ISBN, "changes", len(changes))
	return nil
}

// apply validates ch and sets it on b.
func (m *Manager) apply(b *Book, current string, ch Change) error {
	switch ch.Field {
	case FieldISBN:
		if !ValidISBN(ch.Value) {
			return fmt.Errorf("isbn %q: %w", ch.Value, ErrInvalid)
		}
		if ch.Value == current {
			return fmt.Errorf("isbn unchanged: %w", ErrConflict)
		}
		if m.index.Has(ch.Value) {
			return fmt.Errorf("isbn %q in use: %w", ch.Value, ErrConflict)
		}
		b.ISBN = ch.Value
	case FieldName:
		if !ValidText(ch.Value) {
			return fmt.Errorf("name: %w", ErrInvalid)
		}
		b.Name = ch.Value
	case FieldAuthor:
		if !ValidText(ch.Value) {
			return fmt.Errorf("author: %w", ErrInvalid)
		}
		b.Author = ch.Value
	case FieldKeyword:
		if !ValidKeywords(ch.Value) {
			return fmt.Errorf("keyword: %w", ErrInvalid)
		}
		b.Keywords = ch.Value
	case FieldPrice:
		price, err := money.ParsePrice(ch.Value)
		if err != nil {
			return fmt.Errorf("price: %v: %w", err, ErrInvalid)
		}
		b.Price = price
	default:
		return fmt.Errorf("unknown field %q: %w", ch.Field, ErrInvalid)
	}
	return nil
}

// Import adds qty copies to the selected book. cost is what the caller
// posts to the ledger and must be positive.
func (m *Manager) Import(c Cursor, qty int64, cost money.Cents) error {
	if qty <= 0 || cost <= 0 {
		return fmt.Errorf("import: quantity %d cost %s: %w", qty, cost, ErrInvalid)
	}
	b, err := m.selected(c)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	if b.Quantity > math.MaxInt64-qty {
		return fmt.Errorf("import %q: stock %d plus %d: %w", b.ISBN, b.Quantity, qty, ErrInvalid)
	}
	b.Quantity += qty
	if err := m.file.Update(b, c.off); err != nil {
		return fmt.Errorf("import %q: %w", b.ISBN, err)
	}
	m.logger.Debug("book imported", "isbn", b.ISBN, "quantity", qty, "cost", cost.String())
	return nil
}

// Records returns the high-water record count.
func (m *Manager) Records() (int64, error) {
	return m.count()
}

// Verify checks the count slot against the file.
func (m *Manager) Verify() error {
	return m.file.CheckCount(slotCount)
}
