package catalog

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bookstore/internal/money"
	"github.com/roach88/bookstore/internal/record"
)

func openTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "books.dat")
	m, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m, path
}

func isbns(books []Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.ISBN)
	}
	return out
}

func TestSelect_ProvisionsOnce(t *testing.T) {
	m, _ := openTestManager(t)

	c1, err := m.Select("978-0")
	require.NoError(t, err)
	require.True(t, c1.Valid())

	c2, err := m.Select("978-0")
	require.NoError(t, err)
	assert.Equal(t, c1, c2, "second select returns the same cursor")

	n, err := m.Records()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	b, err := m.Book(c1)
	require.NoError(t, err)
	assert.Equal(t, Book{ISBN: "978-0"}, b)
}

func TestSelect_InvalidISBN(t *testing.T) {
	m, _ := openTestManager(t)

	_, err := m.Select("")
	assert.True(t, errors.Is(err, ErrInvalid))
	_, err = m.Select("012345678901234567890")
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestNoCursor(t *testing.T) {
	m, _ := openTestManager(t)
	assert.False(t, NoCursor.Valid())

	err := m.Import(NoCursor, 1, 100)
	assert.True(t, errors.Is(err, ErrNoSelection))
	err = m.Modify(NoCursor, []Change{{Field: FieldName, Value: "x"}})
	assert.True(t, errors.Is(err, ErrNoSelection))
}

func TestSelectionSurvivesRename(t *testing.T) {
	m, _ := openTestManager(t)

	c, err := m.Select("old")
	require.NoError(t, err)
	require.NoError(t, m.Modify(c, []Change{{Field: FieldISBN, Value: "new"}}))

	require.NoError(t, m.Import(c, 5, 1000))

	got, err := m.ByISBN("new")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(5), got[0].Quantity)

	stale, err := m.ByISBN("old")
	require.NoError(t, err)
	assert.Empty(t, stale)

	again, err := m.Select("new")
	require.NoError(t, err)
	assert.Equal(t, c, again, "index follows the rename")

	fresh, err := m.Select("old")
	require.NoError(t, err)
	assert.NotEqual(t, c, fresh, "old isbn is free again")
}

func TestModify_RejectsNoOpRename(t *testing.T) {
	m, _ := openTestManager(t)
	c, err := m.Select("same")
	require.NoError(t, err)

	err = m.Modify(c, []Change{{Field: FieldISBN, Value: "same"}})
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestModify_RejectsTakenISBN(t *testing.T) {
	m, _ := openTestManager(t)
	c, err := m.Select("a")
	require.NoError(t, err)
	_, err = m.Select("b")
	require.NoError(t, err)

	err = m.Modify(c, []Change{{Field: FieldISBN, Value: "b"}})
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestModify_DuplicateFieldLeavesRecordUnchanged(t *testing.T) {
	m, _ := openTestManager(t)
	c, err := m.Select("dup")
	require.NoError(t, err)
	require.NoError(t, m.Modify(c, []Change{{Field: FieldName, Value: "Original"}}))

	err = m.Modify(c, []Change{
		{Field: FieldName, Value: "First"},
		{Field: FieldName, Value: "Second"},
	})
	assert.True(t, errors.Is(err, ErrInvalid))

	b, err := m.Book(c)
	require.NoError(t, err)
	assert.Equal(t, "Original", b.Name)
}

func TestModify_IsAllOrNothing(t *testing.T) {
	m, _ := openTestManager(t)
	c, err := m.Select("atomic")
	require.NoError(t, err)

	err = m.Modify(c, []Change{
		{Field: FieldName, Value: "Good Name"},
		{Field: FieldISBN, Value: "renamed"},
		{Field: FieldPrice, Value: "1.234"},
	})
	assert.True(t, errors.Is(err, ErrInvalid))

	b, err := m.Book(c)
	require.NoError(t, err)
	assert.Equal(t, Book{ISBN: "atomic"}, b)

	_, err = m.Select("renamed")
	require.NoError(t, err)
	n, err := m.Records()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "failed rename must not touch the index")
}

func TestModify_AllFields(t *testing.T) {
	m, _ := openTestManager(t)
	c, err := m.Select("full")
	require.NoError(t, err)

	require.NoError(t, m.Modify(c, []Change{
		{Field: FieldISBN, Value: "full-2"},
		{Field: FieldName, Value: "Go in Practice"},
		{Field: FieldAuthor, Value: "Someone"},
		{Field: FieldKeyword, Value: "go|systems"},
		{Field: FieldPrice, Value: "39.9"},
	}))

	b, err := m.Book(c)
	require.NoError(t, err)
	assert.Equal(t, Book{
		ISBN:     "full-2",
		Name:     "Go in Practice",
		Author:   "Someone",
		Keywords: "go|systems",
		Price:    3990,
	}, b)
}

func TestModify_FieldValidation(t *testing.T) {
	m, _ := openTestManager(t)
	c, err := m.Select("v")
	require.NoError(t, err)

	bad := []Change{
		{Field: FieldName, Value: ""},
		{Field: FieldName, Value: `has "quote"`},
		{Field: FieldAuthor, Value: strings.Repeat("a", 61)},
		{Field: FieldKeyword, Value: "a||b"},
		{Field: FieldKeyword, Value: "a|b|a"},
		{Field: FieldKeyword, Value: "a|"},
		{Field: FieldPrice, Value: "-1"},
		{Field: FieldPrice, Value: "abc"},
		{Field: FieldISBN, Value: ""},
		{Field: "color", Value: "red"},
	}
	for _, ch := range bad {
		t.Run(string(ch.Field)+"="+ch.Value, func(t *testing.T) {
			err := m.Modify(c, []Change{ch})
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}

	assert.True(t, errors.Is(m.Modify(c, nil), ErrInvalid))
}

func TestBuy(t *testing.T) {
	m, _ := openTestManager(t)
	c, err := m.Select("000")
	require.NoError(t, err)
	require.NoError(t, m.Modify(c, []Change{{Field: FieldPrice, Value: "5"}}))
	require.NoError(t, m.Import(c, 10, money.Cents(5000)))

	total, err := m.Buy("000", 3)
	require.NoError(t, err)
	assert.Equal(t, "15.00", total.String())

	b, err := m.Book(c)
	require.NoError(t, err)
	assert.Equal(t, int64(7), b.Quantity)

	_, err = m.Buy("000", 8)
	assert.True(t, errors.Is(err, ErrInsufficient))

	_, err = m.Buy("missing", 1)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = m.Buy("000", 0)
	assert.True(t, errors.Is(err, ErrInvalid))

	total, err = m.Buy("000", 7)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(3500), total)
}

func TestBuy_TotalOverflowLeavesStock(t *testing.T) {
	m, _ := openTestManager(t)
	c, err := m.Select("X")
	require.NoError(t, err)
	require.NoError(t, m.Modify(c, []Change{{Field: FieldPrice, Value: "9999999999.99"}}))
	require.NoError(t, m.Import(c, 2147483647, 100))

	_, err = m.Quote("X", 2147483647)
	assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)

	_, err = m.Buy("X", 2147483647)
	assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)

	b, err := m.Book(c)
	require.NoError(t, err)
	assert.Equal(t, int64(2147483647), b.Quantity, "rejected sale must not touch stock")

	total, err := m.Buy("X", 9)
	require.NoError(t, err)
	assert.Equal(t, "89999999999.91", total.String())
}

func TestQuote_WritesNothing(t *testing.T) {
	m, _ := openTestManager(t)
	c, err := m.Select("q")
	require.NoError(t, err)
	require.NoError(t, m.Modify(c, []Change{{Field: FieldPrice, Value: "2.50"}}))
	require.NoError(t, m.Import(c, 4, 100))

	total, err := m.Quote("q", 3)
	require.NoError(t, err)
	assert.Equal(t, money.Cents(750), total)

	b, err := m.Book(c)
	require.NoError(t, err)
	assert.Equal(t, int64(4), b.Quantity)

	_, err = m.Quote("q", 5)
	assert.True(t, errors.Is(err, ErrInsufficient))
}

func TestImport_StockOverflow(t *testing.T) {
	m, _ := openTestManager(t)
	c, err := m.Select("big")
	require.NoError(t, err)
	b, err := m.Book(c)
	require.NoError(t, err)
	b.Quantity = math.MaxInt64 - 1
	require.NoError(t, m.file.Update(b, c.off))

	assert.True(t, errors.Is(m.Import(c, 2, 100), ErrInvalid))
	require.NoError(t, m.Import(c, 1, 100))
}

func TestImport_RequiresPositiveAmounts(t *testing.T) {
	m, _ := openTestManager(t)
	c, err := m.Select("x")
	require.NoError(t, err)

	assert.True(t, errors.Is(m.Import(c, 0, 100), ErrInvalid))
	assert.True(t, errors.Is(m.Import(c, 1, 0), ErrInvalid))
	assert.True(t, errors.Is(m.Import(c, -1, 100), ErrInvalid))
}

func TestBrowse(t *testing.T) {
	m, _ := openTestManager(t)

	add := func(isbn, name, author, kw string) {
		c, err := m.Select(isbn)
		require.NoError(t, err)
		require.NoError(t, m.Modify(c, []Change{
			{Field: FieldName, Value: name},
			{Field: FieldAuthor, Value: author},
			{Field: FieldKeyword, Value: kw},
		}))
	}
	add("9", "Dune", "Herbert", "scifi|classic")
	add("10", "Emma", "Austen", "classic")
	add("1", "Dune", "Anonymous", "scifi")
	add("B", "Zed", "Herbert", "classical")

	all, err := m.All()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "10", "9", "B"}, isbns(all), "byte-wise ISBN order")

	byName, err := m.ByName("Dune")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "9"}, isbns(byName))

	byAuthor, err := m.ByAuthor("Herbert")
	require.NoError(t, err)
	assert.Equal(t, []string{"9", "B"}, isbns(byAuthor))

	byKeyword, err := m.ByKeyword("classic")
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "9"}, isbns(byKeyword), "exact token match only")

	byISBN, err := m.ByISBN("1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, isbns(byISBN), "no substring match")

	none, err := m.ByName("Missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestReopen_RebuildsIndex(t *testing.T) {
	m, path := openTestManager(t)
	c, err := m.Select("persist")
	require.NoError(t, err)
	require.NoError(t, m.Modify(c, []Change{{Field: FieldISBN, Value: "persist-2"}}))
	require.NoError(t, m.Close())

	m2, err := Open(path, nil)
	require.NoError(t, err)
	defer m2.Close()

	again, err := m2.Select("persist-2")
	require.NoError(t, err)
	assert.Equal(t, c, again)

	n, err := m2.Records()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestValidKeywords(t *testing.T) {
	assert.True(t, ValidKeywords("a"))
	assert.True(t, ValidKeywords("a|b|c"))
	assert.False(t, ValidKeywords(""))
	assert.False(t, ValidKeywords("|a"))
	assert.False(t, ValidKeywords("a|a"))
	assert.False(t, ValidKeywords(`a|"b"`))
}

func TestVerify(t *testing.T) {
	m, _ := openTestManager(t)
	_, err := m.Select("a")
	require.NoError(t, err)
	require.NoError(t, m.Verify())

	require.NoError(t, m.file.SetInfo(slotCount, 0))
	var ce *record.CountError
	assert.True(t, errors.As(m.Verify(), &ce))
}
