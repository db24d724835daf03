package catalog

import (
	"strings"

	"github.com/roach88/bookstore/internal/money"
	"github.com/roach88/bookstore/internal/record"
)

// Field limits.
const (
	MaxISBNLen = 20
	MaxTextLen = 60
)

const (
	isbnWidth = MaxISBNLen + 1
	textWidth = MaxTextLen + 1
)

// KeywordSeparator splits the keyword string into tokens.
const KeywordSeparator = "|"

// Book is one row of the books file. An empty ISBN marks a removed record.
type Book struct {
	ISBN     string
	Name     string
	Author   string
	Keywords string
	Price    money.Cents
	Quantity int64
}

// Tombstoned implements record.Record.
func (b Book) Tombstoned() bool {
	return b.ISBN == ""
}

// KeywordList splits the keyword string into its tokens.
func (b Book) KeywordList() []string {
	if b.Keywords == "" {
		return nil
	}
	return strings.Split(b.Keywords, KeywordSeparator)
}

// HasKeyword reports whether kw is exactly one of the book's keyword tokens.
func (b Book) HasKeyword(kw string) bool {
	for _, k := range b.KeywordList() {
		if k == kw {
			return true
		}
	}
	return false
}

// bookCodec lays a Book out as isbn[21] name[61] author[61] keywords[61]
// price(int64 cents) quantity(int64).
type bookCodec struct{}

var _ record.Codec[Book] = bookCodec{}

func (bookCodec) Size() int {
	return isbnWidth + 3*textWidth + 8 + 8
}

func (bookCodec) Encode(b Book, buf []byte) {
	e := record.NewEncoder(buf)
	e.String(b.ISBN, isbnWidth)
	e.String(b.Name, textWidth)
	e.String(b.Author, textWidth)
	e.String(b.Keywords, textWidth)
	e.Int64(int64(b.Price))
	e.Int64(b.Quantity)
}

func (bookCodec) Decode(buf []byte) Book {
	d := record.NewDecoder(buf)
	return Book{
		ISBN:     d.String(isbnWidth),
		Name:     d.String(textWidth),
		Author:   d.String(textWidth),
		Keywords: d.String(textWidth),
		Price:    money.Cents(d.Int64()),
		Quantity: d.Int64(),
	}
}

// ValidISBN checks 1..20 printable ASCII characters.
func ValidISBN(s string) bool {
	if len(s) == 0 || len(s) > MaxISBNLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 32 || s[i] > 126 {
			return false
		}
	}
	return true
}

// ValidText checks a name or author: 1..60 printable ASCII characters
// without double quotes.
func ValidText(s string) bool {
	if len(s) == 0 || len(s) > MaxTextLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 32 || c > 126 || c == '"' {
			return false
		}
	}
	return true
}

// ValidKeywords checks a keyword string: valid text whose tokens are
// non-empty and pairwise distinct.
func ValidKeywords(s string) bool {
	if !ValidText(s) {
		return false
	}
	seen := make(map[string]struct{})
	for _, k := range strings.Split(s, KeywordSeparator) {
		if k == "" {
			return false
		}
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
	}
	return true
}
