package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/bookstore/internal/catalog"
	"github.com/roach88/bookstore/internal/money"
)

const (
	maxQuantityDigits = 10
	maxQuantity       = 2147483647
)

func digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ParseQuantity reads a count: 1 to 10 digits, at most 2147483647.
// Zero is syntactically valid.
func ParseQuantity(s string) (int64, error) {
	if len(s) > maxQuantityDigits || !digits(s) {
		return 0, fmt.Errorf("%w: quantity %q", ErrSyntax, s)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n > maxQuantity {
		return 0, fmt.Errorf("%w: quantity %q", ErrSyntax, s)
	}
	return n, nil
}

// ParsePrivilege reads a single-digit privilege level.
func ParsePrivilege(s string) (int, error) {
	if len(s) != 1 || !digits(s) {
		return 0, fmt.Errorf("%w: privilege %q", ErrSyntax, s)
	}
	return int(s[0] - '0'), nil
}

// ParseCost reads an import cost: a non-negative decimal of any precision.
// It is rounded half up to cents when posted.
func ParseCost(s string) (decimal.Decimal, error) {
	d, err := money.Parse(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: cost: %v", ErrSyntax, err)
	}
	return d, nil
}

// Criterion is a "show -FIELD=value" filter.
type Criterion struct {
	Field catalog.Field
	Value string
}

// splitAssignment breaks "-FIELD=value" into its parts and removes the
// quotes that text fields require. An ISBN is taken as written, quotes
// included, the same way select and buy take it.
func splitAssignment(arg string) (catalog.Field, string, error) {
	if !strings.HasPrefix(arg, "-") {
		return "", "", fmt.Errorf("%w: %q lacks leading dash", ErrSyntax, arg)
	}
	key, value, ok := strings.Cut(arg[1:], "=")
	if !ok || key == "" {
		return "", "", fmt.Errorf("%w: %q lacks field", ErrSyntax, arg)
	}
	field := catalog.Field(key)

	switch field {
	case catalog.FieldISBN:
	case catalog.FieldPrice:
		if strings.Contains(value, `"`) {
			return "", "", fmt.Errorf("%w: %s must not be quoted", ErrSyntax, field)
		}
	case catalog.FieldName, catalog.FieldAuthor, catalog.FieldKeyword:
		if len(value) < 2 || value[0] != '"' || value[len(value)-1] != '"' {
			return "", "", fmt.Errorf("%w: %s must be quoted", ErrSyntax, field)
		}
		value = value[1 : len(value)-1]
	default:
		return "", "", fmt.Errorf("%w: unknown field %q", ErrSyntax, key)
	}
	if value == "" {
		return "", "", fmt.Errorf("%w: empty %s", ErrSyntax, field)
	}
	return field, value, nil
}

// ParseCriterion reads a show filter. Price is not searchable, and a
// keyword filter names exactly one keyword.
func ParseCriterion(arg string) (Criterion, error) {
	field, value, err := splitAssignment(arg)
	if err != nil {
		return Criterion{}, err
	}
	if field == catalog.FieldPrice {
		return Criterion{}, fmt.Errorf("%w: cannot search by price", ErrSyntax)
	}
	if field == catalog.FieldKeyword && strings.Contains(value, catalog.KeywordSeparator) {
		return Criterion{}, fmt.Errorf("%w: one keyword per search", ErrSyntax)
	}
	return Criterion{Field: field, Value: value}, nil
}

// ParseChanges reads modify arguments. Field values are checked by the
// catalog; duplicate fields are passed through for it to reject.
func ParseChanges(args []string) ([]catalog.Change, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: nothing to modify", ErrSyntax)
	}
	changes := make([]catalog.Change, 0, len(args))
	for _, arg := range args {
		field, value, err := splitAssignment(arg)
		if err != nil {
			return nil, err
		}
		changes = append(changes, catalog.Change{Field: field, Value: value})
	}
	return changes, nil
}
