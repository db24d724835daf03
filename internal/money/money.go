// Package money represents amounts as integer minor-currency units.
package money

import (
	"errors"
	"fmt"
	"math"
	"regexp"

	"github.com/shopspring/decimal"
)

// Cents is an amount in minor-currency units.
type Cents int64

var (
	// ErrSyntax is returned for text that is not a plain non-negative decimal.
	ErrSyntax = errors.New("malformed amount")
	// ErrPrecision is returned when a price carries more than two fractional digits.
	ErrPrecision = errors.New("more than two fractional digits")
	// ErrOverflow is returned when a result does not fit in Cents.
	ErrOverflow = errors.New("amount out of range")
)

// MaxLiteral is the longest accepted amount literal.
const MaxLiteral = 13

var (
	amountPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)
	hundred       = decimal.NewFromInt(100)
	maxCents      = decimal.NewFromInt(math.MaxInt64)
	minCents      = decimal.NewFromInt(math.MinInt64)
)

// Parse reads a non-negative decimal literal such as "12" or "3.5".
func Parse(s string) (decimal.Decimal, error) {
	if len(s) == 0 || len(s) > MaxLiteral || !amountPattern.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrSyntax, s)
	}
	return d, nil
}

// ParsePrice reads a price: a non-negative decimal with at most two
// fractional digits. The conversion to Cents is exact.
func ParsePrice(s string) (Cents, error) {
	d, err := Parse(s)
	if err != nil {
		return 0, err
	}
	if d.Exponent() < -2 {
		return 0, fmt.Errorf("%w: %q", ErrPrecision, s)
	}
	return FromDecimal(d), nil
}

// FromDecimal converts d to Cents rounding half up.
func FromDecimal(d decimal.Decimal) Cents {
	// Round is half away from zero, which is half up for the
	// non-negative amounts this package deals in.
	return Cents(d.Mul(hundred).Round(0).IntPart())
}

// Decimal returns c as a decimal amount in major units.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// String formats c with exactly two fractional digits, e.g. "15.00".
func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// Times returns c multiplied by a quantity.
func (c Cents) Times(qty int64) (Cents, error) {
	return fit(decimal.NewFromInt(int64(c)).Mul(decimal.NewFromInt(qty)))
}

// Plus returns c + d.
func (c Cents) Plus(d Cents) (Cents, error) {
	return fit(decimal.NewFromInt(int64(c)).Add(decimal.NewFromInt(int64(d))))
}

// fit converts an exact count of cents, failing when it leaves int64.
func fit(v decimal.Decimal) (Cents, error) {
	if v.GreaterThan(maxCents) || v.LessThan(minCents) {
		return 0, fmt.Errorf("%w: %s cents", ErrOverflow, v)
	}
	return Cents(v.IntPart()), nil
}
