// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer cents. Decimal text is parsed with
// shopspring/decimal and rounded to two places, half away from zero.
package core

import (
	"bytes"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

// MaxAmountCents bounds a single stored amount, and a bill or expense
// total, to ten trillion.
const MaxAmountCents int64 = 1_000_000_000_000_000

var hundred = decimal.NewFromInt(100)

// ParseMoney converts a decimal string to Money.
//
// The decimal separator is a dot. Commas are rejected rather than guessed,
// since "1,500" is a thousands separator for some clients and a decimal
// comma for others. Negative values are rejected unless allowNegative is set.
//
// Examples:
//
//	ParseMoney("12.34", false)  -> 1234 cents
//	ParseMoney("12.345", false) -> 1235 cents
//	ParseMoney("1,500", false)  -> ErrInvalidNumber
//	ParseMoney("-5", false)     -> ErrInvalidNumber
func ParseMoney(s string, allowNegative bool) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsRune(s, ',') {
		return Money{}, ErrInvalidNumber
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidNumber
	}
	if d.IsNegative() && !allowNegative {
		return Money{}, ErrInvalidNumber
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal rounds d to cents. Values beyond MaxAmountCents in
// either direction are rejected.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents, ok := toCents(d)
	if !ok || cents > MaxAmountCents || cents < -MaxAmountCents {
		return Money{}, ErrInvalidNumber
	}
	return Money{Cents: cents}, nil
}

// moneyFromTotal converts an aggregate. Totals outside the int64 cent range
// saturate instead of wrapping.
func moneyFromTotal(d decimal.Decimal) Money {
	if cents, ok := toCents(d); ok {
		return Money{Cents: cents}
	}
	if d.IsNegative() {
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: math.MaxInt64}
}

func toCents(d decimal.Decimal) (int64, bool) {
	cents := d.Round(2).Mul(hundred)
	if !cents.BigInt().IsInt64() {
		return 0, false
	}
	return cents.IntPart(), true
}

// Decimal returns the exact decimal value of m.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats m with exactly two decimals, e.g. "12.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON renders m as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*m = Money{}
		return nil
	}
	parsed, err := ParseMoney(string(b), true)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
