// Package core holds the domain model of the ledger: accounts,
// postings, shares, goals and recurring items, plus the money and date
// primitives they are built on.
//
// All monetary arithmetic is done in integer cents; decimal parsing
// happens only at the API boundary.
package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Validate rejects non-positive amounts. Posting and share amounts are
// always positive; signedness lives in account balances only.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m + other. Balances may legitimately go negative.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// LessThan reports m < other.
func (m Money) LessThan(other Money) bool {
	return m.Cents < other.Cents
}

// Neg returns the negated amount.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

// String renders the amount as a plain decimal ("12.34", "-0.05").
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

var hundred = decimal.NewFromInt(100)

// ParseMoney converts a decimal string to a positive Money amount with
// half-up rounding on the third decimal place. Both "12.34" and
// "12,34" are accepted. Zero, negative and malformed inputs are
// rejected.
func ParseMoney(s string) (Money, error) {
	d, err := ParseSignedMoney(s)
	if err != nil {
		return Money{}, err
	}
	if d.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return d, nil
}

// ParseSignedMoney is ParseMoney without the positivity requirement,
// used for starting balances which may be negative (credit accounts).
func ParseSignedMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(normalizeDecimal(s))
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Mul(hundred).Round(0)
	if !cents.IsInteger() || !cents.BigInt().IsInt64() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

func normalizeDecimal(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case ',':
			out = append(out, '.')
		case ' ', '\t':
			// tolerate stray whitespace
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
