// Package core holds the ledger domain: sales, expenses, the daily cash
// register, and money parsing.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var centsFactor = decimal.NewFromInt(100)

// Money is an exact amount in integer cents. All arithmetic stays on
// int64; decimals only appear at the parse/format boundary.
type Money struct {
	Cents int64
}

// ParseMoney converts a decimal string into cents with half-up rounding on
// the third decimal place. Both dot and comma separators are accepted.
// Negative amounts are rejected; zero is allowed (top-up positivity is a
// register rule, not a parse rule).
func ParseMoney(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: d.Mul(centsFactor).Round(0).IntPart()}, nil
}

// MoneyFromCents wraps a raw cent count, as stored in SQLite.
func MoneyFromCents(cents int64) Money {
	return Money{Cents: cents}
}

// Decimal returns the amount as an exact decimal for aggregation and
// display.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.Cents).Div(centsFactor)
}

// String formats the amount with two decimal places, e.g. "1234.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(n Money) Money {
	return Money{Cents: m.Cents + n.Cents}
}

func (m Money) Sub(n Money) Money {
	return Money{Cents: m.Cents - n.Cents}
}

// MulInt multiplies by an integer quantity (sale totals).
func (m Money) MulInt(q int64) Money {
	return Money{Cents: m.Cents * q}
}

// ClampZero floors the amount at zero. The register invariant: balances
// never go negative, they clamp.
func (m Money) ClampZero() Money {
	if m.Cents < 0 {
		return Money{}
	}
	return m
}

func (m Money) IsNegative() bool { return m.Cents < 0 }
func (m Money) IsPositive() bool { return m.Cents > 0 }
func (m Money) IsZero() bool     { return m.Cents == 0 }
