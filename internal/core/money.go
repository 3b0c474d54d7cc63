// Package core holds the domain entities and the money and date rules the
// rest of the application is built on.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a client-supplied amount to a decimal. It accepts
// both dot (12.34) and comma (12,34) separators. Invalid input is a client
// error, never silently zeroed.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// CoerceSign force-corrects an amount's sign for its stream kind: income
// amounts are stored positive, expense amounts non-positive, regardless of
// what the client sent.
func CoerceSign(kind StreamKind, d decimal.Decimal) decimal.Decimal {
	if kind == Income {
		return d.Abs()
	}
	return d.Abs().Neg()
}

// FormatAmount renders an amount with exactly two fraction digits, the way
// every API response carries money.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
