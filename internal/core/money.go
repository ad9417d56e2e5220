// Package core provides money parsing and handling utilities.
//
// Amounts are kept as decimals end to end; float64 is only produced for
// plotting.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount parses a monetary amount as written in spreadsheet exports.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. When
// both appear the comma is treated as a thousands separator (1,234.56).
// Negative values are allowed: refunds appear as negative expenses.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseSplitAmount parses one token of a Settle Up split. Tokens are always
// written with a dot, so a comma is an error rather than a separator.
func ParseSplitAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatEuros renders an amount as "€1234,56", the way the dashboard shows it.
func FormatEuros(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := strings.Replace(d.Abs().StringFixed(2), ".", ",", 1)
	if neg {
		return "-€" + s
	}
	return "€" + s
}

// Float returns the amount as float64 for chart rendering.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
