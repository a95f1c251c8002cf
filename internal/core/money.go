// Package core provides money parsing and handling utilities.
//
// Amounts are carried as shopspring decimals with two fraction digits.
package core

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const currencySymbol = "$"

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal string to a positive amount rounded to cents.
//
// It accepts dot (12.34) separators, and a lone comma (12,34) as a decimal
// comma. Thousands separators are accepted when a dot is present
// (1,234.56). The third fraction digit is rounded half-up.
//
// Examples:
//
//	ParseAmount("12.34")    -> 12.34
//	ParseAmount("12,34")    -> 12.34
//	ParseAmount("1,234.5")  -> 1234.50
//	ParseAmount("12.345")   -> 12.35
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), currencySymbol))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	switch {
	case strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ",") == 1:
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// AmountFromCents builds an amount from an integer number of cents.
func AmountFromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Cents returns the amount as integer cents, rounding half away from zero.
func Cents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// Sum adds the amounts of the given transactions.
func Sum(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}

// FormatCurrency renders an amount with two fraction digits and a thousands
// separator, e.g. $1,234.56 or -$50.00.
func FormatCurrency(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	whole := d.Truncate(0)
	return sign + currencySymbol + humanize.Comma(whole.IntPart()) + fixed[len(fixed)-3:]
}
