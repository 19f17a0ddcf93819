// Package money converts between the integer minor units stored in the
// database and the decimal amounts exchanged with clients and configuration.
package money

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const minorUnitExp = 2

// Parse reads a decimal amount such as "35.00" into cents.
func Parse(amount string) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %q cannot be negative", amount)
	}
	if d.Exponent() < -minorUnitExp && !d.Equal(d.Round(minorUnitExp)) {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", amount, minorUnitExp)
	}
	return d.Shift(minorUnitExp).IntPart(), nil
}

// Decimal returns cents as a decimal amount in major units.
func Decimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -minorUnitExp)
}

// Format renders cents with exactly two decimal places.
func Format(cents int64) string {
	return Decimal(cents).StringFixed(minorUnitExp)
}

// Number renders cents as an unquoted JSON number, e.g. 35.00.
func Number(cents int64) json.Number {
	return json.Number(Format(cents))
}

// Min returns the smaller of two amounts.
func Min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
