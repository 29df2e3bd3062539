// Package valueobject holds the rounding and currency rules shared by every
// amount the pricing engine produces.
package valueobject

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// MoneyPlaces is the number of decimal places every stored amount carries
const MoneyPlaces int32 = 2

// DefaultCurrency applies when an owner has not configured one
const DefaultCurrency = "USD"

// Round2 rounds to cents, half away from zero: 16.875 becomes 16.88.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// FormatAmount renders d with exactly two decimals, as amounts appear on the wire
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(MoneyPlaces)
}

// ParseCurrency normalizes code to an upper-case ISO 4217 code. Unknown
// codes are rejected.
func ParseCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", err
	}
	return unit.String(), nil
}
