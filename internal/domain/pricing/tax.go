package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TaxRate is one configured tax, applied in declared order
type TaxRate struct {
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"`
	// Compounding taxes use subtotal plus all previously computed taxes as base
	Compounding bool `json:"compounding,omitempty"`
}

// Validate checks the rate is a named fraction in [0, 1]
func (t TaxRate) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrInvalidTaxRate
	}
	if t.Rate.IsNegative() || t.Rate.GreaterThan(decimal.NewFromInt(1)) {
		return ErrInvalidTaxRate
	}
	return nil
}

// ValidateTaxRates validates every rate in order
func ValidateTaxRates(rates []TaxRate) error {
	for _, r := range rates {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// TaxLine is a computed tax amount
type TaxLine struct {
	Name        string          `json:"name"`
	Rate        decimal.Decimal `json:"rate"`
	Compounding bool            `json:"compounding,omitempty"`
	Base        decimal.Decimal `json:"base"`
	Amount      decimal.Decimal `json:"amount"`
}
