package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/smartinvoice/backend/internal/domain/shared/valueobject"
)

// Calculator computes line totals, subtotal, taxes and total.
// Rounding is applied once per line and once per tax, never on running sums,
// so displayed lines always add up to the displayed subtotal.
type Calculator struct{}

// LineTotal returns round2(unitPrice * quantity)
func (Calculator) LineTotal(unitPrice, quantity decimal.Decimal) decimal.Decimal {
	return valueobject.Round2(unitPrice.Mul(quantity))
}

// Subtotal sums the line totals of matched lines
func (Calculator) Subtotal(lines []ResolvedLineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		if l.IsMatched() {
			sum = sum.Add(l.LineTotal)
		}
	}
	return sum
}

// Taxes computes each tax in declared order
func (Calculator) Taxes(subtotal decimal.Decimal, rates []TaxRate) []TaxLine {
	out := make([]TaxLine, 0, len(rates))
	running := subtotal
	for _, r := range rates {
		base := subtotal
		if r.Compounding {
			base = running
		}
		amount := valueobject.Round2(base.Mul(r.Rate))
		out = append(out, TaxLine{
			Name:        r.Name,
			Rate:        r.Rate,
			Compounding: r.Compounding,
			Base:        base,
			Amount:      amount,
		})
		running = running.Add(amount)
	}
	return out
}

// TaxTotal sums tax amounts
func (Calculator) TaxTotal(taxes []TaxLine) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range taxes {
		sum = sum.Add(t.Amount)
	}
	return sum
}

// Total returns subtotal plus all tax amounts
func (c Calculator) Total(subtotal decimal.Decimal, taxes []TaxLine) decimal.Decimal {
	return subtotal.Add(c.TaxTotal(taxes))
}
