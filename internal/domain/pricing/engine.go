package pricing

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smartinvoice/backend/internal/domain/ratecard"
	"github.com/smartinvoice/backend/internal/domain/shared/strategy"
)

// Pricer turns an extraction into a priced draft against a snapshot
type Pricer interface {
	Price(ctx context.Context, snap *ratecard.Snapshot, extraction Extraction, taxes []TaxRate) (*PricedInvoiceDraft, error)
}

// Engine is the rate resolution and pricing pipeline:
// matcher, quantity normalizer, calculator, assembler.
// It is a pure function of its inputs and performs no I/O.
type Engine struct {
	matcher    *ItemMatcher
	normalizer QuantityNormalizer
	calculator Calculator
	assembler  Assembler
}

// NewEngine creates an engine that matches with the given strategy
func NewEngine(s strategy.MatchStrategy) *Engine {
	return &Engine{matcher: NewItemMatcher(s)}
}

// Price resolves and prices every extracted item.
// Unmatched items and invalid quantities are reported inside the draft.
// ErrEmptyRateCard is returned when the snapshot has no active items.
func (e *Engine) Price(ctx context.Context, snap *ratecard.Snapshot, extraction Extraction, taxes []TaxRate) (*PricedInvoiceDraft, error) {
	if snap.IsEmpty() {
		return nil, ErrEmptyRateCard
	}
	if err := ValidateTaxRates(taxes); err != nil {
		return nil, err
	}

	candidates := Candidates(snap)
	lines := make([]ResolvedLineItem, len(extraction.Items))
	for i, item := range extraction.Items {
		lines[i] = e.resolve(ctx, i, item, snap, candidates)
	}

	subtotal := e.calculator.Subtotal(lines)
	taxLines := e.calculator.Taxes(subtotal, taxes)
	totals := Totals{
		Subtotal: subtotal,
		Taxes:    taxLines,
		TaxTotal: e.calculator.TaxTotal(taxLines),
		Total:    e.calculator.Total(subtotal, taxLines),
	}

	return e.assembler.Assemble(snap.ID, e.matcher.StrategyName(), extraction, lines, totals), nil
}

func (e *Engine) resolve(ctx context.Context, pos int, item ExtractedItem, snap *ratecard.Snapshot, candidates []strategy.MatchCandidate) ResolvedLineItem {
	line := ResolvedLineItem{
		Position:  pos,
		ItemRef:   strings.TrimSpace(item.ItemRef),
		Quantity:  item.Quantity,
		Notes:     strings.TrimSpace(item.Notes),
		UnitPrice: decimal.Zero,
		LineTotal: decimal.Zero,
	}

	outcome := e.matcher.match(ctx, item.ItemRef, snap, candidates)
	if !outcome.Matched {
		line.Status = LineStatusUnmatched
		line.Reason = ReasonNoMatch
		return line
	}

	id := outcome.Item.ID
	line.RateItemID = &id
	line.Name = outcome.Item.Name
	line.Description = outcome.Item.Description
	line.Category = outcome.Item.Category
	line.Unit = outcome.Item.Unit
	line.MatchMethod = outcome.Method
	line.MatchScore = outcome.Score

	qty, status, reason := e.normalizer.Normalize(item, outcome.Item.Unit)
	line.Status = status
	line.Reason = reason
	if status != LineStatusMatched {
		return line
	}

	line.Quantity = qty
	line.UnitPrice = outcome.Item.UnitPrice
	line.LineTotal = e.calculator.LineTotal(outcome.Item.UnitPrice, qty)
	return line
}
