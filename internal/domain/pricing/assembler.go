package pricing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricedInvoiceDraft is the engine's output.
// Lines keep extraction order; UnmatchedItems lists the references that need
// manual correction before confirmation.
type PricedInvoiceDraft struct {
	SnapshotID     uuid.UUID          `json:"snapshot_id"`
	Strategy       string             `json:"strategy"`
	Lines          []ResolvedLineItem `json:"lines"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	Taxes          []TaxLine          `json:"taxes"`
	TaxTotal       decimal.Decimal    `json:"tax_total"`
	Total          decimal.Decimal    `json:"total"`
	UnmatchedItems []string           `json:"unmatched_items"`
	InvalidItems   []string           `json:"invalid_items"`
	Issues         []Issue            `json:"issues"`
	Hints          Hints              `json:"hints"`
}

// FullyResolved reports whether every line was matched with a valid quantity
func (d *PricedInvoiceDraft) FullyResolved() bool {
	return len(d.Issues) == 0
}

// MatchedLines returns only the lines that contribute to the subtotal
func (d *PricedInvoiceDraft) MatchedLines() []ResolvedLineItem {
	out := make([]ResolvedLineItem, 0, len(d.Lines))
	for _, l := range d.Lines {
		if l.IsMatched() {
			out = append(out, l)
		}
	}
	return out
}

// Assembler combines resolved lines and totals into a draft
type Assembler struct{}

// Totals groups the calculator results handed to the assembler
type Totals struct {
	Subtotal decimal.Decimal
	Taxes    []TaxLine
	TaxTotal decimal.Decimal
	Total    decimal.Decimal
}

// Assemble builds the draft. It never changes a line's price.
func (Assembler) Assemble(snapshotID uuid.UUID, strategyName string, extraction Extraction, lines []ResolvedLineItem, totals Totals) *PricedInvoiceDraft {
	draft := &PricedInvoiceDraft{
		SnapshotID:     snapshotID,
		Strategy:       strategyName,
		Lines:          lines,
		Subtotal:       totals.Subtotal,
		Taxes:          totals.Taxes,
		TaxTotal:       totals.TaxTotal,
		Total:          totals.Total,
		UnmatchedItems: make([]string, 0),
		InvalidItems:   make([]string, 0),
		Issues:         make([]Issue, 0),
		Hints: Hints{
			ClientName: strings.TrimSpace(extraction.ClientNameHint),
			WorkDate:   strings.TrimSpace(extraction.WorkDateHint),
			Notes:      strings.TrimSpace(extraction.Notes),
		},
	}

	for _, l := range lines {
		switch l.Status {
		case LineStatusUnmatched:
			draft.UnmatchedItems = append(draft.UnmatchedItems, l.ItemRef)
			draft.Issues = append(draft.Issues, Issue{
				Kind: IssueUnmatchedItem, Position: l.Position, ItemRef: l.ItemRef, Quantity: l.Quantity, Reason: l.Reason,
			})
		case LineStatusInvalidQuantity:
			draft.InvalidItems = append(draft.InvalidItems, l.ItemRef)
			draft.Issues = append(draft.Issues, Issue{
				Kind: IssueInvalidQuantity, Position: l.Position, ItemRef: l.ItemRef, Quantity: l.Quantity, Reason: l.Reason,
			})
		}
	}
	return draft
}
