package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/smartinvoice/backend/internal/domain/shared"
)

// IssueKind classifies a non-fatal problem found while resolving a draft
type IssueKind string

const (
	IssueUnmatchedItem   IssueKind = "unmatched_item"
	IssueInvalidQuantity IssueKind = "invalid_quantity"
)

// Issue is a per-item problem reported as a value, never as an error
type Issue struct {
	Kind     IssueKind       `json:"kind"`
	Position int             `json:"position"`
	ItemRef  string          `json:"item_ref"`
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason"`
}

// Display renders the issue the way review screens list unmatched items
func (i Issue) Display() string {
	return fmt.Sprintf("%s (qty: %s)", i.ItemRef, i.Quantity.String())
}

// Fatal and policy errors
var (
	ErrEmptyRateCard    = shared.NewDomainError("EMPTY_RATE_CARD", "Rate card has no active items; add rate items before creating invoices")
	ErrInvalidTaxRate   = shared.NewDomainError("INVALID_TAX_RATE", "Tax rate must be between 0 and 1 and have a name")
	ErrUnresolvedItems  = shared.NewDomainError("UNRESOLVED_ITEMS", "Draft still has unmatched or invalid items")
	ErrNoPricedItems    = shared.NewDomainError("NO_PRICED_ITEMS", "Draft has no priced line items")
	ErrInvalidDraftMove = shared.NewDomainError("INVALID_TRANSITION", "Draft cannot move to the requested state")
	ErrDraftFrozen      = shared.NewDomainError("DRAFT_FROZEN", "Draft has been confirmed and can no longer change")
)
