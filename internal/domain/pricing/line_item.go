package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartinvoice/backend/internal/domain/ratecard"
	"github.com/smartinvoice/backend/internal/domain/shared/strategy"
)

// LineStatus is the resolution outcome of one extracted item
type LineStatus string

const (
	LineStatusMatched         LineStatus = "matched"
	LineStatusUnmatched       LineStatus = "unmatched"
	LineStatusInvalidQuantity LineStatus = "invalid_quantity"
)

// Unmatched reasons
const (
	ReasonNoMatch      = "no_match"
	ReasonUnitMismatch = "unit_mismatch"
	ReasonBadQuantity  = "quantity_not_positive"
)

// ResolvedLineItem is an extracted item after matching and pricing.
// For unmatched and invalid lines UnitPrice and LineTotal are zero.
type ResolvedLineItem struct {
	Position    int                  `json:"position"`
	ItemRef     string               `json:"item_ref"`
	Quantity    decimal.Decimal      `json:"quantity"`
	Notes       string               `json:"notes,omitempty"`
	Status      LineStatus           `json:"status"`
	Reason      string               `json:"reason,omitempty"`
	RateItemID  *uuid.UUID           `json:"rate_item_id,omitempty"`
	Name        string               `json:"name,omitempty"`
	Description string               `json:"description,omitempty"`
	Category    ratecard.Category    `json:"category,omitempty"`
	Unit        ratecard.Unit        `json:"unit,omitempty"`
	UnitPrice   decimal.Decimal      `json:"unit_price"`
	LineTotal   decimal.Decimal      `json:"line_total"`
	MatchMethod strategy.MatchMethod `json:"match_method,omitempty"`
	MatchScore  float64              `json:"match_score,omitempty"`
}

// IsMatched reports whether the line contributes to the subtotal
func (l ResolvedLineItem) IsMatched() bool {
	return l.Status == LineStatusMatched
}
