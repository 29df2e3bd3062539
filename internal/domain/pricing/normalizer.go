package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/smartinvoice/backend/internal/domain/ratecard"
)

// QuantityPlaces matches the precision of stored line quantities
const QuantityPlaces int32 = 4

// QuantityNormalizer validates extracted quantities against the matched unit.
// It never converts between units.
type QuantityNormalizer struct{}

// Normalize returns the quantity to price, rounded to QuantityPlaces, and the
// resulting line status.
// A non-positive quantity gives LineStatusInvalidQuantity. A unit hint that names
// a different known unit gives LineStatusUnmatched, since the quantity cannot be
// trusted to be in the item's unit. Unknown hints are ignored.
func (QuantityNormalizer) Normalize(item ExtractedItem, unit ratecard.Unit) (decimal.Decimal, LineStatus, string) {
	qty := item.Quantity.Round(QuantityPlaces)
	if !qty.IsPositive() {
		return decimal.Zero, LineStatusInvalidQuantity, ReasonBadQuantity
	}
	if item.Unit != "" {
		if hinted, ok := ratecard.ParseUnit(item.Unit); ok && hinted != unit {
			return decimal.Zero, LineStatusUnmatched, ReasonUnitMismatch
		}
	}
	return qty, LineStatusMatched, ""
}
