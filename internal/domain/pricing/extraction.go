package pricing

import (
	"github.com/shopspring/decimal"
)

// ExtractedItem is one line proposed by the extraction step.
// It is untrusted input and deliberately has no price: every amount on a draft
// is taken from the rate card snapshot.
type ExtractedItem struct {
	ItemRef  string          `json:"item_ref"`
	Quantity decimal.Decimal `json:"quantity"`
	// Unit is an optional hint of the unit the quantity is expressed in
	Unit  string `json:"unit,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// Extraction is the full result of reading a work description
type Extraction struct {
	Items          []ExtractedItem `json:"items"`
	ClientNameHint string          `json:"client_name_hint,omitempty"`
	// WorkDateHint is an ISO date (YYYY-MM-DD) as reported by the extractor
	WorkDateHint string `json:"work_date_hint,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Hints is optional metadata forwarded from the extraction.
// None of it carries a financial guarantee.
type Hints struct {
	ClientName string `json:"client_name,omitempty"`
	WorkDate   string `json:"work_date,omitempty"`
	Notes      string `json:"notes,omitempty"`
}
