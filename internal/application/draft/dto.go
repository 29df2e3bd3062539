package draft

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	settingsapp "github.com/smartinvoice/backend/internal/application/settings"
	"github.com/smartinvoice/backend/internal/domain/pricing"
)

// ExtractedItemDTO is one proposed line. It has no price field: amounts always
// come from the rate card.
type ExtractedItemDTO struct {
	ItemRef  string          `json:"item_ref" binding:"required,min=1,max=200"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit" binding:"max=30"`
	Notes    string          `json:"notes" binding:"max=500"`
}

// CreateDraftRequest starts a draft from a work description or explicit items.
// When Items is empty the description is sent to the extractor.
type CreateDraftRequest struct {
	WorkDescription string             `json:"work_description" binding:"max=10000"`
	Items           []ExtractedItemDTO `json:"items" binding:"omitempty,max=100,dive"`
	ClientID        *uuid.UUID         `json:"client_id"`
	ClientNameHint  string             `json:"client_name_hint" binding:"max=200"`
	WorkDateHint    string             `json:"work_date_hint" binding:"omitempty,datetime=2006-01-02"`
	Notes           string             `json:"notes" binding:"max=2000"`
	Strategy        string             `json:"strategy" binding:"max=50"`
}

// EditDraftRequest replaces the extraction of a draft
type EditDraftRequest struct {
	Items          []ExtractedItemDTO `json:"items" binding:"required,max=100,dive"`
	ClientID       *uuid.UUID         `json:"client_id"`
	ClientNameHint *string            `json:"client_name_hint" binding:"omitempty,max=200"`
	WorkDateHint   *string            `json:"work_date_hint" binding:"omitempty,datetime=2006-01-02"`
	Notes          *string            `json:"notes" binding:"omitempty,max=2000"`
}

// ConfirmDraftRequest freezes a draft into an invoice
type ConfirmDraftRequest struct {
	ClientID    *uuid.UUID `json:"client_id"`
	InvoiceDate *time.Time `json:"invoice_date"`
}

// QuoteRateItem is a rate card row supplied inline to a quote
type QuoteRateItem struct {
	Name      string          `json:"name" binding:"required,min=1,max=200"`
	Category  string          `json:"category" binding:"omitempty,oneof=labor materials other"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Unit      string          `json:"unit" binding:"omitempty,max=30"`
	Aliases   []string        `json:"aliases" binding:"omitempty,max=20,dive,max=200"`
}

// QuoteRequest prices items against an explicit rate card without storing anything
type QuoteRequest struct {
	RateCard []QuoteRateItem          `json:"rate_card" binding:"max=500,dive"`
	Items    []ExtractedItemDTO       `json:"items" binding:"max=100,dive"`
	Taxes    []settingsapp.TaxRateDTO `json:"taxes" binding:"max=5,dive"`
	Strategy string                   `json:"strategy" binding:"max=50"`
}

// DraftResponse represents a draft in API responses
type DraftResponse struct {
	ID              uuid.UUID                   `json:"id"`
	State           string                      `json:"state"`
	Source          string                      `json:"source"`
	WorkDescription string                      `json:"work_description,omitempty"`
	ClientID        *uuid.UUID                  `json:"client_id,omitempty"`
	InvoiceID       *uuid.UUID                  `json:"invoice_id,omitempty"`
	InvoiceNumber   string                      `json:"invoice_number,omitempty"`
	Edits           int                         `json:"edits"`
	Extraction      pricing.Extraction          `json:"extraction"`
	Priced          *pricing.PricedInvoiceDraft `json:"priced"`
	FullyResolved   bool                        `json:"fully_resolved"`
	Confirmable     bool                        `json:"confirmable"`
	NeedsReview     []string                    `json:"needs_review,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
}

func toExtraction(items []ExtractedItemDTO, clientHint, workDate, notes string) pricing.Extraction {
	out := pricing.Extraction{
		Items:          make([]pricing.ExtractedItem, len(items)),
		ClientNameHint: clientHint,
		WorkDateHint:   workDate,
		Notes:          notes,
	}
	for i, it := range items {
		out.Items[i] = pricing.ExtractedItem{ItemRef: it.ItemRef, Quantity: it.Quantity, Unit: it.Unit, Notes: it.Notes}
	}
	return out
}

// ToDraftResponse converts a domain Draft to DraftResponse
func ToDraftResponse(d *pricing.Draft, requireFullResolution bool) DraftResponse {
	resp := DraftResponse{
		ID:              d.ID,
		State:           string(d.State),
		Source:          string(d.Source),
		WorkDescription: d.WorkDescription,
		ClientID:        d.ClientID,
		InvoiceID:       d.InvoiceID,
		InvoiceNumber:   d.InvoiceNumber,
		Edits:           d.Edits,
		Extraction:      d.Extraction,
		Priced:          d.Priced,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.Priced != nil {
		resp.FullyResolved = d.Priced.FullyResolved()
		resp.Confirmable = d.CheckConfirmable(requireFullResolution) == nil
		for _, issue := range d.Priced.Issues {
			resp.NeedsReview = append(resp.NeedsReview, issue.Display())
		}
	}
	return resp
}
