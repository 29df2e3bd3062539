package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/domain/ratecard"
)

// DraftState is the review state of a draft
type DraftState string

const (
	DraftStateExtracted        DraftState = "extracted"
	DraftStateResolved         DraftState = "resolved"
	DraftStateReviewedAccepted DraftState = "reviewed_accepted"
	DraftStateReviewedEdited   DraftState = "reviewed_edited"
	DraftStateConfirmed        DraftState = "confirmed"
)

var draftTransitions = map[DraftState][]DraftState{
	DraftStateExtracted:        {DraftStateResolved},
	DraftStateResolved:         {DraftStateReviewedAccepted, DraftStateReviewedEdited},
	DraftStateReviewedAccepted: {DraftStateResolved, DraftStateConfirmed},
	DraftStateReviewedEdited:   {DraftStateResolved, DraftStateReviewedAccepted, DraftStateConfirmed},
	DraftStateConfirmed:        {},
}

// CanTransitionTo reports whether next is reachable from s in one step
func (s DraftState) CanTransitionTo(next DraftState) bool {
	for _, allowed := range draftTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsValid returns true if the state is known
func (s DraftState) IsValid() bool {
	_, ok := draftTransitions[s]
	return ok
}

// DraftSource records how the extraction was produced
type DraftSource string

const (
	DraftSourceLLM    DraftSource = "llm"
	DraftSourceManual DraftSource = "manual"
)

// Draft is a reviewable invoice proposal. It keeps the snapshot it was first
// resolved against, so edits are re-priced with the same prices the user saw.
type Draft struct {
	ID              uuid.UUID           `json:"id"`
	OwnerID         uuid.UUID           `json:"owner_id"`
	State           DraftState          `json:"state"`
	Source          DraftSource         `json:"source"`
	WorkDescription string              `json:"work_description,omitempty"`
	Snapshot        *ratecard.Snapshot  `json:"snapshot"`
	Taxes           []TaxRate           `json:"taxes"`
	Extraction      Extraction          `json:"extraction"`
	Priced          *PricedInvoiceDraft `json:"priced,omitempty"`
	ClientID        *uuid.UUID          `json:"client_id,omitempty"`
	InvoiceID       *uuid.UUID          `json:"invoice_id,omitempty"`
	InvoiceNumber   string              `json:"invoice_number,omitempty"`
	Edits           int                 `json:"edits"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// NewDraft creates a draft in the extracted state
func NewDraft(ownerID uuid.UUID, source DraftSource, description string, snap *ratecard.Snapshot, taxes []TaxRate, extraction Extraction) *Draft {
	now := time.Now()
	copied := make([]TaxRate, len(taxes))
	copy(copied, taxes)
	return &Draft{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		State:           DraftStateExtracted,
		Source:          source,
		WorkDescription: description,
		Snapshot:        snap,
		Taxes:           copied,
		Extraction:      extraction,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (d *Draft) moveTo(next DraftState) error {
	if d.State == DraftStateConfirmed {
		return ErrDraftFrozen
	}
	if !d.State.CanTransitionTo(next) {
		return ErrInvalidDraftMove
	}
	d.State = next
	d.UpdatedAt = time.Now()
	return nil
}

// Resolve prices the current extraction against the stored snapshot
func (d *Draft) Resolve(ctx context.Context, p Pricer) error {
	if d.State == DraftStateConfirmed {
		return ErrDraftFrozen
	}
	if !d.State.CanTransitionTo(DraftStateResolved) {
		return ErrInvalidDraftMove
	}
	priced, err := p.Price(ctx, d.Snapshot, d.Extraction, d.Taxes)
	if err != nil {
		return err
	}
	d.Priced = priced
	return d.moveTo(DraftStateResolved)
}

// Accept marks the resolved draft as reviewed without changes
func (d *Draft) Accept() error {
	return d.moveTo(DraftStateReviewedAccepted)
}

// Edit replaces the extraction and re-resolves it against the original snapshot.
// The draft passes through resolved and ends in reviewed_edited.
func (d *Draft) Edit(ctx context.Context, p Pricer, extraction Extraction) error {
	if d.State == DraftStateConfirmed {
		return ErrDraftFrozen
	}
	if d.State != DraftStateResolved && !d.State.CanTransitionTo(DraftStateResolved) {
		return ErrInvalidDraftMove
	}
	priced, err := p.Price(ctx, d.Snapshot, extraction, d.Taxes)
	if err != nil {
		return err
	}
	d.Extraction = extraction
	d.Priced = priced
	d.State = DraftStateResolved
	d.Edits++
	return d.moveTo(DraftStateReviewedEdited)
}

// AssignClient links the draft to a client record
func (d *Draft) AssignClient(clientID uuid.UUID) error {
	if d.State == DraftStateConfirmed {
		return ErrDraftFrozen
	}
	d.ClientID = &clientID
	d.UpdatedAt = time.Now()
	return nil
}

// CheckConfirmable validates the draft can be frozen into an invoice
func (d *Draft) CheckConfirmable(requireFullResolution bool) error {
	if d.State == DraftStateConfirmed {
		return ErrDraftFrozen
	}
	if !d.State.CanTransitionTo(DraftStateConfirmed) || d.Priced == nil {
		return ErrInvalidDraftMove
	}
	if requireFullResolution && !d.Priced.FullyResolved() {
		return ErrUnresolvedItems
	}
	if len(d.Priced.MatchedLines()) == 0 {
		return ErrNoPricedItems
	}
	return nil
}

// MarkConfirmed freezes the draft and records the invoice it produced
func (d *Draft) MarkConfirmed(invoiceID uuid.UUID, number string) error {
	if err := d.moveTo(DraftStateConfirmed); err != nil {
		return err
	}
	d.InvoiceID = &invoiceID
	d.InvoiceNumber = number
	return nil
}

// IsFrozen reports whether the draft is confirmed
func (d *Draft) IsFrozen() bool {
	return d.State == DraftStateConfirmed
}
