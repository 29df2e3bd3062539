package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartinvoice/backend/internal/domain/pricing"
	"github.com/smartinvoice/backend/internal/domain/ratecard"
	"github.com/smartinvoice/backend/internal/domain/shared"
	"github.com/smartinvoice/backend/internal/domain/shared/valueobject"
)

// Status represents the lifecycle status of an invoice
type Status string

const (
	StatusDraft   Status = "draft"
	StatusSent    Status = "sent"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// IsValid checks if the status is a valid invoice status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPartial, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// IsOutstanding reports whether money may still be owed
func (s Status) IsOutstanding() bool {
	return s != StatusPaid
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusSent
	case StatusSent:
		return target == StatusPartial || target == StatusPaid || target == StatusOverdue
	case StatusPartial:
		return target == StatusPaid || target == StatusOverdue
	case StatusOverdue:
		return target == StatusPartial || target == StatusPaid
	default:
		return false
	}
}

// LineItem is a frozen, priced invoice line
type LineItem struct {
	ID          uuid.UUID
	SortOrder   int
	RateItemID  uuid.UUID
	ItemRef     string
	Description string
	Category    ratecard.Category
	Quantity    decimal.Decimal
	Unit        ratecard.Unit
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	Notes       string
}

// TaxLine is a frozen tax amount
type TaxLine struct {
	SortOrder   int
	Name        string
	Rate        decimal.Decimal
	Compounding bool
	Base        decimal.Decimal
	Amount      decimal.Decimal
}

// Payment is money received against an invoice
type Payment struct {
	ID        uuid.UUID
	Amount    decimal.Decimal
	Method    string
	Reference string
	PaidAt    time.Time
}

// Invoice is a confirmed draft with frozen lines and totals.
// Amounts never change after creation; only the status and payments evolve.
type Invoice struct {
	shared.OwnedAggregateRoot
	Number      string
	Status      Status
	DraftID     uuid.UUID
	SnapshotID  uuid.UUID
	ClientID    *uuid.UUID
	ClientName  string
	WorkDate    *time.Time
	InvoiceDate time.Time
	DueDate     time.Time
	Currency    string
	Subtotal    decimal.Decimal
	TaxTotal    decimal.Decimal
	Total       decimal.Decimal
	AmountPaid  decimal.Decimal
	Notes       string
	Lines       []LineItem
	Taxes       []TaxLine
	Payments    []Payment
	SentAt      *time.Time
	SentTo      string
	PaidAt      *time.Time
}

// ConfirmParams carries what the invoice needs beyond the draft itself
type ConfirmParams struct {
	Draft            *pricing.Draft
	ClientID         *uuid.UUID
	ClientName       string
	InvoiceDate      time.Time
	PaymentTermsDays int
	Currency         string
}

// DefaultPaymentTermsDays is used when the client has no terms of its own
const DefaultPaymentTermsDays = 30

// NewFromDraft freezes a reviewed draft into an invoice in draft status.
// The invoice number is assigned by the repository when the invoice is stored.
func NewFromDraft(p ConfirmParams) (*Invoice, error) {
	d := p.Draft
	if d == nil || d.Priced == nil {
		return nil, shared.NewDomainError("INVALID_DRAFT", "Draft has not been priced")
	}
	if p.InvoiceDate.IsZero() {
		p.InvoiceDate = time.Now()
	}
	if p.PaymentTermsDays <= 0 {
		p.PaymentTermsDays = DefaultPaymentTermsDays
	}
	invoiceDate := truncateDay(p.InvoiceDate)

	inv := &Invoice{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(d.OwnerID),
		Status:             StatusDraft,
		DraftID:            d.ID,
		SnapshotID:         d.Priced.SnapshotID,
		ClientID:           p.ClientID,
		ClientName:         strings.TrimSpace(p.ClientName),
		InvoiceDate:        invoiceDate,
		DueDate:            invoiceDate.AddDate(0, 0, p.PaymentTermsDays),
		Currency:           p.Currency,
		Subtotal:           d.Priced.Subtotal,
		TaxTotal:           d.Priced.TaxTotal,
		Total:              d.Priced.Total,
		AmountPaid:         decimal.Zero,
		Notes:              d.Priced.Hints.Notes,
	}
	if inv.ClientName == "" {
		inv.ClientName = d.Priced.Hints.ClientName
	}
	if wd, err := time.Parse("2006-01-02", d.Priced.Hints.WorkDate); err == nil {
		inv.WorkDate = &wd
	}

	for _, l := range d.Priced.MatchedLines() {
		inv.Lines = append(inv.Lines, LineItem{
			ID:          uuid.New(),
			SortOrder:   l.Position,
			RateItemID:  *l.RateItemID,
			ItemRef:     l.ItemRef,
			Description: l.Name,
			Category:    l.Category,
			Quantity:    l.Quantity,
			Unit:        l.Unit,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
			Notes:       l.Notes,
		})
	}
	if len(inv.Lines) == 0 {
		return nil, pricing.ErrNoPricedItems
	}
	for i, t := range d.Priced.Taxes {
		inv.Taxes = append(inv.Taxes, TaxLine{
			SortOrder:   i,
			Name:        t.Name,
			Rate:        t.Rate,
			Compounding: t.Compounding,
			Base:        t.Base,
			Amount:      t.Amount,
		})
	}

	inv.AddDomainEvent(NewInvoiceConfirmedEvent(inv))
	return inv, nil
}

// AssignNumber sets the sequential number allocated by the repository
func (i *Invoice) AssignNumber(number string) {
	i.Number = number
	for _, e := range i.GetDomainEvents() {
		if confirmed, ok := e.(*InvoiceConfirmedEvent); ok {
			confirmed.InvoiceNumber = number
		}
	}
}

// MarkSent records delivery of the invoice
func (i *Invoice) MarkSent(to string, at time.Time) error {
	if !i.Status.CanTransitionTo(StatusSent) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot send invoice in %s status", i.Status))
	}
	i.SentAt = &at
	i.SentTo = strings.TrimSpace(to)
	i.changeStatus(StatusSent)
	return nil
}

// Balance returns the amount still owed
func (i *Invoice) Balance() decimal.Decimal {
	return i.Total.Sub(i.AmountPaid)
}

// RecordPayment applies a payment, moving the invoice to partial or paid
func (i *Invoice) RecordPayment(amount decimal.Decimal, method, reference string, at time.Time) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !amount.Equal(amount.Round(2)) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount cannot have more than 2 decimal places")
	}
	if amount.GreaterThan(i.Balance()) {
		return nil, shared.NewDomainError("OVERPAYMENT", fmt.Sprintf("Payment exceeds outstanding balance of %s", valueobject.FormatAmount(i.Balance())))
	}

	target := StatusPartial
	if amount.Equal(i.Balance()) {
		target = StatusPaid
	}
	if !i.Status.CanTransitionTo(target) && i.Status != target {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record payment on invoice in %s status", i.Status))
	}

	payment := Payment{
		ID:        uuid.New(),
		Amount:    amount,
		Method:    strings.TrimSpace(method),
		Reference: strings.TrimSpace(reference),
		PaidAt:    at,
	}
	i.Payments = append(i.Payments, payment)
	i.AmountPaid = i.AmountPaid.Add(amount)
	if target == StatusPaid {
		i.PaidAt = &at
	}
	i.AddDomainEvent(NewInvoicePaymentRecordedEvent(i, payment))
	if i.Status != target {
		i.changeStatus(target)
	} else {
		i.UpdatedAt = time.Now()
		i.IncrementVersion()
	}
	return &payment, nil
}

// IsOverdueAt reports whether the due date passed without full payment
func (i *Invoice) IsOverdueAt(now time.Time) bool {
	return (i.Status == StatusSent || i.Status == StatusPartial) && truncateDay(now).After(i.DueDate)
}

// MarkOverdue flags an unpaid invoice past its due date
func (i *Invoice) MarkOverdue(now time.Time) error {
	if !i.IsOverdueAt(now) {
		return shared.NewDomainError("INVALID_STATE", "Invoice is not past due")
	}
	i.changeStatus(StatusOverdue)
	return nil
}

func (i *Invoice) changeStatus(target Status) {
	old := i.Status
	i.Status = target
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	i.AddDomainEvent(NewInvoiceStatusChangedEvent(i, old, target))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
