package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartinvoice/backend/internal/domain/invoice"
	"github.com/smartinvoice/backend/internal/domain/ratecard"
)

// InvoiceModel is the persistence model for the Invoice aggregate.
type InvoiceModel struct {
	OwnedAggregateModel
	Number      string                `gorm:"type:varchar(20);not null"`
	Status      invoice.Status        `gorm:"type:varchar(20);not null;default:'draft';index"`
	DraftID     uuid.UUID             `gorm:"type:uuid;not null"`
	SnapshotID  uuid.UUID             `gorm:"type:uuid;not null"`
	ClientID    *uuid.UUID            `gorm:"type:uuid;index"`
	ClientName  string                `gorm:"type:varchar(200)"`
	WorkDate    *time.Time            `gorm:"type:date"`
	InvoiceDate time.Time             `gorm:"type:date;not null"`
	DueDate     time.Time             `gorm:"type:date;not null;index"`
	Currency    string                `gorm:"type:varchar(3);not null"`
	Subtotal    decimal.Decimal       `gorm:"type:decimal(14,2);not null"`
	TaxTotal    decimal.Decimal       `gorm:"type:decimal(14,2);not null"`
	Total       decimal.Decimal       `gorm:"type:decimal(14,2);not null"`
	AmountPaid  decimal.Decimal       `gorm:"type:decimal(14,2);not null;default:0"`
	Notes       string                `gorm:"type:text"`
	SentAt      *time.Time
	SentTo      string                `gorm:"type:varchar(200)"`
	PaidAt      *time.Time
	Lines       []InvoiceLineModel    `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Taxes       []InvoiceTaxModel     `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Payments    []InvoicePaymentModel `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceLineModel is a frozen invoice line
type InvoiceLineModel struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"`
	InvoiceID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	SortOrder   int               `gorm:"not null"`
	RateItemID  uuid.UUID         `gorm:"type:uuid;not null"`
	ItemRef     string            `gorm:"type:varchar(200);not null"`
	Description string            `gorm:"type:varchar(200);not null"`
	Category    ratecard.Category `gorm:"type:varchar(20);not null"`
	Quantity    decimal.Decimal   `gorm:"type:decimal(14,4);not null"`
	Unit        ratecard.Unit     `gorm:"type:varchar(20);not null"`
	UnitPrice   decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	LineTotal   decimal.Decimal   `gorm:"type:decimal(14,2);not null"`
	Notes       string            `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// InvoiceTaxModel is a frozen tax amount
type InvoiceTaxModel struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	SortOrder   int             `gorm:"not null"`
	Name        string          `gorm:"type:varchar(50);not null"`
	Rate        decimal.Decimal `gorm:"type:decimal(7,6);not null"`
	Compounding bool            `gorm:"not null;default:false"`
	Base        decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
}

// TableName returns the table name for GORM
func (InvoiceTaxModel) TableName() string {
	return "invoice_taxes"
}

// InvoicePaymentModel is a payment received against an invoice
type InvoicePaymentModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Method    string          `gorm:"type:varchar(50)"`
	Reference string          `gorm:"type:varchar(200)"`
	PaidAt    time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoicePaymentModel) TableName() string {
	return "invoice_payments"
}

// InvoiceCounterModel holds the last number issued to an owner in a year
type InvoiceCounterModel struct {
	OwnerID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Year      int       `gorm:"primaryKey;autoIncrement:false"`
	LastSeq   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceCounterModel) TableName() string {
	return "invoice_counters"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *invoice.Invoice {
	inv := &invoice.Invoice{
		OwnedAggregateRoot: m.ToOwnedAggregateRoot(),
		Number:             m.Number,
		Status:             m.Status,
		DraftID:            m.DraftID,
		SnapshotID:         m.SnapshotID,
		ClientID:           m.ClientID,
		ClientName:         m.ClientName,
		WorkDate:           m.WorkDate,
		InvoiceDate:        m.InvoiceDate,
		DueDate:            m.DueDate,
		Currency:           m.Currency,
		Subtotal:           m.Subtotal,
		TaxTotal:           m.TaxTotal,
		Total:              m.Total,
		AmountPaid:         m.AmountPaid,
		Notes:              m.Notes,
		SentAt:             m.SentAt,
		SentTo:             m.SentTo,
		PaidAt:             m.PaidAt,
		Lines:              make([]invoice.LineItem, len(m.Lines)),
		Taxes:              make([]invoice.TaxLine, len(m.Taxes)),
		Payments:           make([]invoice.Payment, len(m.Payments)),
	}
	for i, l := range m.Lines {
		inv.Lines[i] = invoice.LineItem{
			ID:          l.ID,
			SortOrder:   l.SortOrder,
			RateItemID:  l.RateItemID,
			ItemRef:     l.ItemRef,
			Description: l.Description,
			Category:    l.Category,
			Quantity:    l.Quantity,
			Unit:        l.Unit,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
			Notes:       l.Notes,
		}
	}
	for i, t := range m.Taxes {
		inv.Taxes[i] = invoice.TaxLine{
			SortOrder:   t.SortOrder,
			Name:        t.Name,
			Rate:        t.Rate,
			Compounding: t.Compounding,
			Base:        t.Base,
			Amount:      t.Amount,
		}
	}
	for i, p := range m.Payments {
		inv.Payments[i] = invoice.Payment{
			ID:        p.ID,
			Amount:    p.Amount,
			Method:    p.Method,
			Reference: p.Reference,
			PaidAt:    p.PaidAt,
		}
	}
	return inv
}

// InvoiceModelFromDomain creates a persistence model, children included
func InvoiceModelFromDomain(inv *invoice.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		Number:      inv.Number,
		Status:      inv.Status,
		DraftID:     inv.DraftID,
		SnapshotID:  inv.SnapshotID,
		ClientID:    inv.ClientID,
		ClientName:  inv.ClientName,
		WorkDate:    inv.WorkDate,
		InvoiceDate: inv.InvoiceDate,
		DueDate:     inv.DueDate,
		Currency:    inv.Currency,
		Subtotal:    inv.Subtotal,
		TaxTotal:    inv.TaxTotal,
		Total:       inv.Total,
		AmountPaid:  inv.AmountPaid,
		Notes:       inv.Notes,
		SentAt:      inv.SentAt,
		SentTo:      inv.SentTo,
		PaidAt:      inv.PaidAt,
		Lines:       make([]InvoiceLineModel, len(inv.Lines)),
		Taxes:       make([]InvoiceTaxModel, len(inv.Taxes)),
		Payments:    PaymentModelsFromDomain(inv.ID, inv.Payments),
	}
	m.FromDomainOwnedAggregateRoot(inv.OwnedAggregateRoot)
	for i, l := range inv.Lines {
		m.Lines[i] = InvoiceLineModel{
			ID:          l.ID,
			InvoiceID:   inv.ID,
			SortOrder:   l.SortOrder,
			RateItemID:  l.RateItemID,
			ItemRef:     l.ItemRef,
			Description: l.Description,
			Category:    l.Category,
			Quantity:    l.Quantity,
			Unit:        l.Unit,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
			Notes:       l.Notes,
		}
	}
	for i, t := range inv.Taxes {
		m.Taxes[i] = InvoiceTaxModel{
			InvoiceID:   inv.ID,
			SortOrder:   t.SortOrder,
			Name:        t.Name,
			Rate:        t.Rate,
			Compounding: t.Compounding,
			Base:        t.Base,
			Amount:      t.Amount,
		}
	}
	return m
}

// PaymentModelsFromDomain converts payments of one invoice
func PaymentModelsFromDomain(invoiceID uuid.UUID, payments []invoice.Payment) []InvoicePaymentModel {
	out := make([]InvoicePaymentModel, len(payments))
	for i, p := range payments {
		out[i] = InvoicePaymentModel{
			ID:        p.ID,
			InvoiceID: invoiceID,
			Amount:    p.Amount,
			Method:    p.Method,
			Reference: p.Reference,
			PaidAt:    p.PaidAt,
		}
	}
	return out
}

// AllModels lists every model, for AutoMigrate on SQLite
func AllModels() []any {
	return []any{
		&RateItemModel{},
		&ClientModel{},
		&BusinessSettingsModel{},
		&InvoiceModel{},
		&InvoiceLineModel{},
		&InvoiceTaxModel{},
		&InvoicePaymentModel{},
		&InvoiceCounterModel{},
	}
}
