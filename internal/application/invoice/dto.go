package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartinvoice/backend/internal/domain/invoice"
)

// InvoiceListFilter represents filter options for invoice lists
type InvoiceListFilter struct {
	Search   string     `form:"search"`
	Status   string     `form:"status" binding:"omitempty,oneof=draft sent partial paid overdue"`
	ClientID *uuid.UUID `form:"client_id"`
	From     *time.Time `form:"from" time_format:"2006-01-02"`
	To       *time.Time `form:"to" time_format:"2006-01-02"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SendInvoiceRequest marks an invoice as delivered
type SendInvoiceRequest struct {
	To string `json:"to" binding:"omitempty,max=200"`
}

// RecordPaymentRequest applies money received against an invoice
type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required,decimal_places=2"`
	Method    string          `json:"method" binding:"max=50"`
	Reference string          `json:"reference" binding:"max=100"`
	PaidAt    *time.Time      `json:"paid_at"`
}

// InvoiceLineResponse is a frozen line in API responses
type InvoiceLineResponse struct {
	SortOrder   int             `json:"sort_order"`
	RateItemID  uuid.UUID       `json:"rate_item_id"`
	ItemRef     string          `json:"item_ref"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Notes       string          `json:"notes,omitempty"`
}

// TaxLineResponse is a frozen tax amount in API responses
type TaxLineResponse struct {
	Name        string          `json:"name"`
	Rate        decimal.Decimal `json:"rate"`
	Compounding bool            `json:"compounding"`
	Base        decimal.Decimal `json:"base"`
	Amount      decimal.Decimal `json:"amount"`
}

// PaymentResponse is a recorded payment in API responses
type PaymentResponse struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method,omitempty"`
	Reference string          `json:"reference,omitempty"`
	PaidAt    time.Time       `json:"paid_at"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID          uuid.UUID             `json:"id"`
	Number      string                `json:"number"`
	Status      string                `json:"status"`
	DraftID     uuid.UUID             `json:"draft_id"`
	SnapshotID  uuid.UUID             `json:"snapshot_id"`
	ClientID    *uuid.UUID            `json:"client_id,omitempty"`
	ClientName  string                `json:"client_name"`
	WorkDate    *time.Time            `json:"work_date,omitempty"`
	InvoiceDate time.Time             `json:"invoice_date"`
	DueDate     time.Time             `json:"due_date"`
	Currency    string                `json:"currency"`
	Subtotal    decimal.Decimal       `json:"subtotal"`
	TaxTotal    decimal.Decimal       `json:"tax_total"`
	Total       decimal.Decimal       `json:"total"`
	AmountPaid  decimal.Decimal       `json:"amount_paid"`
	Balance     decimal.Decimal       `json:"balance"`
	Notes       string                `json:"notes,omitempty"`
	Lines       []InvoiceLineResponse `json:"lines"`
	Taxes       []TaxLineResponse     `json:"taxes"`
	Payments    []PaymentResponse     `json:"payments"`
	SentAt      *time.Time            `json:"sent_at,omitempty"`
	SentTo      string                `json:"sent_to,omitempty"`
	PaidAt      *time.Time            `json:"paid_at,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Version     int                   `json:"version"`
}

// InvoiceListResponse is the summary row of an invoice list
type InvoiceListResponse struct {
	ID          uuid.UUID       `json:"id"`
	Number      string          `json:"number"`
	Status      string          `json:"status"`
	ClientName  string          `json:"client_name"`
	InvoiceDate time.Time       `json:"invoice_date"`
	DueDate     time.Time       `json:"due_date"`
	Currency    string          `json:"currency"`
	Total       decimal.Decimal `json:"total"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	Balance     decimal.Decimal `json:"balance"`
}

// ExportResult is a rendered export, optionally mirrored to object storage
type ExportResult struct {
	Filename    string     `json:"filename"`
	ContentType string     `json:"content_type"`
	Count       int        `json:"count"`
	Data        []byte     `json:"-"`
	StorageKey  string     `json:"storage_key,omitempty"`
	DownloadURL string     `json:"download_url,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// ArchiveLink points at the archived JSON copy of an invoice
type ArchiveLink struct {
	Key         string    `json:"key"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ToInvoiceResponse converts a domain Invoice to InvoiceResponse
func ToInvoiceResponse(inv *invoice.Invoice) InvoiceResponse {
	lines := make([]InvoiceLineResponse, len(inv.Lines))
	for i, l := range inv.Lines {
		lines[i] = InvoiceLineResponse{
			SortOrder:   l.SortOrder,
			RateItemID:  l.RateItemID,
			ItemRef:     l.ItemRef,
			Description: l.Description,
			Category:    string(l.Category),
			Quantity:    l.Quantity,
			Unit:        string(l.Unit),
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
			Notes:       l.Notes,
		}
	}
	taxes := make([]TaxLineResponse, len(inv.Taxes))
	for i, t := range inv.Taxes {
		taxes[i] = TaxLineResponse{Name: t.Name, Rate: t.Rate, Compounding: t.Compounding, Base: t.Base, Amount: t.Amount}
	}
	payments := make([]PaymentResponse, len(inv.Payments))
	for i, p := range inv.Payments {
		payments[i] = PaymentResponse{ID: p.ID, Amount: p.Amount, Method: p.Method, Reference: p.Reference, PaidAt: p.PaidAt}
	}

	return InvoiceResponse{
		ID:          inv.ID,
		Number:      inv.Number,
		Status:      inv.Status.String(),
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
		Balance:     inv.Balance(),
		Notes:       inv.Notes,
		Lines:       lines,
		Taxes:       taxes,
		Payments:    payments,
		SentAt:      inv.SentAt,
		SentTo:      inv.SentTo,
		PaidAt:      inv.PaidAt,
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
		Version:     inv.Version,
	}
}

// ToInvoiceListResponse converts a domain Invoice to its list row
func ToInvoiceListResponse(inv *invoice.Invoice) InvoiceListResponse {
	return InvoiceListResponse{
		ID:          inv.ID,
		Number:      inv.Number,
		Status:      inv.Status.String(),
		ClientName:  inv.ClientName,
		InvoiceDate: inv.InvoiceDate,
		DueDate:     inv.DueDate,
		Currency:    inv.Currency,
		Total:       inv.Total,
		AmountPaid:  inv.AmountPaid,
		Balance:     inv.Balance(),
	}
}
