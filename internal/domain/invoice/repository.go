package invoice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/domain/shared"
)

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByIDForOwner finds an invoice with lines, taxes and payments
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*Invoice, error)

	// FindByNumber finds an invoice by its number within an owner
	FindByNumber(ctx context.Context, ownerID uuid.UUID, number string) (*Invoice, error)

	// FindByDraftID finds the invoice produced from a draft
	FindByDraftID(ctx context.Context, ownerID, draftID uuid.UUID) (*Invoice, error)

	// FindAllForOwner lists invoices without payments.
	// Supported filters: "status", "client_id".
	FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]Invoice, error)

	// CountForOwner counts invoices matching the filter
	CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error)

	// FindPastDue returns sent or partial invoices of all owners whose due date is before asOf
	FindPastDue(ctx context.Context, asOf time.Time, limit int) ([]Invoice, error)

	// CreateWithNextNumber allocates the owner's next number for the invoice year,
	// assigns it and inserts the invoice in a single transaction. Concurrent callers
	// never receive the same number.
	CreateWithNextNumber(ctx context.Context, inv *Invoice) error

	// Save updates status, payments and delivery fields of an existing invoice
	Save(ctx context.Context, inv *Invoice) error
}
