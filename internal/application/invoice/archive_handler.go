package invoice

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/domain/invoice"
	"github.com/smartinvoice/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ArchiveKey is the object key of an invoice's archived JSON copy
func ArchiveKey(ownerID uuid.UUID, number string) string {
	return fmt.Sprintf("invoices/%s/%s.json", ownerID, number)
}

// ArchiveDocument is the JSON written to object storage
type ArchiveDocument struct {
	SchemaVersion int             `json:"schema_version"`
	ArchivedAt    time.Time       `json:"archived_at"`
	Invoice       InvoiceResponse `json:"invoice"`
}

// InvoiceArchiveHandler handles InvoiceConfirmedEvent by writing the frozen
// invoice to object storage.
type InvoiceArchiveHandler struct {
	repo    invoice.InvoiceRepository
	storage ObjectStorage
	logger  *zap.Logger
}

// NewInvoiceArchiveHandler creates a new archive handler
func NewInvoiceArchiveHandler(repo invoice.InvoiceRepository, storage ObjectStorage, logger *zap.Logger) *InvoiceArchiveHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceArchiveHandler{repo: repo, storage: storage, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *InvoiceArchiveHandler) EventTypes() []string {
	return []string{invoice.EventTypeInvoiceConfirmed}
}

// Handle stores the archive. Re-delivery overwrites the same key with the same content.
func (h *InvoiceArchiveHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	confirmed, ok := event.(*invoice.InvoiceConfirmedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			invoice.EventTypeInvoiceConfirmed, event.EventType())
	}

	inv, err := h.repo.FindByIDForOwner(ctx, confirmed.OwnerID(), confirmed.InvoiceID)
	if err != nil {
		return fmt.Errorf("load invoice %s: %w", confirmed.InvoiceNumber, err)
	}

	data, err := json.Marshal(ArchiveDocument{
		SchemaVersion: 1,
		ArchivedAt:    time.Now().UTC(),
		Invoice:       ToInvoiceResponse(inv),
	})
	if err != nil {
		return fmt.Errorf("encode invoice %s: %w", inv.Number, err)
	}

	key := ArchiveKey(inv.OwnerID, inv.Number)
	if err := h.storage.Upload(ctx, key, data, "application/json"); err != nil {
		return fmt.Errorf("upload archive %s: %w", key, err)
	}

	h.logger.Info("invoice archived",
		zap.String("invoice_number", inv.Number),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return nil
}

var _ shared.EventHandler = (*InvoiceArchiveHandler)(nil)
