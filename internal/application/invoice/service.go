// Package invoice holds the use cases of issued invoices: delivery, payments,
// overdue tracking, archiving and export.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/domain/invoice"
	"github.com/smartinvoice/backend/internal/domain/shared"
	"github.com/smartinvoice/backend/internal/domain/shared/valueobject"
	"go.uber.org/zap"
)

const (
	exportLimit        = 5000
	exportURLExpiresIn = time.Hour
	archiveURLExpires  = 15 * time.Minute
)

// InvoiceService handles invoice lifecycle operations
type InvoiceService struct {
	repo           invoice.InvoiceRepository
	eventPublisher shared.EventPublisher
	metrics        Metrics
	exporter       Exporter
	storage        ObjectStorage
	logger         *zap.Logger
	now            func() time.Time
}

// Option configures an InvoiceService
type Option func(*InvoiceService)

// WithEventPublisher publishes status and payment events
func WithEventPublisher(p shared.EventPublisher) Option {
	return func(s *InvoiceService) { s.eventPublisher = p }
}

// WithMetrics records payments and overdue sweeps
func WithMetrics(m Metrics) Option {
	return func(s *InvoiceService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithExporter enables invoice export
func WithExporter(e Exporter) Option {
	return func(s *InvoiceService) { s.exporter = e }
}

// WithObjectStorage mirrors exports and serves archive links
func WithObjectStorage(st ObjectStorage) Option {
	return func(s *InvoiceService) { s.storage = st }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *InvoiceService) { s.now = now }
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(repo invoice.InvoiceRepository, logger *zap.Logger, opts ...Option) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &InvoiceService{
		repo:    repo,
		metrics: noopMetrics{},
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetByID retrieves an invoice with lines, taxes and payments
func (s *InvoiceService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// GetByNumber retrieves an invoice by its YYYY-NNNN number
func (s *InvoiceService) GetByNumber(ctx context.Context, ownerID uuid.UUID, number string) (*InvoiceResponse, error) {
	if _, _, ok := invoice.ParseNumber(strings.TrimSpace(number)); !ok {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice number must look like YYYY-NNNN")
	}
	inv, err := s.repo.FindByNumber(ctx, ownerID, number)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// List retrieves invoice summaries
func (s *InvoiceService) List(ctx context.Context, ownerID uuid.UUID, filter InvoiceListFilter) ([]InvoiceListResponse, int64, error) {
	domainFilter := toDomainFilter(filter)

	invoices, err := s.repo.FindAllForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]InvoiceListResponse, len(invoices))
	for i := range invoices {
		responses[i] = ToInvoiceListResponse(&invoices[i])
	}
	return responses, total, nil
}

// Send marks an invoice as delivered
func (s *InvoiceService) Send(ctx context.Context, ownerID, id uuid.UUID, req SendInvoiceRequest) (*InvoiceResponse, error) {
	inv, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := inv.MarkSent(req.To, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, inv); err != nil {
		return nil, err
	}
	s.publish(ctx, inv)

	s.logger.Info("invoice sent",
		zap.String("owner_id", ownerID.String()),
		zap.String("invoice_number", inv.Number),
	)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// RecordPayment applies a payment; the invoice becomes partial or paid
func (s *InvoiceService) RecordPayment(ctx context.Context, ownerID, id uuid.UUID, req RecordPaymentRequest) (*InvoiceResponse, error) {
	inv, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	paidAt := s.now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	payment, err := inv.RecordPayment(req.Amount, req.Method, req.Reference, paidAt)
	if err != nil {
		s.logger.Warn("payment rejected",
			zap.String("invoice_number", inv.Number),
			zap.String("amount", req.Amount.String()),
			zap.Error(err),
		)
		return nil, err
	}
	if err := s.repo.Save(ctx, inv); err != nil {
		return nil, err
	}
	s.publish(ctx, inv)
	s.metrics.RecordPayment(ctx, inv.Status.String())

	s.logger.Info("payment recorded",
		zap.String("owner_id", ownerID.String()),
		zap.String("invoice_number", inv.Number),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", valueobject.FormatAmount(payment.Amount)),
		zap.String("status", inv.Status.String()),
	)
	resp := ToInvoiceResponse(inv)
	return &resp, nil
}

// MarkOverdue flags up to limit past-due invoices of every owner and returns
// how many were marked. Invoices changed concurrently are skipped and picked
// up again by the next sweep.
func (s *InvoiceService) MarkOverdue(ctx context.Context, asOf time.Time, limit int) (int, error) {
	due, err := s.repo.FindPastDue(ctx, asOf, limit)
	if err != nil {
		return 0, fmt.Errorf("find past due invoices: %w", err)
	}

	marked := 0
	for i := range due {
		inv := &due[i]
		if err := inv.MarkOverdue(asOf); err != nil {
			continue
		}
		if err := s.repo.Save(ctx, inv); err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				s.logger.Debug("invoice changed during overdue sweep", zap.String("invoice_number", inv.Number))
				continue
			}
			return marked, err
		}
		s.publish(ctx, inv)
		marked++
	}
	if marked > 0 {
		s.metrics.RecordOverdue(ctx, marked)
	}
	return marked, nil
}

// Export renders the filtered invoices with the configured exporter.
// When object storage is available the file is also uploaded and a
// time-limited download link is returned.
func (s *InvoiceService) Export(ctx context.Context, ownerID uuid.UUID, filter InvoiceListFilter) (*ExportResult, error) {
	if s.exporter == nil {
		return nil, shared.NewDomainError("EXPORT_UNAVAILABLE", "Invoice export is not configured")
	}
	domainFilter := toDomainFilter(filter)
	domainFilter.Page = 1
	domainFilter.PageSize = exportLimit

	invoices, err := s.repo.FindAllForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, err
	}
	data, err := s.exporter.Export(ctx, invoices)
	if err != nil {
		return nil, fmt.Errorf("render export: %w", err)
	}

	now := s.now().UTC()
	result := &ExportResult{
		Filename:    fmt.Sprintf("invoices-%s.%s", now.Format("20060102-150405"), s.exporter.FileExtension()),
		ContentType: s.exporter.ContentType(),
		Count:       len(invoices),
		Data:        data,
	}
	if s.storage == nil {
		return result, nil
	}

	key := fmt.Sprintf("exports/%s/%s", ownerID, result.Filename)
	if err := s.storage.Upload(ctx, key, data, result.ContentType); err != nil {
		s.logger.Warn("failed to store export", zap.String("key", key), zap.Error(err))
		return result, nil
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, exportURLExpiresIn)
	if err != nil {
		s.logger.Warn("failed to sign export url", zap.String("key", key), zap.Error(err))
		return result, nil
	}
	result.StorageKey = key
	result.DownloadURL = url
	result.ExpiresAt = &expiresAt
	return result, nil
}

// ArchiveLink returns a signed link to the archived JSON copy of an invoice
func (s *InvoiceService) ArchiveLink(ctx context.Context, ownerID, id uuid.UUID) (*ArchiveLink, error) {
	if s.storage == nil {
		return nil, shared.NewDomainError("ARCHIVE_UNAVAILABLE", "Invoice archive is not configured")
	}
	inv, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	key := ArchiveKey(inv.OwnerID, inv.Number)
	exists, err := s.storage.ObjectExists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice has not been archived yet")
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, archiveURLExpires)
	if err != nil {
		return nil, err
	}
	return &ArchiveLink{Key: key, DownloadURL: url, ExpiresAt: expiresAt}, nil
}

func (s *InvoiceService) publish(ctx context.Context, inv *invoice.Invoice) {
	events := inv.GetDomainEvents()
	inv.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish invoice events",
			zap.String("invoice_number", inv.Number),
			zap.Error(err),
		)
	}
}

func toDomainFilter(filter InvoiceListFilter) shared.Filter {
	f := shared.Filter{
		Search:   filter.Search,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]interface{}),
	}
	if f.OrderBy == "" {
		f.OrderBy = "invoice_date"
		f.OrderDir = "desc"
	}
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.ClientID != nil {
		f.Filters["client_id"] = *filter.ClientID
	}
	if filter.From != nil {
		f.Filters["from"] = *filter.From
	}
	if filter.To != nil {
		f.Filters["to"] = *filter.To
	}
	return f
}
