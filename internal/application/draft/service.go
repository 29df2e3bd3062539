// Package draft holds the invoice draft workflow: extraction, rate resolution,
// review and confirmation into a numbered invoice.
package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	invoiceapp "github.com/smartinvoice/backend/internal/application/invoice"
	settingsapp "github.com/smartinvoice/backend/internal/application/settings"
	"github.com/smartinvoice/backend/internal/domain/invoice"
	"github.com/smartinvoice/backend/internal/domain/pricing"
	"github.com/smartinvoice/backend/internal/domain/ratecard"
	"github.com/smartinvoice/backend/internal/domain/shared"
	"github.com/smartinvoice/backend/internal/domain/shared/valueobject"
	"github.com/smartinvoice/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Errors specific to the draft workflow
var (
	ErrExtractionUnavailable = shared.NewDomainError("EXTRACTION_UNAVAILABLE", "Work description parsing is not configured; provide items explicitly")
	ErrNothingToExtract      = shared.NewDomainError("INVALID_INPUT", "Provide a work description or at least one item")
	ErrConfirmInProgress     = shared.NewDomainError("CONCURRENCY_CONFLICT", "Draft confirmation is already in progress")
	ErrIdempotencyKeyReused  = shared.NewDomainError("IDEMPOTENCY_KEY_REUSED", "Idempotency key was already used for another draft")
)

// Config holds the draft workflow policy
type Config struct {
	MatchStrategy         string
	RequireFullResolution bool
	DraftTTL              time.Duration
	IdempotencyTTL        time.Duration
}

// DefaultConfig returns the default workflow policy
func DefaultConfig() Config {
	return Config{
		DraftTTL:       72 * time.Hour,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// DraftService coordinates drafts between extraction and invoicing
type DraftService struct {
	rateCards      SnapshotSource
	settings       SettingsSource
	clients        ClientDirectory
	strategies     StrategyResolver
	drafts         pricing.DraftStore
	invoices       invoice.InvoiceRepository
	extractor      Extractor
	idempotency    shared.IdempotencyStore
	eventPublisher shared.EventPublisher
	metrics        Metrics
	config         Config
	logger         *zap.Logger
}

// Option configures a DraftService
type Option func(*DraftService)

// WithExtractor enables parsing of free-text work descriptions
func WithExtractor(e Extractor) Option {
	return func(s *DraftService) { s.extractor = e }
}

// WithIdempotencyStore records Idempotency-Key headers of confirmations
func WithIdempotencyStore(store shared.IdempotencyStore) Option {
	return func(s *DraftService) { s.idempotency = store }
}

// WithEventPublisher publishes InvoiceConfirmed events
func WithEventPublisher(p shared.EventPublisher) Option {
	return func(s *DraftService) { s.eventPublisher = p }
}

// WithMetrics records pricing measurements
func WithMetrics(m Metrics) Option {
	return func(s *DraftService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewDraftService creates a new DraftService
func NewDraftService(
	rateCards SnapshotSource,
	settings SettingsSource,
	clients ClientDirectory,
	strategies StrategyResolver,
	drafts pricing.DraftStore,
	invoices invoice.InvoiceRepository,
	cfg Config,
	logger *zap.Logger,
	opts ...Option,
) *DraftService {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfig()
	if cfg.DraftTTL <= 0 {
		cfg.DraftTTL = defaults.DraftTTL
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = defaults.IdempotencyTTL
	}
	s := &DraftService{
		rateCards:  rateCards,
		settings:   settings,
		clients:    clients,
		strategies: strategies,
		drafts:     drafts,
		invoices:   invoices,
		metrics:    noopMetrics{},
		config:     cfg,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create snapshots the rate card, extracts items when none are given, prices
// them and stores the draft for review. An empty rate card fails with
// pricing.ErrEmptyRateCard before the extractor is called.
func (s *DraftService) Create(ctx context.Context, ownerID uuid.UUID, req CreateDraftRequest) (*DraftResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "draft", "create", telemetry.OwnerID(ownerID))
	defer span.End()

	snap, err := s.rateCards.Snapshot(ctx, ownerID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if snap.IsEmpty() {
		s.logger.Warn("draft rejected: empty rate card", zap.String("owner_id", ownerID.String()))
		return nil, pricing.ErrEmptyRateCard
	}

	extraction, source, err := s.extract(ctx, snap, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	bs, err := s.settings.Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	engine, err := s.engine(req.Strategy)
	if err != nil {
		return nil, err
	}

	d := pricing.NewDraft(ownerID, source, strings.TrimSpace(req.WorkDescription), snap, bs.Taxes, extraction)
	started := time.Now()
	if err := d.Resolve(ctx, engine); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.recordPriced(ctx, d, time.Since(started))

	if err := s.attachClient(ctx, d, req.ClientID); err != nil {
		return nil, err
	}
	if err := s.drafts.Put(ctx, d, s.config.DraftTTL); err != nil {
		return nil, fmt.Errorf("store draft: %w", err)
	}

	span.SetAttributes(
		telemetry.DraftID(d.ID),
		telemetry.SnapshotID(snap.ID),
		telemetry.ItemCount(len(extraction.Items)),
		telemetry.Strategy(d.Priced.Strategy),
	)
	s.logger.Info("draft created",
		zap.String("owner_id", ownerID.String()),
		zap.String("draft_id", d.ID.String()),
		zap.String("source", string(source)),
		zap.Int("items", len(extraction.Items)),
		zap.Int("unmatched", len(d.Priced.UnmatchedItems)),
		zap.Int("invalid", len(d.Priced.InvalidItems)),
	)
	resp := ToDraftResponse(d, s.config.RequireFullResolution)
	return &resp, nil
}

// Get returns a stored draft
func (s *DraftService) Get(ctx context.Context, ownerID, id uuid.UUID) (*DraftResponse, error) {
	d, err := s.drafts.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := ToDraftResponse(d, s.config.RequireFullResolution)
	return &resp, nil
}

// Edit replaces the draft's items and re-prices them against the snapshot the
// draft was created with, so rate card changes made meanwhile do not leak in.
func (s *DraftService) Edit(ctx context.Context, ownerID, id uuid.UUID, req EditDraftRequest) (*DraftResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "draft", "edit", telemetry.DraftID(id))
	defer span.End()

	d, err := s.drafts.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if d.IsFrozen() {
		return nil, pricing.ErrDraftFrozen
	}

	hint, workDate, notes := d.Extraction.ClientNameHint, d.Extraction.WorkDateHint, d.Extraction.Notes
	if req.ClientNameHint != nil {
		hint = *req.ClientNameHint
	}
	if req.WorkDateHint != nil {
		workDate = *req.WorkDateHint
	}
	if req.Notes != nil {
		notes = *req.Notes
	}

	engine, err := s.engine(d.Priced.Strategy)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	if err := d.Edit(ctx, engine, toExtraction(req.Items, hint, workDate, notes)); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.recordPriced(ctx, d, time.Since(started))

	if req.ClientID != nil {
		if err := s.attachClient(ctx, d, req.ClientID); err != nil {
			return nil, err
		}
	} else if req.ClientNameHint != nil && d.ClientID == nil {
		if err := s.attachClient(ctx, d, nil); err != nil {
			return nil, err
		}
	}
	if err := s.drafts.Put(ctx, d, s.config.DraftTTL); err != nil {
		return nil, fmt.Errorf("store draft: %w", err)
	}

	s.logger.Info("draft edited",
		zap.String("draft_id", d.ID.String()),
		zap.Int("edits", d.Edits),
		zap.Int("unmatched", len(d.Priced.UnmatchedItems)),
	)
	resp := ToDraftResponse(d, s.config.RequireFullResolution)
	return &resp, nil
}

// Accept marks the draft as reviewed without changes
func (s *DraftService) Accept(ctx context.Context, ownerID, id uuid.UUID) (*DraftResponse, error) {
	d, err := s.drafts.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := d.Accept(); err != nil {
		return nil, err
	}
	if err := s.drafts.Put(ctx, d, s.config.DraftTTL); err != nil {
		return nil, fmt.Errorf("store draft: %w", err)
	}
	s.logger.Info("draft accepted", zap.String("draft_id", d.ID.String()))
	resp := ToDraftResponse(d, s.config.RequireFullResolution)
	return &resp, nil
}

// Discard deletes a draft that has not been confirmed
func (s *DraftService) Discard(ctx context.Context, ownerID, id uuid.UUID) error {
	d, err := s.drafts.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if d.IsFrozen() {
		return pricing.ErrDraftFrozen
	}
	return s.drafts.Delete(ctx, ownerID, id)
}

// Confirm freezes a reviewed draft into an invoice with the owner's next number.
// Repeating the call for a confirmed draft returns the same invoice. A non-empty
// idempotencyKey additionally deduplicates retries across draft expiry.
func (s *DraftService) Confirm(ctx context.Context, ownerID, id uuid.UUID, req ConfirmDraftRequest, idempotencyKey string) (*invoiceapp.InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "draft", "confirm", telemetry.OwnerID(ownerID), telemetry.DraftID(id))
	defer span.End()

	key := ""
	if s.idempotency != nil && strings.TrimSpace(idempotencyKey) != "" {
		key = fmt.Sprintf("draft-confirm:%s:%s", ownerID, strings.TrimSpace(idempotencyKey))
		reserved, err := s.idempotency.Reserve(ctx, key, id.String(), s.config.IdempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if !reserved {
			return s.replay(ctx, ownerID, id, key)
		}
	}

	resp, err := s.confirm(ctx, ownerID, id, req)
	if err != nil {
		telemetry.RecordError(span, err)
		if key != "" {
			_ = s.idempotency.Release(ctx, key)
		}
		return nil, err
	}
	span.SetAttributes(telemetry.InvoiceID(resp.ID), telemetry.InvoiceNumber(resp.Number))
	return resp, nil
}

func (s *DraftService) confirm(ctx context.Context, ownerID, id uuid.UUID, req ConfirmDraftRequest) (*invoiceapp.InvoiceResponse, error) {
	d, err := s.drafts.Get(ctx, ownerID, id)
	if errors.Is(err, shared.ErrNotFound) {
		// the draft may have expired after a successful confirmation
		return s.existingInvoice(ctx, ownerID, id, err)
	}
	if err != nil {
		return nil, err
	}
	if d.IsFrozen() {
		return s.existingInvoice(ctx, ownerID, id, pricing.ErrDraftFrozen)
	}
	if err := d.CheckConfirmable(s.config.RequireFullResolution); err != nil {
		s.logger.Warn("draft not confirmable",
			zap.String("draft_id", id.String()),
			zap.String("state", string(d.State)),
			zap.Error(err),
		)
		return nil, err
	}

	if req.ClientID != nil {
		if err := s.attachClient(ctx, d, req.ClientID); err != nil {
			return nil, err
		}
	}
	bs, err := s.settings.Load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	params := invoice.ConfirmParams{
		Draft:            d,
		PaymentTermsDays: bs.DefaultPaymentTermsDays,
		Currency:         bs.Currency,
	}
	if req.InvoiceDate != nil {
		params.InvoiceDate = *req.InvoiceDate
	}
	if d.ClientID != nil {
		c, err := s.clients.Find(ctx, ownerID, *d.ClientID)
		if err != nil {
			return nil, err
		}
		params.ClientID = &c.ID
		params.ClientName = c.Name
		if c.PaymentTermsDays > 0 {
			params.PaymentTermsDays = c.PaymentTermsDays
		}
	}

	inv, err := invoice.NewFromDraft(params)
	if err != nil {
		return nil, err
	}
	if err := s.invoices.CreateWithNextNumber(ctx, inv); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// a concurrent confirmation of the same draft won the insert
			return s.existingInvoice(ctx, ownerID, id, err)
		}
		return nil, err
	}

	if err := d.MarkConfirmed(inv.ID, inv.Number); err != nil {
		return nil, err
	}
	if err := s.drafts.Put(ctx, d, s.config.DraftTTL); err != nil {
		s.logger.Warn("failed to store confirmed draft; invoice is unaffected",
			zap.String("draft_id", d.ID.String()),
			zap.Error(err),
		)
	}

	events := inv.GetDomainEvents()
	inv.ClearDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("failed to publish invoice events", zap.String("invoice_number", inv.Number), zap.Error(err))
		}
	}
	s.metrics.RecordInvoiceConfirmed(ctx)

	s.logger.Info("draft confirmed",
		zap.String("owner_id", ownerID.String()),
		zap.String("draft_id", d.ID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.Number),
		zap.String("total", valueobject.FormatAmount(inv.Total)),
	)
	resp := invoiceapp.ToInvoiceResponse(inv)
	return &resp, nil
}

// replay answers a retried confirmation whose idempotency key is already taken
func (s *DraftService) replay(ctx context.Context, ownerID, id uuid.UUID, key string) (*invoiceapp.InvoiceResponse, error) {
	value, found, err := s.idempotency.Lookup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("lookup idempotency key: %w", err)
	}
	if found && value != id.String() {
		return nil, ErrIdempotencyKeyReused
	}
	return s.existingInvoice(ctx, ownerID, id, ErrConfirmInProgress)
}

// existingInvoice returns the invoice already produced from the draft, or
// fallback when there is none
func (s *DraftService) existingInvoice(ctx context.Context, ownerID, draftID uuid.UUID, fallback error) (*invoiceapp.InvoiceResponse, error) {
	inv, err := s.invoices.FindByDraftID(ctx, ownerID, draftID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, fallback
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("draft already confirmed",
		zap.String("draft_id", draftID.String()),
		zap.String("invoice_number", inv.Number),
	)
	resp := invoiceapp.ToInvoiceResponse(inv)
	return &resp, nil
}

// Quote prices items against an inline rate card without storing anything
func (s *DraftService) Quote(ctx context.Context, ownerID uuid.UUID, req QuoteRequest) (*pricing.PricedInvoiceDraft, error) {
	snap, err := quoteSnapshot(ownerID, req.RateCard)
	if err != nil {
		return nil, err
	}
	engine, err := s.engine(req.Strategy)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	priced, err := engine.Price(ctx, snap, toExtraction(req.Items, "", "", ""), settingsapp.ToTaxRates(req.Taxes))
	if err != nil {
		return nil, err
	}
	s.metrics.RecordDraftPriced(ctx, priced.Strategy, "quote", issueReasons(priced), time.Since(started))
	return priced, nil
}

func quoteSnapshot(ownerID uuid.UUID, rows []QuoteRateItem) (*ratecard.Snapshot, error) {
	base := time.Unix(0, 0).UTC()
	items := make([]ratecard.RateItem, 0, len(rows))
	for i, row := range rows {
		item, err := ratecard.NewRateItem(ownerID, ratecard.RateItemInput{
			Category:  ratecard.Category(row.Category),
			Name:      row.Name,
			UnitPrice: row.UnitPrice,
			Unit:      ratecard.Unit(row.Unit),
			Aliases:   row.Aliases,
		})
		if err != nil {
			return nil, err
		}
		// declaration order decides ties between equally good matches
		item.CreatedAt = base.Add(time.Duration(i) * time.Millisecond)
		items = append(items, *item)
	}
	return ratecard.NewSnapshot(ownerID, items, time.Now()), nil
}

func (s *DraftService) extract(ctx context.Context, snap *ratecard.Snapshot, req CreateDraftRequest) (pricing.Extraction, pricing.DraftSource, error) {
	if len(req.Items) > 0 {
		return toExtraction(req.Items, req.ClientNameHint, req.WorkDateHint, req.Notes), pricing.DraftSourceManual, nil
	}
	description := strings.TrimSpace(req.WorkDescription)
	if description == "" {
		return pricing.Extraction{}, "", ErrNothingToExtract
	}
	if s.extractor == nil {
		return pricing.Extraction{}, "", ErrExtractionUnavailable
	}

	extraction, err := s.extractor.Extract(ctx, ExtractionRequest{
		WorkDescription: description,
		ItemNames:       itemNames(snap),
	})
	if err != nil {
		s.logger.Error("work description extraction failed", zap.Error(err))
		return pricing.Extraction{}, "", shared.NewDomainError("EXTRACTION_FAILED", "Could not read line items from the work description")
	}
	if extraction.ClientNameHint == "" {
		extraction.ClientNameHint = strings.TrimSpace(req.ClientNameHint)
	}
	if extraction.WorkDateHint == "" {
		extraction.WorkDateHint = req.WorkDateHint
	}
	if extraction.Notes == "" {
		extraction.Notes = strings.TrimSpace(req.Notes)
	}
	return extraction, pricing.DraftSourceLLM, nil
}

func (s *DraftService) engine(name string) (*pricing.Engine, error) {
	if name == "" {
		name = s.config.MatchStrategy
	}
	st, err := s.strategies.GetMatchingStrategy(name)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_STRATEGY", fmt.Sprintf("Unknown match strategy %q", name))
	}
	return pricing.NewEngine(st), nil
}

// attachClient links an explicit client, or resolves the extraction's client
// name hint when clientID is nil. Unknown hints are left on the draft.
func (s *DraftService) attachClient(ctx context.Context, d *pricing.Draft, clientID *uuid.UUID) error {
	if clientID != nil {
		c, err := s.clients.Find(ctx, d.OwnerID, *clientID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("INVALID_CLIENT", "Client not found")
			}
			return err
		}
		return d.AssignClient(c.ID)
	}
	c, err := s.clients.ResolveByName(ctx, d.OwnerID, d.Extraction.ClientNameHint)
	if err != nil || c == nil {
		return err
	}
	return d.AssignClient(c.ID)
}

func (s *DraftService) recordPriced(ctx context.Context, d *pricing.Draft, elapsed time.Duration) {
	s.metrics.RecordDraftPriced(ctx, d.Priced.Strategy, string(d.Source), issueReasons(d.Priced), elapsed)
}

func issueReasons(p *pricing.PricedInvoiceDraft) []string {
	reasons := make([]string, len(p.Issues))
	for i, issue := range p.Issues {
		reasons[i] = issue.Reason
	}
	return reasons
}

// itemNames lists names and aliases for the extraction prompt
func itemNames(snap *ratecard.Snapshot) []string {
	names := make([]string, 0, snap.Len())
	for _, it := range snap.Items {
		names = append(names, it.Name)
		names = append(names, it.Aliases...)
	}
	return names
}
