// Package ratecard holds the use cases of the rate card: maintaining priced
// items and taking the snapshots drafts are resolved against.
package ratecard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/domain/ratecard"
	"github.com/smartinvoice/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// RateCardService handles rate item operations
type RateCardService struct {
	repo           ratecard.RateItemRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewRateCardService creates a new RateCardService
func NewRateCardService(repo ratecard.RateItemRepository, logger *zap.Logger) *RateCardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateCardService{repo: repo, logger: logger}
}

// SetEventPublisher sets the publisher for rate item events
func (s *RateCardService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create adds a new active rate item
func (s *RateCardService) Create(ctx context.Context, ownerID uuid.UUID, req CreateRateItemRequest) (*RateItemResponse, error) {
	item, err := ratecard.NewRateItem(ownerID, req.toInput())
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, ownerID, item.Name, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, item); err != nil {
		return nil, err
	}
	s.publish(ctx, item)

	s.logger.Info("rate item created",
		zap.String("owner_id", ownerID.String()),
		zap.String("rate_item_id", item.ID.String()),
		zap.String("name", item.Name),
	)
	resp := ToRateItemResponse(item)
	return &resp, nil
}

// GetByID returns a rate item; inactive revisions stay readable for audit
func (s *RateCardService) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*RateItemResponse, error) {
	item, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := ToRateItemResponse(item)
	return &resp, nil
}

// List returns rate items, active only unless IncludeInactive is set
func (s *RateCardService) List(ctx context.Context, ownerID uuid.UUID, filter RateItemListFilter) ([]RateItemResponse, int64, error) {
	domainFilter := shared.Filter{
		Search:   filter.Search,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "created_at",
		OrderDir: "asc",
		Filters:  make(map[string]interface{}),
	}
	if filter.Category != "" {
		domainFilter.Filters["category"] = filter.Category
	}
	if !filter.IncludeInactive {
		domainFilter.Filters["active"] = true
	}

	items, err := s.repo.FindAllForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]RateItemResponse, len(items))
	for i := range items {
		responses[i] = ToRateItemResponse(&items[i])
	}
	return responses, total, nil
}

// History returns every revision of the item's lineage, oldest first
func (s *RateCardService) History(ctx context.Context, ownerID, id uuid.UUID) ([]RateItemResponse, error) {
	item, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	lineage, err := s.repo.FindLineage(ctx, ownerID, item.LineageID)
	if err != nil {
		return nil, err
	}
	responses := make([]RateItemResponse, len(lineage))
	for i := range lineage {
		responses[i] = ToRateItemResponse(&lineage[i])
	}
	return responses, nil
}

// Revise retires the item and stores its next revision.
// Invoices issued earlier keep referencing the retired row.
func (s *RateCardService) Revise(ctx context.Context, ownerID, id uuid.UUID, req ReviseRateItemRequest) (*RateItemResponse, error) {
	current, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	next, err := current.Revise(CreateRateItemRequest(req).toInput())
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, ownerID, next.Name, next.LineageID); err != nil {
		return nil, err
	}
	if err := s.repo.SaveRevision(ctx, current, next); err != nil {
		return nil, err
	}
	s.publish(ctx, next)

	s.logger.Info("rate item revised",
		zap.String("owner_id", ownerID.String()),
		zap.String("previous_id", current.ID.String()),
		zap.String("rate_item_id", next.ID.String()),
		zap.Int("revision", next.Revision),
	)
	resp := ToRateItemResponse(next)
	return &resp, nil
}

// Deactivate soft deletes a rate item
func (s *RateCardService) Deactivate(ctx context.Context, ownerID, id uuid.UUID) error {
	item, err := s.repo.FindByIDForOwner(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := item.Deactivate(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, item); err != nil {
		return err
	}
	s.publish(ctx, item)

	s.logger.Info("rate item deactivated",
		zap.String("owner_id", ownerID.String()),
		zap.String("rate_item_id", item.ID.String()),
	)
	return nil
}

// Snapshot takes a read-only copy of the owner's active rate items.
// An empty rate card yields an empty snapshot; callers decide whether that is fatal.
func (s *RateCardService) Snapshot(ctx context.Context, ownerID uuid.UUID) (*ratecard.Snapshot, error) {
	items, err := s.repo.FindActive(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return ratecard.NewSnapshot(ownerID, items, time.Now()), nil
}

func (s *RateCardService) ensureUniqueName(ctx context.Context, ownerID uuid.UUID, name string, lineage uuid.UUID) error {
	exists, err := s.repo.ExistsActiveByName(ctx, ownerID, name, lineage)
	if err != nil {
		return err
	}
	if exists {
		return shared.NewDomainError("ALREADY_EXISTS", "An active rate item with this name already exists")
	}
	return nil
}

func (s *RateCardService) publish(ctx context.Context, item *ratecard.RateItem) {
	events := item.GetDomainEvents()
	item.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish rate item events",
			zap.String("rate_item_id", item.ID.String()),
			zap.Error(err),
		)
	}
}
