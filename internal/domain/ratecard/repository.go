package ratecard

import (
	"context"

	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/domain/shared"
)

// RateItemRepository defines the interface for rate item persistence
type RateItemRepository interface {
	// FindByIDForOwner finds a rate item (any revision) by ID within an owner
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*RateItem, error)

	// FindAllForOwner lists rate items for an owner.
	// Supported filters: "category", "active" (bool); Search matches name and aliases.
	FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]RateItem, error)

	// CountForOwner counts rate items matching the filter
	CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error)

	// FindActive returns every active rate item of an owner, oldest first
	FindActive(ctx context.Context, ownerID uuid.UUID) ([]RateItem, error)

	// FindLineage returns all revisions sharing a lineage, oldest first
	FindLineage(ctx context.Context, ownerID, lineageID uuid.UUID) ([]RateItem, error)

	// ExistsActiveByName checks whether an active item already uses the name
	// (case-insensitive), ignoring the given lineage
	ExistsActiveByName(ctx context.Context, ownerID uuid.UUID, name string, excludeLineage uuid.UUID) (bool, error)

	// Save creates or updates a rate item
	Save(ctx context.Context, item *RateItem) error

	// SaveRevision retires previous and inserts current in one transaction
	SaveRevision(ctx context.Context, previous, current *RateItem) error
}
