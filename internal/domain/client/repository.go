package client

import (
	"context"

	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/domain/shared"
)

// ClientRepository defines the interface for client persistence
type ClientRepository interface {
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*Client, error)
	// FindByName matches the name case-insensitively
	FindByName(ctx context.Context, ownerID uuid.UUID, name string) (*Client, error)
	FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]Client, error)
	CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, c *Client) error
	DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error
}
