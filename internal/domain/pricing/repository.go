package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DraftStore keeps drafts between review steps. Drafts expire; the invoice
// created on confirmation is the durable record.
type DraftStore interface {
	// Get returns shared.ErrNotFound for unknown or expired drafts
	Get(ctx context.Context, ownerID, id uuid.UUID) (*Draft, error)
	// Put stores the draft, replacing any previous version, for ttl
	Put(ctx context.Context, d *Draft, ttl time.Duration) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
