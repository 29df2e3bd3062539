package settings

import (
	"context"

	"github.com/google/uuid"
)

// SettingsRepository persists business settings, one row per owner
type SettingsRepository interface {
	// FindByOwner returns shared.ErrNotFound when the owner has not saved settings yet
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*BusinessSettings, error)
	Save(ctx context.Context, s *BusinessSettings) error
}
