package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/domain/settings"
	"github.com/smartinvoice/backend/internal/domain/shared"
	"github.com/smartinvoice/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSettingsRepository implements SettingsRepository using GORM
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// FindByOwner returns the owner's settings or shared.ErrNotFound
func (r *GormSettingsRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*settings.BusinessSettings, error) {
	var model models.BusinessSettingsModel
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save upserts the owner's settings row
func (r *GormSettingsRepository) Save(ctx context.Context, s *settings.BusinessSettings) error {
	return r.db.WithContext(ctx).Save(models.BusinessSettingsModelFromDomain(s)).Error
}

// Ensure GormSettingsRepository implements SettingsRepository
var _ settings.SettingsRepository = (*GormSettingsRepository)(nil)
