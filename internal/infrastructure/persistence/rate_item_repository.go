package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/domain/ratecard"
	"github.com/smartinvoice/backend/internal/domain/shared"
	"github.com/smartinvoice/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormRateItemRepository implements RateItemRepository using GORM
type GormRateItemRepository struct {
	db *gorm.DB
}

// NewGormRateItemRepository creates a new GormRateItemRepository
func NewGormRateItemRepository(db *gorm.DB) *GormRateItemRepository {
	return &GormRateItemRepository{db: db}
}

// FindByIDForOwner finds a rate item revision by ID within an owner
func (r *GormRateItemRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*ratecard.RateItem, error) {
	var model models.RateItemModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForOwner lists rate items for an owner
func (r *GormRateItemRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]ratecard.RateItem, error) {
	var rows []models.RateItemModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.RateItemModel{}).Where("owner_id = ?", ownerID), filter)
	query = paginate(query, filter, RateItemSortFields, "created_at")

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRateItems(rows), nil
}

// CountForOwner counts rate items matching the filter
func (r *GormRateItemRepository) CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.RateItemModel{}).Where("owner_id = ?", ownerID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindActive returns the owner's current rate card in creation order
func (r *GormRateItemRepository) FindActive(ctx context.Context, ownerID uuid.UUID) ([]ratecard.RateItem, error) {
	var rows []models.RateItemModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND active = ?", ownerID, true).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toRateItems(rows), nil
}

// FindLineage returns all revisions of one item, oldest first
func (r *GormRateItemRepository) FindLineage(ctx context.Context, ownerID, lineageID uuid.UUID) ([]ratecard.RateItem, error) {
	var rows []models.RateItemModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND lineage_id = ?", ownerID, lineageID).
		Order("revision ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.ErrNotFound
	}
	return toRateItems(rows), nil
}

// ExistsActiveByName checks whether another active item uses the name
func (r *GormRateItemRepository) ExistsActiveByName(ctx context.Context, ownerID uuid.UUID, name string, excludeLineage uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.RateItemModel{}).
		Where("owner_id = ? AND active = ? AND name_key = ?", ownerID, true, models.NameKey(name))
	if excludeLineage != uuid.Nil {
		query = query.Where("lineage_id <> ?", excludeLineage)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a rate item
func (r *GormRateItemRepository) Save(ctx context.Context, item *ratecard.RateItem) error {
	return r.db.WithContext(ctx).Save(models.RateItemModelFromDomain(item)).Error
}

// SaveRevision retires previous and inserts current atomically.
// The retire step checks the version so two concurrent revisions cannot both win.
func (r *GormRateItemRepository) SaveRevision(ctx context.Context, previous, current *ratecard.RateItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.RateItemModel{}).
			Where("id = ? AND owner_id = ? AND version = ?", previous.ID, previous.OwnerID, previous.Version-1).
			Updates(map[string]any{
				"active":        false,
				"superseded_by": previous.SupersededBy,
				"version":       previous.Version,
				"updated_at":    previous.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: rate item %s was modified concurrently", shared.ErrConcurrencyConflict, previous.ID)
		}
		return tx.Create(models.RateItemModelFromDomain(current)).Error
	})
}

func (r *GormRateItemRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(`(name_key LIKE ? ESCAPE '\' OR LOWER(CAST(aliases AS TEXT)) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "category":
			query = query.Where("category = ?", value)
		case "active":
			query = query.Where("active = ?", value)
		}
	}
	return query
}

func toRateItems(rows []models.RateItemModel) []ratecard.RateItem {
	items := make([]ratecard.RateItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items
}

// Ensure GormRateItemRepository implements RateItemRepository
var _ ratecard.RateItemRepository = (*GormRateItemRepository)(nil)
