package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/domain/client"
	"github.com/smartinvoice/backend/internal/domain/shared"
	"github.com/smartinvoice/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormClientRepository implements ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByIDForOwner finds a client by ID within an owner
func (r *GormClientRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*client.Client, error) {
	return r.first(ctx, "owner_id = ? AND id = ?", ownerID, id)
}

// FindByName finds a client by name, ignoring case and repeated spaces
func (r *GormClientRepository) FindByName(ctx context.Context, ownerID uuid.UUID, name string) (*client.Client, error) {
	key := models.NameKey(name)
	if key == "" {
		return nil, shared.ErrNotFound
	}
	return r.first(ctx, "owner_id = ? AND name_key = ?", ownerID, key)
}

func (r *GormClientRepository) first(ctx context.Context, cond string, args ...any) (*client.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).Where(cond, args...).Order("created_at ASC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForOwner lists clients for an owner
func (r *GormClientRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]client.Client, error) {
	var rows []models.ClientModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ClientModel{}).Where("owner_id = ?", ownerID), filter)
	query = paginate(query, filter, ClientSortFields, "name")

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	clients := make([]client.Client, len(rows))
	for i := range rows {
		clients[i] = *rows[i].ToDomain()
	}
	return clients, nil
}

// CountForOwner counts clients matching the filter
func (r *GormClientRepository) CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ClientModel{}).Where("owner_id = ?", ownerID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a client
func (r *GormClientRepository) Save(ctx context.Context, c *client.Client) error {
	return r.db.WithContext(ctx).Save(models.ClientModelFromDomain(c)).Error
}

// DeleteForOwner deletes a client within an owner
func (r *GormClientRepository) DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ClientModel{}, "owner_id = ? AND id = ?", ownerID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormClientRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(`(name_key LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return query
}

// Ensure GormClientRepository implements ClientRepository
var _ client.ClientRepository = (*GormClientRepository)(nil)
