package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sophron-goods/storefront-api/models"
	"gorm.io/gorm"
)

// ShippingConfigurationRepositoryImpl implements ShippingConfigurationRepository.
type ShippingConfigurationRepositoryImpl struct {
	*BaseRepository[models.ShippingConfiguration, models.ShippingConfigurationFilter]
}

// NewShippingConfigurationRepository creates a new shipping configuration repository.
func NewShippingConfigurationRepository(db *gorm.DB) ShippingConfigurationRepository {
	return &ShippingConfigurationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ShippingConfiguration, models.ShippingConfigurationFilter](db),
	}
}

// ByUUID retrieves a configuration by UUID.
func (r *ShippingConfigurationRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.ShippingConfiguration, error) {
	parsed, err := uuid.Parse(uuidStr)
	if err != nil {
		return nil, err
	}
	rows, err := r.ByFilter(ctx, models.ShippingConfigurationFilter{UUID: &parsed}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Active retrieves the configuration currently flagged active, or nil.
func (r *ShippingConfigurationRepositoryImpl) Active(ctx context.Context) (*models.ShippingConfiguration, error) {
	db := r.getDB(ctx)
	var row models.ShippingConfiguration
	err := db.Where("is_active = ?", true).Order("created_at DESC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// applyFilter applies filter criteria to a GORM query.
func (r *ShippingConfigurationRepositoryImpl) applyFilter(query *gorm.DB, filter models.ShippingConfigurationFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves configurations based on filter criteria.
func (r *ShippingConfigurationRepositoryImpl) ByFilter(ctx context.Context, filter models.ShippingConfigurationFilter, orderBy string, limit, offset int) ([]*models.ShippingConfiguration, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.ShippingConfiguration{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.ShippingConfiguration
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of configurations matching filter.
func (r *ShippingConfigurationRepositoryImpl) Count(ctx context.Context, filter models.ShippingConfigurationFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.ShippingConfiguration{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any configuration matches the filter.
func (r *ShippingConfigurationRepositoryImpl) Exists(ctx context.Context, filter models.ShippingConfigurationFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
