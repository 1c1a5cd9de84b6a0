// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/sophron-goods/storefront-api/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// ShippingConfigurationRepository defines operations for shipping configurations
type ShippingConfigurationRepository interface {
	Repository[models.ShippingConfiguration, models.ShippingConfigurationFilter]
	ByUUID(ctx context.Context, uuid string) (*models.ShippingConfiguration, error)
	// Active returns the configuration currently flagged active, or nil
	// when none exists. When editors leave more than one flagged (a CMS
	// race), the most recently created one wins.
	Active(ctx context.Context) (*models.ShippingConfiguration, error)
}

// ProductRepository defines operations for the product shipping projection
type ProductRepository interface {
	Repository[models.Product, models.ProductFilter]
	BySKU(ctx context.Context, sku string) (*models.Product, error)
	BySKUs(ctx context.Context, skus []string) ([]*models.Product, error)
}
