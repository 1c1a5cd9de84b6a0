// Package testing provides test utilities and in-memory fakes for testing the shipping pipeline
package testing

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sophron-goods/storefront-api/models"
	"github.com/sophron-goods/storefront-api/utils"
)

// FakeShippingConfigurationRepository is an in-memory stand-in for the
// configuration repository. Flow tests do not need postgres.
type FakeShippingConfigurationRepository struct {
	mu      sync.Mutex
	Configs []*models.ShippingConfiguration
	Err     error
}

func (r *FakeShippingConfigurationRepository) Active(ctx context.Context) (*models.ShippingConfiguration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var latest *models.ShippingConfiguration
	for _, c := range r.Configs {
		if !c.IsActive {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	return latest, nil
}

func (r *FakeShippingConfigurationRepository) ByUUID(ctx context.Context, uuidStr string) (*models.ShippingConfiguration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.Configs {
		if c.UUID.String() == uuidStr {
			return c, nil
		}
	}
	return nil, nil
}

func (r *FakeShippingConfigurationRepository) ByID(ctx context.Context, id uint) (*models.ShippingConfiguration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.Configs {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (r *FakeShippingConfigurationRepository) Save(ctx context.Context, row *models.ShippingConfiguration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row.ID = uint(len(r.Configs) + 1)
	r.Configs = append(r.Configs, row)
	return nil
}

func (r *FakeShippingConfigurationRepository) SaveBatch(ctx context.Context, rows []*models.ShippingConfiguration) error {
	for _, row := range rows {
		if err := r.Save(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (r *FakeShippingConfigurationRepository) ByFilter(ctx context.Context, filter models.ShippingConfigurationFilter, orderBy string, limit, offset int) ([]*models.ShippingConfiguration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ShippingConfiguration
	for _, c := range r.Configs {
		if filter.IsActive != nil && c.IsActive != *filter.IsActive {
			continue
		}
		if filter.UUID != nil && c.UUID != *filter.UUID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *FakeShippingConfigurationRepository) Count(ctx context.Context, filter models.ShippingConfigurationFilter) (int64, error) {
	rows, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), err
}

func (r *FakeShippingConfigurationRepository) Exists(ctx context.Context, filter models.ShippingConfigurationFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *FakeShippingConfigurationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// FakeProductRepository is an in-memory stand-in for the product repository.
type FakeProductRepository struct {
	mu       sync.Mutex
	Products []*models.Product
	Err      error
}

func (r *FakeProductRepository) BySKU(ctx context.Context, sku string) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, p := range r.Products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return nil, nil
}

func (r *FakeProductRepository) BySKUs(ctx context.Context, skus []string) ([]*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	want := make(map[string]bool, len(skus))
	for _, s := range skus {
		want[s] = true
	}
	var out []*models.Product
	for _, p := range r.Products {
		if want[p.SKU] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *FakeProductRepository) ByID(ctx context.Context, id uint) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.Products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (r *FakeProductRepository) Save(ctx context.Context, row *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row.ID = uint(len(r.Products) + 1)
	r.Products = append(r.Products, row)
	return nil
}

func (r *FakeProductRepository) SaveBatch(ctx context.Context, rows []*models.Product) error {
	for _, row := range rows {
		if err := r.Save(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (r *FakeProductRepository) ByFilter(ctx context.Context, filter models.ProductFilter, orderBy string, limit, offset int) ([]*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Product
	for _, p := range r.Products {
		if filter.SKU != nil && p.SKU != *filter.SKU {
			continue
		}
		if filter.IsActive != nil && p.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *FakeProductRepository) Count(ctx context.Context, filter models.ProductFilter) (int64, error) {
	rows, err := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(rows)), err
}

func (r *FakeProductRepository) Exists(ctx context.Context, filter models.ProductFilter) (bool, error) {
	n, err := r.Count(ctx, filter)
	return n > 0, err
}

func (r *FakeProductRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// NewTestShippingConfiguration builds an active configuration with sensible
// package defaults and the given service allow-list.
func NewTestShippingConfiguration(services ...models.EnabledService) *models.ShippingConfiguration {
	return &models.ShippingConfiguration{
		ID:                1,
		UUID:              uuid.New(),
		Name:              "warehouse",
		FromStreetAddress: "1 Warehouse Way",
		FromCity:          "Portland",
		FromState:         "OR",
		FromZipCode:       "97201",
		DefaultWeight:     1.0,
		DefaultLength:     12,
		DefaultWidth:      10,
		DefaultHeight:     6,
		EnabledServices:   services,
		IsActive:          true,
		CreatedAt:         utils.UTCNow(),
		UpdatedAt:         utils.UTCNow(),
	}
}

// NewTestProduct builds an active product with the given SKU and weight in
// pounds. Pass a negative weight to leave the weight unset.
func NewTestProduct(sku string, weight float64) *models.Product {
	p := &models.Product{
		ID:       1,
		UUID:     uuid.New(),
		SKU:      sku,
		Name:     "Test Product " + sku,
		IsActive: true,
	}
	if weight >= 0 {
		p.Weight = utils.ToPtr(weight)
	}
	return p
}
