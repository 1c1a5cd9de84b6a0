package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/sophron-goods/storefront-api/utils"
	"gorm.io/gorm"
)

// Product is the shipping-relevant projection of a catalog product. The
// catalog itself is authored elsewhere; this pipeline only reads weight and
// dimension overrides. Weight in pounds, dimensions in inches.
type Product struct {
	ID   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`

	// SKU is the catalog identifier cart line items reference.
	SKU  string `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name string `gorm:"type:varchar(255);not null" json:"name"`

	Weight *float64 `json:"weight,omitempty"`
	Length *float64 `json:"length,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`

	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// BeforeCreate ensures UUID and timestamps are set.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = utils.UTCNow()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// ProductFilter represents filter criteria for product queries.
type ProductFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	SKU           *string    `json:"sku,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
