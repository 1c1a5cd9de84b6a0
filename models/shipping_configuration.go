package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sophron-goods/storefront-api/utils"
	"gorm.io/gorm"
)

// ServiceCode identifies a carrier shipping tier.
type ServiceCode string

const (
	ServiceGroundAdvantage ServiceCode = "GROUND_ADVANTAGE"
	ServicePriority        ServiceCode = "PRIORITY"
	ServicePriorityExpress ServiceCode = "PRIORITY_EXPRESS"
)

// EnabledService is one operator-curated entry in the service allow-list.
// MarkupPercentage, when present, must be >= 0; absent or 0 means no markup.
type EnabledService struct {
	Service          ServiceCode `json:"service"`
	Enabled          bool        `json:"enabled"`
	MarkupPercentage *float64    `json:"markup_percentage,omitempty"`
}

// EnabledServiceList is stored as a JSONB column.
type EnabledServiceList []EnabledService

// Scan implements the sql.Scanner interface for EnabledServiceList.
func (l *EnabledServiceList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into EnabledServiceList", value)
	}
}

// Value implements the driver.Valuer interface for EnabledServiceList.
func (l EnabledServiceList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// ShippingConfiguration is the operator-authored shipping setup record.
// At most one record is active at a time; the active one drives every rate
// calculation. The shipping pipeline only ever reads it.
type ShippingConfiguration struct {
	ID   uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`
	Name string    `gorm:"type:varchar(255);not null" json:"name"`

	// Origin postal address. Immutable once an order has been quoted
	// against it.
	FromStreetAddress string `gorm:"type:varchar(255);not null" json:"from_street_address"`
	FromCity          string `gorm:"type:varchar(100);not null" json:"from_city"`
	FromState         string `gorm:"type:varchar(2);not null" json:"from_state"`
	FromZipCode       string `gorm:"type:varchar(10);not null" json:"from_zip_code"`

	// Package defaults applied when a product carries no weight of its own.
	// Weight in pounds, dimensions in inches.
	DefaultWeight float64 `gorm:"not null" json:"default_weight"`
	DefaultLength float64 `gorm:"not null" json:"default_length"`
	DefaultWidth  float64 `gorm:"not null" json:"default_width"`
	DefaultHeight float64 `gorm:"not null" json:"default_height"`

	EnabledServices EnabledServiceList `gorm:"type:jsonb;not null;default:'[]'" json:"enabled_services"`

	IsActive  bool      `gorm:"not null;default:false;index" json:"is_active"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ShippingConfiguration) TableName() string { return "shipping_configurations" }

// BeforeCreate ensures UUID and timestamps are set.
func (s *ShippingConfiguration) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.UTCNow()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// MarkupFor returns the allow-list markup for a service. The second return
// is false when the service is disabled or unlisted, which drops it from
// rate output entirely: exclusion by default is the admission-control
// mechanism operators rely on.
func (s *ShippingConfiguration) MarkupFor(code ServiceCode) (float64, bool) {
	for _, es := range s.EnabledServices {
		if es.Service == code && es.Enabled {
			if es.MarkupPercentage != nil {
				return *es.MarkupPercentage, true
			}
			return 0, true
		}
	}
	return 0, false
}

// ShippingConfigurationFilter represents filter criteria for configuration queries.
type ShippingConfigurationFilter struct {
	ID            *uint      `json:"id,omitempty"`
	UUID          *uuid.UUID `json:"uuid,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty"`
}
