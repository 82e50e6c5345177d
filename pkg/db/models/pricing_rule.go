package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mypackmx/logistics-backend/pkg/enums"
)

// PricingRule is a tariff bracket keyed on service type, destination zone
// and an inclusive weight range. Rules are deactivated, never deleted, so
// historical prices stay explainable.
type PricingRule struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ServiceType enums.ServiceType `gorm:"column:service_type;type:service_type;not null"`
	// Zone is matched case-insensitively against a destination's state.
	Zone        string          `gorm:"column:zone;type:text;not null"`
	MinWeightKg decimal.Decimal `gorm:"column:min_weight_kg;type:numeric(10,3);not null"`
	MaxWeightKg decimal.Decimal `gorm:"column:max_weight_kg;type:numeric(10,3);not null"`
	BasePrice   decimal.Decimal `gorm:"column:base_price;type:numeric(12,2);not null"`
	PricePerKg  decimal.Decimal `gorm:"column:price_per_kg;type:numeric(12,2);not null"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
