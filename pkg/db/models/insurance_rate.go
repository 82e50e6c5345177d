package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InsuranceRate is a tariff bracket on declared value. Same deactivate-only
// lifecycle as PricingRule.
type InsuranceRate struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MinValue       decimal.Decimal `gorm:"column:min_value;type:numeric(12,2);not null"`
	MaxValue       decimal.Decimal `gorm:"column:max_value;type:numeric(12,2);not null"`
	RatePercentage decimal.Decimal `gorm:"column:rate_percentage;type:numeric(6,3);not null"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
