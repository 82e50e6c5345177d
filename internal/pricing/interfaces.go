package pricing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
)

// Repository is the persistence surface for tariff configuration.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	ListPricingRules(ctx context.Context, onlyActive bool) ([]models.PricingRule, error)
	FindPricingRule(ctx context.Context, id uuid.UUID) (*models.PricingRule, error)
	CreatePricingRule(ctx context.Context, rule *models.PricingRule) (*models.PricingRule, error)
	UpdatePricingRule(ctx context.Context, id uuid.UUID, updates map[string]any) error

	ListInsuranceRates(ctx context.Context, onlyActive bool) ([]models.InsuranceRate, error)
	FindInsuranceRate(ctx context.Context, id uuid.UUID) (*models.InsuranceRate, error)
	CreateInsuranceRate(ctx context.Context, rate *models.InsuranceRate) (*models.InsuranceRate, error)
	UpdateInsuranceRate(ctx context.Context, id uuid.UUID, updates map[string]any) error
}
