package pricing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pricing repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListPricingRules(ctx context.Context, onlyActive bool) ([]models.PricingRule, error) {
	var rules []models.PricingRule
	// Oldest first so resolution order is stable across calls.
	q := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC")
	if onlyActive {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) FindPricingRule(ctx context.Context, id uuid.UUID) (*models.PricingRule, error) {
	var rule models.PricingRule
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *repository) CreatePricingRule(ctx context.Context, rule *models.PricingRule) (*models.PricingRule, error) {
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return nil, err
	}
	return rule, nil
}

func (r *repository) UpdatePricingRule(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PricingRule{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListInsuranceRates(ctx context.Context, onlyActive bool) ([]models.InsuranceRate, error) {
	var rates []models.InsuranceRate
	q := r.db.WithContext(ctx).Order("created_at ASC").Order("id ASC")
	if onlyActive {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}

func (r *repository) FindInsuranceRate(ctx context.Context, id uuid.UUID) (*models.InsuranceRate, error) {
	var rate models.InsuranceRate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rate).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *repository) CreateInsuranceRate(ctx context.Context, rate *models.InsuranceRate) (*models.InsuranceRate, error) {
	if err := r.db.WithContext(ctx).Create(rate).Error; err != nil {
		return nil, err
	}
	return rate, nil
}

func (r *repository) UpdateInsuranceRate(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.InsuranceRate{}).
		Where("id = ?", id).
		Updates(updates).Error
}
