package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
	pkgerrors "github.com/mypackmx/logistics-backend/pkg/errors"
	"github.com/mypackmx/logistics-backend/pkg/logger"
	"github.com/mypackmx/logistics-backend/pkg/metrics"
	"github.com/mypackmx/logistics-backend/pkg/types"
)

// Service exposes quoting plus the admin surface for tariff configuration.
type Service interface {
	Quote(ctx context.Context, req QuoteRequest) (*QuoteResult, error)
	// Price is the internal variant used at checkout; it returns the full
	// breakdown including the resolved rule and rate so callers can
	// snapshot them onto the shipment.
	Price(ctx context.Context, req QuoteRequest) (*Breakdown, error)

	ListPricingRules(ctx context.Context, onlyActive bool) ([]models.PricingRule, error)
	CreatePricingRule(ctx context.Context, input PricingRuleInput) (*models.PricingRule, error)
	UpdatePricingRule(ctx context.Context, id uuid.UUID, input PricingRuleInput) (*models.PricingRule, error)
	SetPricingRuleActive(ctx context.Context, id uuid.UUID, active bool) error

	ListInsuranceRates(ctx context.Context, onlyActive bool) ([]models.InsuranceRate, error)
	CreateInsuranceRate(ctx context.Context, input InsuranceRateInput) (*models.InsuranceRate, error)
	UpdateInsuranceRate(ctx context.Context, id uuid.UUID, input InsuranceRateInput) (*models.InsuranceRate, error)
	SetInsuranceRateActive(ctx context.Context, id uuid.UUID, active bool) error
}

type service struct {
	repo    Repository
	logg    *logger.Logger
	metrics *metrics.ShipmentMetrics
}

// NewService wires the pricing service.
func NewService(repo Repository, logg *logger.Logger, m *metrics.ShipmentMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pricing repository required")
	}
	return &service{repo: repo, logg: logg, metrics: m}, nil
}

func (s *service) Quote(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	breakdown, err := s.Price(ctx, req)
	if err != nil {
		return nil, err
	}
	return &QuoteResult{
		ServiceType:      breakdown.ServiceType,
		VolumetricWeight: breakdown.VolumetricWeight,
		BillableWeight:   breakdown.BillableWeight,
		ServiceCost:      breakdown.ServiceCost,
		InsuranceCost:    breakdown.InsuranceCost,
		TotalCost:        breakdown.TotalCost,
	}, nil
}

func (s *service) Price(ctx context.Context, req QuoteRequest) (*Breakdown, error) {
	input, err := validateQuoteRequest(req)
	if err != nil {
		return nil, err
	}

	rules, err := s.repo.ListPricingRules(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pricing rules")
	}
	rates, err := s.repo.ListInsuranceRates(ctx, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load insurance rates")
	}

	breakdown, err := Calculate(*input, rules, rates)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoApplicableRule):
			s.metrics.IncQuote("no_rule")
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnpriceable, err, "no service available for this destination and weight")
		case errors.Is(err, ErrNoApplicableRate):
			s.metrics.IncQuote("no_rate")
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnpriceable, err, "declared value cannot be insured")
		default:
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "calculate price")
		}
	}

	s.metrics.IncQuote("priced")
	return breakdown, nil
}

func validateQuoteRequest(req QuoteRequest) (*QuoteInput, error) {
	if !req.WeightKg.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
	}
	if strings.TrimSpace(req.Zone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination zone required")
	}
	if req.DeclaredValue.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "declared value cannot be negative")
	}
	dims, err := types.NewDimensions(req.LengthCm, req.WidthCm, req.HeightCm)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dimensions")
	}
	return &QuoteInput{
		WeightKg:      req.WeightKg,
		Dimensions:    dims,
		Zone:          strings.TrimSpace(req.Zone),
		DeclaredValue: req.DeclaredValue,
		Insured:       req.Insured,
	}, nil
}

func (s *service) ListPricingRules(ctx context.Context, onlyActive bool) ([]models.PricingRule, error) {
	rules, err := s.repo.ListPricingRules(ctx, onlyActive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pricing rules")
	}
	return rules, nil
}

func (s *service) CreatePricingRule(ctx context.Context, input PricingRuleInput) (*models.PricingRule, error) {
	if err := s.validatePricingRuleInput(ctx, input, nil); err != nil {
		return nil, err
	}
	rule := &models.PricingRule{
		ServiceType: input.ServiceType,
		Zone:        strings.TrimSpace(input.Zone),
		MinWeightKg: input.MinWeightKg,
		MaxWeightKg: input.MaxWeightKg,
		BasePrice:   input.BasePrice,
		PricePerKg:  input.PricePerKg,
		IsActive:    true,
	}
	created, err := s.repo.CreatePricingRule(ctx, rule)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pricing rule")
	}
	return created, nil
}

func (s *service) UpdatePricingRule(ctx context.Context, id uuid.UUID, input PricingRuleInput) (*models.PricingRule, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pricing rule id required")
	}
	if _, err := s.findPricingRule(ctx, id); err != nil {
		return nil, err
	}
	if err := s.validatePricingRuleInput(ctx, input, &id); err != nil {
		return nil, err
	}
	updates := map[string]any{
		"service_type":  input.ServiceType,
		"zone":          strings.TrimSpace(input.Zone),
		"min_weight_kg": input.MinWeightKg,
		"max_weight_kg": input.MaxWeightKg,
		"base_price":    input.BasePrice,
		"price_per_kg":  input.PricePerKg,
	}
	if err := s.repo.UpdatePricingRule(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pricing rule")
	}
	return s.findPricingRule(ctx, id)
}

func (s *service) SetPricingRuleActive(ctx context.Context, id uuid.UUID, active bool) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "pricing rule id required")
	}
	if _, err := s.findPricingRule(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdatePricingRule(ctx, id, map[string]any{"is_active": active}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pricing rule")
	}
	return nil
}

func (s *service) findPricingRule(ctx context.Context, id uuid.UUID) (*models.PricingRule, error) {
	rule, err := s.repo.FindPricingRule(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pricing rule not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pricing rule")
	}
	return rule, nil
}

// validatePricingRuleInput enforces the bracket shape and rejects overlaps
// with other active rules for the same service type and zone. Brackets are
// inclusive on both ends, so touching bounds count as an overlap.
func (s *service) validatePricingRuleInput(ctx context.Context, input PricingRuleInput, excludeID *uuid.UUID) error {
	if !input.ServiceType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid service type")
	}
	if strings.TrimSpace(input.Zone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "zone required")
	}
	if input.MinWeightKg.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "min weight cannot be negative")
	}
	if input.MaxWeightKg.LessThan(input.MinWeightKg) {
		return pkgerrors.New(pkgerrors.CodeValidation, "max weight must be at least min weight")
	}
	if input.BasePrice.IsNegative() || input.PricePerKg.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "prices cannot be negative")
	}

	existing, err := s.repo.ListPricingRules(ctx, true)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pricing rules")
	}
	for i := range existing {
		rule := &existing[i]
		if excludeID != nil && rule.ID == *excludeID {
			continue
		}
		if rule.ServiceType != input.ServiceType {
			continue
		}
		if !strings.EqualFold(rule.Zone, input.Zone) {
			continue
		}
		if !input.MaxWeightKg.LessThan(rule.MinWeightKg) && !input.MinWeightKg.GreaterThan(rule.MaxWeightKg) {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("weight bracket overlaps active rule %s (%s-%s kg)", rule.ID, rule.MinWeightKg, rule.MaxWeightKg))
		}
	}
	return nil
}

func (s *service) ListInsuranceRates(ctx context.Context, onlyActive bool) ([]models.InsuranceRate, error) {
	rates, err := s.repo.ListInsuranceRates(ctx, onlyActive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list insurance rates")
	}
	return rates, nil
}

func (s *service) CreateInsuranceRate(ctx context.Context, input InsuranceRateInput) (*models.InsuranceRate, error) {
	if err := s.validateInsuranceRateInput(ctx, input, nil); err != nil {
		return nil, err
	}
	rate := &models.InsuranceRate{
		MinValue:       input.MinValue,
		MaxValue:       input.MaxValue,
		RatePercentage: input.RatePercentage,
		IsActive:       true,
	}
	created, err := s.repo.CreateInsuranceRate(ctx, rate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create insurance rate")
	}
	return created, nil
}

func (s *service) UpdateInsuranceRate(ctx context.Context, id uuid.UUID, input InsuranceRateInput) (*models.InsuranceRate, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "insurance rate id required")
	}
	if _, err := s.findInsuranceRate(ctx, id); err != nil {
		return nil, err
	}
	if err := s.validateInsuranceRateInput(ctx, input, &id); err != nil {
		return nil, err
	}
	updates := map[string]any{
		"min_value":       input.MinValue,
		"max_value":       input.MaxValue,
		"rate_percentage": input.RatePercentage,
	}
	if err := s.repo.UpdateInsuranceRate(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update insurance rate")
	}
	return s.findInsuranceRate(ctx, id)
}

func (s *service) SetInsuranceRateActive(ctx context.Context, id uuid.UUID, active bool) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "insurance rate id required")
	}
	if _, err := s.findInsuranceRate(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdateInsuranceRate(ctx, id, map[string]any{"is_active": active}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update insurance rate")
	}
	return nil
}

func (s *service) findInsuranceRate(ctx context.Context, id uuid.UUID) (*models.InsuranceRate, error) {
	rate, err := s.repo.FindInsuranceRate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "insurance rate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load insurance rate")
	}
	return rate, nil
}

func (s *service) validateInsuranceRateInput(ctx context.Context, input InsuranceRateInput, excludeID *uuid.UUID) error {
	if input.MinValue.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "min value cannot be negative")
	}
	if input.MaxValue.LessThan(input.MinValue) {
		return pkgerrors.New(pkgerrors.CodeValidation, "max value must be at least min value")
	}
	if !input.RatePercentage.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "rate percentage must be positive")
	}

	existing, err := s.repo.ListInsuranceRates(ctx, true)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load insurance rates")
	}
	for i := range existing {
		rate := &existing[i]
		if excludeID != nil && rate.ID == *excludeID {
			continue
		}
		if !input.MaxValue.LessThan(rate.MinValue) && !input.MinValue.GreaterThan(rate.MaxValue) {
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("value bracket overlaps active rate %s (%s-%s)", rate.ID, rate.MinValue, rate.MaxValue))
		}
	}
	return nil
}
