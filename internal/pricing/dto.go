package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/mypackmx/logistics-backend/pkg/enums"
)

// QuoteRequest carries the fields a caller supplies to price a shipment.
type QuoteRequest struct {
	WeightKg      decimal.Decimal
	LengthCm      decimal.Decimal
	WidthCm       decimal.Decimal
	HeightCm      decimal.Decimal
	Zone          string
	DeclaredValue decimal.Decimal
	Insured       bool
}

// QuoteResult is the user-facing price breakdown.
type QuoteResult struct {
	ServiceType      enums.ServiceType `json:"service_type"`
	VolumetricWeight decimal.Decimal   `json:"volumetric_weight"`
	BillableWeight   decimal.Decimal   `json:"billable_weight"`
	ServiceCost      decimal.Decimal   `json:"service_cost"`
	InsuranceCost    decimal.Decimal   `json:"insurance_cost"`
	TotalCost        decimal.Decimal   `json:"total_cost"`
}

// PricingRuleInput captures the fields an administrator sets on a tariff
// bracket.
type PricingRuleInput struct {
	ServiceType enums.ServiceType
	Zone        string
	MinWeightKg decimal.Decimal
	MaxWeightKg decimal.Decimal
	BasePrice   decimal.Decimal
	PricePerKg  decimal.Decimal
}

// InsuranceRateInput captures the fields on a declared-value bracket.
type InsuranceRateInput struct {
	MinValue       decimal.Decimal
	MaxValue       decimal.Decimal
	RatePercentage decimal.Decimal
}
