package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	"github.com/mypackmx/logistics-backend/pkg/types"
)

// Tariff resolution failures. Both are hard stops: a shipment that cannot be
// matched to a bracket is never silently priced at zero.
var (
	ErrNoApplicableRule = errors.New("no applicable pricing rule")
	ErrNoApplicableRate = errors.New("no applicable insurance rate")
)

// Carrier dimensional-weight divisor: (L x W x H) cm / 5000 = kg.
var volumetricDivisor = decimal.NewFromInt(5000)

// retailMaxWeightKg is the inclusive retail/wholesale boundary.
var retailMaxWeightKg = decimal.NewFromInt(50)

// ClassifyServiceType maps a weight to the service tier. Exactly 50 kg is
// still retail.
func ClassifyServiceType(weightKg decimal.Decimal) enums.ServiceType {
	if weightKg.GreaterThan(retailMaxWeightKg) {
		return enums.ServiceTypeWholesale
	}
	return enums.ServiceTypeRetail
}

// VolumetricWeight converts package dimensions in centimeters to a
// dimensional weight in kilograms.
func VolumetricWeight(dims types.Dimensions) decimal.Decimal {
	return dims.Length.Mul(dims.Width).Mul(dims.Height).Div(volumetricDivisor)
}

// BillableWeight is the greater of actual and volumetric weight. Every
// downstream rule lookup uses this, never the raw actual weight.
func BillableWeight(actualKg decimal.Decimal, dims types.Dimensions) decimal.Decimal {
	volumetric := VolumetricWeight(dims)
	if volumetric.GreaterThan(actualKg) {
		return volumetric
	}
	return actualKg
}

// ResolvePricingRule picks the tariff bracket for the given inputs. Rules
// must be active, match the service type exactly and the zone
// case-insensitively, and bound the billable weight inclusively. If several
// rules match (a misconfiguration) the first in input order wins.
func ResolvePricingRule(rules []models.PricingRule, billableKg decimal.Decimal, zone string, serviceType enums.ServiceType) (*models.PricingRule, error) {
	for i := range rules {
		rule := &rules[i]
		if !rule.IsActive {
			continue
		}
		if rule.ServiceType != serviceType {
			continue
		}
		if !strings.EqualFold(rule.Zone, zone) {
			continue
		}
		if billableKg.LessThan(rule.MinWeightKg) || billableKg.GreaterThan(rule.MaxWeightKg) {
			continue
		}
		return rule, nil
	}
	return nil, ErrNoApplicableRule
}

// ServiceCost applies marginal pricing above the bracket floor:
// base + max(0, billable - min) * pricePerKg.
func ServiceCost(rule *models.PricingRule, billableKg decimal.Decimal) decimal.Decimal {
	excess := billableKg.Sub(rule.MinWeightKg)
	if excess.IsNegative() {
		excess = decimal.Zero
	}
	return rule.BasePrice.Add(excess.Mul(rule.PricePerKg))
}

// ResolveInsuranceRate picks the declared-value bracket, same filter and
// tie-break policy as pricing rules.
func ResolveInsuranceRate(rates []models.InsuranceRate, declaredValue decimal.Decimal) (*models.InsuranceRate, error) {
	for i := range rates {
		rate := &rates[i]
		if !rate.IsActive {
			continue
		}
		if declaredValue.LessThan(rate.MinValue) || declaredValue.GreaterThan(rate.MaxValue) {
			continue
		}
		return rate, nil
	}
	return nil, ErrNoApplicableRate
}

// InsuranceCost is declaredValue * ratePercentage / 100.
func InsuranceCost(rate *models.InsuranceRate, declaredValue decimal.Decimal) decimal.Decimal {
	return declaredValue.Mul(rate.RatePercentage).Div(decimal.NewFromInt(100))
}

// Breakdown is the result of a complete price calculation. Monetary amounts
// are rounded to 2 decimal places; weights are left unrounded.
type Breakdown struct {
	ServiceType      enums.ServiceType
	VolumetricWeight decimal.Decimal
	BillableWeight   decimal.Decimal
	ServiceCost      decimal.Decimal
	InsuranceCost    decimal.Decimal
	TotalCost        decimal.Decimal
	Rule             *models.PricingRule
	Rate             *models.InsuranceRate
}

// QuoteInput carries the physical attributes and destination for a price
// calculation.
type QuoteInput struct {
	WeightKg      decimal.Decimal
	Dimensions    types.Dimensions
	Zone          string
	DeclaredValue decimal.Decimal
	Insured       bool
}

// Calculate runs the full pricing pipeline against a snapshot of rules and
// rates. It is pure: identical inputs always produce identical output. Any
// resolution failure aborts the whole calculation; there is no partial
// price. Insurance is only priced when it was explicitly requested with a
// positive declared value.
func Calculate(input QuoteInput, rules []models.PricingRule, rates []models.InsuranceRate) (*Breakdown, error) {
	serviceType := ClassifyServiceType(input.WeightKg)
	volumetric := VolumetricWeight(input.Dimensions)
	billable := BillableWeight(input.WeightKg, input.Dimensions)

	rule, err := ResolvePricingRule(rules, billable, input.Zone, serviceType)
	if err != nil {
		return nil, err
	}
	serviceCost := ServiceCost(rule, billable)

	insuranceCost := decimal.Zero
	var rate *models.InsuranceRate
	if input.Insured && input.DeclaredValue.IsPositive() {
		rate, err = ResolveInsuranceRate(rates, input.DeclaredValue)
		if err != nil {
			return nil, err
		}
		insuranceCost = InsuranceCost(rate, input.DeclaredValue)
	}

	// Rounding happens once at the output boundary, not at intermediate
	// steps, so the cent-level identity total = service + insurance holds.
	serviceCost = serviceCost.Round(2)
	insuranceCost = insuranceCost.Round(2)

	return &Breakdown{
		ServiceType:      serviceType,
		VolumetricWeight: volumetric,
		BillableWeight:   billable,
		ServiceCost:      serviceCost,
		InsuranceCost:    insuranceCost,
		TotalCost:        serviceCost.Add(insuranceCost),
		Rule:             rule,
		Rate:             rate,
	}, nil
}
