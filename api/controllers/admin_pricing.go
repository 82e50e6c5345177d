package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mypackmx/logistics-backend/api/responses"
	"github.com/mypackmx/logistics-backend/api/validators"
	"github.com/mypackmx/logistics-backend/internal/pricing"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	pkgerrors "github.com/mypackmx/logistics-backend/pkg/errors"
	"github.com/mypackmx/logistics-backend/pkg/logger"
)

type pricingRuleBody struct {
	ServiceType string          `json:"service_type" validate:"required"`
	Zone        string          `json:"zone" validate:"required"`
	MinWeightKg decimal.Decimal `json:"min_weight_kg" validate:"required"`
	MaxWeightKg decimal.Decimal `json:"max_weight_kg" validate:"required"`
	BasePrice   decimal.Decimal `json:"base_price" validate:"required"`
	PricePerKg  decimal.Decimal `json:"price_per_kg"`
}

func (b pricingRuleBody) toInput() pricing.PricingRuleInput {
	return pricing.PricingRuleInput{
		ServiceType: enums.ServiceType(b.ServiceType),
		Zone:        b.Zone,
		MinWeightKg: b.MinWeightKg,
		MaxWeightKg: b.MaxWeightKg,
		BasePrice:   b.BasePrice,
		PricePerKg:  b.PricePerKg,
	}
}

func AdminListPricingRules(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		onlyActive, err := validators.ParseQueryBool(r, "active", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rules, err := svc.ListPricingRules(r.Context(), onlyActive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rules)
	}
}

func AdminCreatePricingRule(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		var body pricingRuleBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.CreatePricingRule(r.Context(), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rule)
	}
}

func AdminUpdatePricingRule(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		id, err := parseIDParam(r, "ruleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body pricingRuleBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rule, err := svc.UpdatePricingRule(r.Context(), id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rule)
	}
}

type setActiveBody struct {
	Active *bool `json:"active" validate:"required"`
}

func AdminSetPricingRuleActive(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		id, err := parseIDParam(r, "ruleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setActiveBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetPricingRuleActive(r.Context(), id, *body.Active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"active": *body.Active})
	}
}

type insuranceRateBody struct {
	MinValue       decimal.Decimal `json:"min_value" validate:"required"`
	MaxValue       decimal.Decimal `json:"max_value" validate:"required"`
	RatePercentage decimal.Decimal `json:"rate_percentage" validate:"required"`
}

func (b insuranceRateBody) toInput() pricing.InsuranceRateInput {
	return pricing.InsuranceRateInput{
		MinValue:       b.MinValue,
		MaxValue:       b.MaxValue,
		RatePercentage: b.RatePercentage,
	}
}

func AdminListInsuranceRates(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		onlyActive, err := validators.ParseQueryBool(r, "active", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rates, err := svc.ListInsuranceRates(r.Context(), onlyActive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rates)
	}
}

func AdminCreateInsuranceRate(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		var body insuranceRateBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rate, err := svc.CreateInsuranceRate(r.Context(), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rate)
	}
}

func AdminUpdateInsuranceRate(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		id, err := parseIDParam(r, "rateID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body insuranceRateBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rate, err := svc.UpdateInsuranceRate(r.Context(), id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rate)
	}
}

func AdminSetInsuranceRateActive(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		id, err := parseIDParam(r, "rateID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setActiveBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetInsuranceRateActive(r.Context(), id, *body.Active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"active": *body.Active})
	}
}
