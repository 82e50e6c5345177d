package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mypackmx/logistics-backend/api/responses"
	"github.com/mypackmx/logistics-backend/api/validators"
	"github.com/mypackmx/logistics-backend/internal/pricing"
	pkgerrors "github.com/mypackmx/logistics-backend/pkg/errors"
	"github.com/mypackmx/logistics-backend/pkg/logger"
)

type quoteRequestBody struct {
	WeightKg      decimal.Decimal `json:"weight_kg" validate:"required"`
	LengthCm      decimal.Decimal `json:"length_cm" validate:"required"`
	WidthCm       decimal.Decimal `json:"width_cm" validate:"required"`
	HeightCm      decimal.Decimal `json:"height_cm" validate:"required"`
	Zone          string          `json:"zone"`
	DeclaredValue decimal.Decimal `json:"declared_value"`
	Insured       bool            `json:"insured"`
}

// Quote prices a prospective shipment. Public: customers quote before they
// register.
func Quote(svc pricing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		var body quoteRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Quote(r.Context(), pricing.QuoteRequest{
			WeightKg:      body.WeightKg,
			LengthCm:      body.LengthCm,
			WidthCm:       body.WidthCm,
			HeightCm:      body.HeightCm,
			Zone:          body.Zone,
			DeclaredValue: body.DeclaredValue,
			Insured:       body.Insured,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
