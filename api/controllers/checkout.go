package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mypackmx/logistics-backend/api/middleware"
	"github.com/mypackmx/logistics-backend/api/responses"
	"github.com/mypackmx/logistics-backend/api/validators"
	"github.com/mypackmx/logistics-backend/internal/checkout"
	pkgerrors "github.com/mypackmx/logistics-backend/pkg/errors"
	"github.com/mypackmx/logistics-backend/pkg/logger"
)

type checkoutRequestBody struct {
	RecipientName  string  `json:"recipient_name" validate:"required"`
	RecipientPhone *string `json:"recipient_phone,omitempty"`
	Street         string  `json:"street" validate:"required"`
	City           string  `json:"city" validate:"required"`
	State          string  `json:"state" validate:"required"`
	PostalCode     string  `json:"postal_code" validate:"required"`

	WeightKg      decimal.Decimal `json:"weight_kg" validate:"required"`
	LengthCm      decimal.Decimal `json:"length_cm" validate:"required"`
	WidthCm       decimal.Decimal `json:"width_cm" validate:"required"`
	HeightCm      decimal.Decimal `json:"height_cm" validate:"required"`
	DeclaredValue decimal.Decimal `json:"declared_value"`
	Insured       bool            `json:"insured"`
}

// Checkout creates a shipment for the authenticated customer and opens the
// Stripe session that pays for it.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var body checkoutRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), userID, checkout.CheckoutInput{
			RecipientName:  body.RecipientName,
			RecipientPhone: body.RecipientPhone,
			Street:         body.Street,
			City:           body.City,
			State:          body.State,
			PostalCode:     body.PostalCode,
			WeightKg:       body.WeightKg,
			LengthCm:       body.LengthCm,
			WidthCm:        body.WidthCm,
			HeightCm:       body.HeightCm,
			DeclaredValue:  body.DeclaredValue,
			Insured:        body.Insured,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
