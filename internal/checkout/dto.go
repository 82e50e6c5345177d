package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
)

// CheckoutInput captures everything a customer submits to create and pay
// for a shipment.
type CheckoutInput struct {
	RecipientName  string
	RecipientPhone *string
	Street         string
	City           string
	State          string
	PostalCode     string

	WeightKg      decimal.Decimal
	LengthCm      decimal.Decimal
	WidthCm       decimal.Decimal
	HeightCm      decimal.Decimal
	DeclaredValue decimal.Decimal
	Insured       bool
}

// CheckoutResult is the created shipment plus the Stripe session the client
// must be redirected to.
type CheckoutResult struct {
	Shipment   *models.Shipment `json:"shipment"`
	SessionID  string           `json:"session_id"`
	SessionURL string           `json:"session_url"`
}
