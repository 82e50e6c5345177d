package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/internal/pricing"
	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	pkgerrors "github.com/mypackmx/logistics-backend/pkg/errors"
	"github.com/mypackmx/logistics-backend/pkg/logger"
	"github.com/mypackmx/logistics-backend/pkg/outbox"
	"github.com/mypackmx/logistics-backend/pkg/tracking"
	"github.com/mypackmx/logistics-backend/pkg/types"
)

// StatusAwaitingPayment is the denormalized status a shipment carries from
// creation until its Stripe session completes. It is not part of any route's
// state list.
const StatusAwaitingPayment = "Pendiente de Pago"

const trackingAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type pricer interface {
	Price(ctx context.Context, req pricing.QuoteRequest) (*pricing.Breakdown, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service creates priced, unpaid shipments and their Stripe Checkout
// sessions.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*CheckoutResult, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	pricer    pricer
	stripe    StripeCheckoutClient
	outbox    outboxPublisher
	logg      *logger.Logger
	publicURL string
	now       func() time.Time
}

// NewService wires the checkout service. publicURL is the storefront base
// used for Stripe redirect targets.
func NewService(repo Repository, tx txRunner, pricer pricer, stripeClient StripeCheckoutClient, ob outboxPublisher, logg *logger.Logger, publicURL string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if pricer == nil {
		return nil, fmt.Errorf("pricing service required")
	}
	if stripeClient == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		pricer:    pricer,
		stripe:    stripeClient,
		outbox:    ob,
		logg:      logg,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}, nil
}

func (s *service) Execute(ctx context.Context, userID uuid.UUID, input CheckoutInput) (*CheckoutResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	// Pricing failures surface before anything is written.
	breakdown, err := s.pricer.Price(ctx, pricing.QuoteRequest{
		WeightKg:      input.WeightKg,
		LengthCm:      input.LengthCm,
		WidthCm:       input.WidthCm,
		HeightCm:      input.HeightCm,
		Zone:          input.State,
		DeclaredValue: input.DeclaredValue,
		Insured:       input.Insured,
	})
	if err != nil {
		return nil, err
	}

	trackingNumber, err := s.uniqueTrackingNumber(ctx)
	if err != nil {
		return nil, err
	}

	dims, err := types.NewDimensions(input.LengthCm, input.WidthCm, input.HeightCm)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dimensions")
	}

	status := StatusAwaitingPayment
	shipment := &models.Shipment{
		TrackingNumber: trackingNumber,
		UserID:         userID,
		RecipientName:  strings.TrimSpace(input.RecipientName),
		RecipientPhone: input.RecipientPhone,
		Street:         strings.TrimSpace(input.Street),
		City:           strings.TrimSpace(input.City),
		State:          strings.TrimSpace(input.State),
		PostalCode:     strings.TrimSpace(input.PostalCode),
		WeightKg:       input.WeightKg,
		Dimensions:     dims,
		DeclaredValue:  input.DeclaredValue,
		Insured:        input.Insured,
		ServiceType:    breakdown.ServiceType,
		ServiceCost:    breakdown.ServiceCost,
		InsuranceCost:  breakdown.InsuranceCost,
		TotalCost:      breakdown.TotalCost,
		CurrentStatus:  &status,
		PaymentStatus:  enums.PaymentStatusPending,
		Version:        1,
	}
	if breakdown.Rule != nil {
		ruleID := breakdown.Rule.ID
		shipment.PricingRuleID = &ruleID
	}
	if breakdown.Rate != nil {
		rateID := breakdown.Rate.ID
		shipment.InsuranceRateID = &rateID
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		created, err := repo.CreateShipment(ctx, shipment)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipment")
		}
		shipment = created

		if s.outbox != nil {
			event := outbox.DomainEvent{
				EventType:     enums.EventShipmentCreated,
				AggregateType: enums.AggregateShipment,
				AggregateID:   created.ID,
				Actor:         &outbox.ActorRef{UserID: userID, Role: enums.UserRoleCustomer.String()},
				Data: map[string]any{
					"tracking_number": created.TrackingNumber,
					"total_cost":      created.TotalCost,
					"service_type":    created.ServiceType,
				},
				Version: 1,
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit outbox event")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	session, err := s.createSession(ctx, shipment)
	if err != nil {
		// The shipment stays pending; the expiry job reaps it if the
		// customer never retries.
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe checkout session")
	}
	if err := s.repo.UpdateShipment(ctx, shipment.ID, map[string]any{"stripe_session_id": session.ID}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store stripe session")
	}
	shipment.StripeSessionID = &session.ID

	s.logg.Info(s.logg.WithTrackingNumber(ctx, shipment.TrackingNumber), "checkout session created")
	return &CheckoutResult{
		Shipment:   shipment,
		SessionID:  session.ID,
		SessionURL: session.URL,
	}, nil
}

func (s *service) uniqueTrackingNumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < trackingAttempts; attempt++ {
		candidate, err := tracking.New(s.now())
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate tracking number")
		}
		exists, err := s.repo.TrackingNumberExists(ctx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check tracking number")
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a tracking number")
}

func (s *service) createSession(ctx context.Context, shipment *models.Shipment) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyMXN)),
					UnitAmount: stripe.Int64(amountCents(shipment.TotalCost)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Envio %s", shipment.TrackingNumber)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.publicURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.publicURL + "/checkout/cancel"),
	}
	params.AddMetadata("shipment_id", shipment.ID.String())
	params.AddMetadata("tracking_number", shipment.TrackingNumber)
	return s.stripe.CreateSession(ctx, params)
}

func amountCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func validateInput(input CheckoutInput) error {
	required := map[string]string{
		"recipient name": input.RecipientName,
		"street":         input.Street,
		"city":           input.City,
		"state":          input.State,
		"postal code":    input.PostalCode,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, field+" required")
		}
	}
	if !input.WeightKg.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "weight must be positive")
	}
	if input.Insured && !input.DeclaredValue.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "declared value required for insurance")
	}
	return nil
}
