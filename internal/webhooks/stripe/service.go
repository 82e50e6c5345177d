package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/internal/shipments"
	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	pkgerrors "github.com/mypackmx/logistics-backend/pkg/errors"
	"github.com/mypackmx/logistics-backend/pkg/logger"
	"github.com/mypackmx/logistics-backend/pkg/metrics"
	"github.com/mypackmx/logistics-backend/pkg/outbox"
)

// StatusPaymentConfirmed is the denormalized status stamped when a Stripe
// session completes. Routes typically begin with the same state name.
const StatusPaymentConfirmed = "Pago Confirmado"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type eventGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type ServiceParams struct {
	ShipmentsRepo     shipments.Repository
	TransactionRunner txRunner
	Guard             eventGuard
	Guides            GuideIssuer
	Outbox            outboxPublisher
	Logger            *logger.Logger
	Metrics           *metrics.ShipmentMetrics
}

// Service applies Stripe events to shipments. Payment confirmation and
// guide issuance are separate steps: a failed guide upload or notification
// never rolls back the paid transition.
type Service struct {
	repo    shipments.Repository
	tx      txRunner
	guard   eventGuard
	guides  GuideIssuer
	outbox  outboxPublisher
	logg    *logger.Logger
	metrics *metrics.ShipmentMetrics
	now     func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.ShipmentsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "shipments repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	return &Service{
		repo:    params.ShipmentsRepo,
		tx:      params.TransactionRunner,
		guard:   params.Guard,
		guides:  params.Guides,
		outbox:  params.Outbox,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return s.handleSessionCompleted(ctx, event)
	default:
		s.metrics.IncWebhook("ignored")
		return nil
	}
}

func (s *Service) handleSessionCompleted(ctx context.Context, event *stripe.Event) error {
	duplicate, err := s.guard.CheckAndMark(ctx, string(event.ID))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency check")
	}
	if duplicate {
		s.metrics.IncWebhook("duplicate")
		return nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}
	shipmentID, err := uuid.Parse(session.Metadata["shipment_id"])
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "shipment id missing from session metadata")
	}

	var shipment *models.Shipment
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.Find(ctx, shipmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		if loaded.PaymentStatus == enums.PaymentStatusPaid {
			// Stripe re-sent an event the guard missed. Nothing to do.
			shipment = loaded
			return nil
		}

		now := s.now().UTC()
		patch := map[string]any{
			"payment_status": enums.PaymentStatusPaid,
			"paid_at":        now,
			"current_status": StatusPaymentConfirmed,
		}
		ok, err := repo.UpdateVersioned(ctx, loaded.ID, loaded.Version, patch)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark shipment paid")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "shipment was modified concurrently")
		}

		record := models.StatusUpdate{
			ShipmentID: loaded.ID,
			Status:     StatusPaymentConfirmed,
			UpdateType: enums.UpdateTypeAutomatic,
			OccurredAt: now,
		}
		if err := repo.InsertStatusUpdate(ctx, &record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert status update")
		}

		if s.outbox != nil {
			paidEvent := outbox.DomainEvent{
				EventType:     enums.EventShipmentPaid,
				AggregateType: enums.AggregateShipment,
				AggregateID:   loaded.ID,
				Data: map[string]any{
					"tracking_number":   loaded.TrackingNumber,
					"user_id":           loaded.UserID,
					"stripe_session_id": session.ID,
					"total_cost":        loaded.TotalCost,
				},
				Version: 1,
			}
			if err := s.outbox.Emit(ctx, tx, paidEvent); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit paid event")
			}
		}

		shipment, err = repo.Find(ctx, loaded.ID)
		return err
	})
	if err != nil {
		// Release the mark so Stripe's retry gets another shot.
		if delErr := s.guard.Delete(ctx, string(event.ID)); delErr != nil {
			s.logg.Error(ctx, "release idempotency mark", delErr)
		}
		s.metrics.IncWebhook("failed")
		return err
	}

	s.issueGuide(ctx, shipment)
	s.metrics.IncWebhook("processed")
	return nil
}

// issueGuide runs after the payment commit. Any failure here is logged and
// swallowed; the paid transition must stand.
func (s *Service) issueGuide(ctx context.Context, shipment *models.Shipment) {
	if s.guides == nil || shipment == nil {
		return
	}
	if shipment.GuidePDFURL != nil {
		return
	}

	qrURL, pdfURL, err := s.guides.Issue(ctx, shipment)
	if err != nil {
		s.logg.Error(s.logg.WithTrackingNumber(ctx, shipment.TrackingNumber), "issue shipping guide", err)
		s.metrics.IncWebhook("guide_failed")
		return
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := repo.Find(ctx, shipment.ID)
		if err != nil {
			return err
		}
		patch := map[string]any{
			"qr_code_url":   qrURL,
			"guide_pdf_url": pdfURL,
		}
		ok, err := repo.UpdateVersioned(ctx, loaded.ID, loaded.Version, patch)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("shipment %s changed while storing guide urls", loaded.ID)
		}

		if s.outbox == nil {
			return nil
		}
		guideEvent := outbox.DomainEvent{
			EventType:     enums.EventGuideIssued,
			AggregateType: enums.AggregateShipment,
			AggregateID:   loaded.ID,
			Data: map[string]any{
				"tracking_number": loaded.TrackingNumber,
				"user_id":         loaded.UserID,
				"guide_pdf_url":   pdfURL,
				"qr_code_url":     qrURL,
			},
			Version: 1,
		}
		return s.outbox.Emit(ctx, tx, guideEvent)
	})
	if err != nil {
		s.logg.Error(s.logg.WithTrackingNumber(ctx, shipment.TrackingNumber), "store shipping guide", err)
		s.metrics.IncWebhook("guide_failed")
	}
}
