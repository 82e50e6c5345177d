package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/internal/shipments"
	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	"github.com/mypackmx/logistics-backend/pkg/logger"
	"github.com/mypackmx/logistics-backend/pkg/outbox"
)

// StatusPaymentExpired is the terminal display state for shipments whose
// checkout session was never completed.
const StatusPaymentExpired = "Pago Expirado"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// UnpaidShipmentsJobParams configure the unpaid shipment reaper.
type UnpaidShipmentsJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Shipments shipments.Repository
	Outbox    outboxEmitter
	UnpaidTTL time.Duration
}

// NewUnpaidShipmentsJob builds the cron job that fails shipments whose
// Stripe checkout was abandoned.
func NewUnpaidShipmentsJob(params UnpaidShipmentsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Shipments == nil {
		return nil, fmt.Errorf("shipments repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	ttl := params.UnpaidTTL
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &unpaidShipmentsJob{
		logg:      params.Logger,
		db:        params.DB,
		shipments: params.Shipments,
		outbox:    params.Outbox,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

type unpaidShipmentsJob struct {
	logg      *logger.Logger
	db        txRunner
	shipments shipments.Repository
	outbox    outboxEmitter
	ttl       time.Duration
	now       func() time.Time
}

func (j *unpaidShipmentsJob) Name() string { return "unpaid-shipments" }

func (j *unpaidShipmentsJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.shipments.FindUnpaidBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query unpaid shipments: %w", err)
	}

	var errs []error
	expired := 0
	for _, shipment := range stale {
		if err := j.expireShipment(ctx, shipment); err != nil {
			errs = append(errs, fmt.Errorf("expire %s: %w", shipment.TrackingNumber, err))
			continue
		}
		expired++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(stale),
		"expired":    expired,
	})
	j.logg.Info(logCtx, "unpaid shipment sweep complete")
	return multierr.Combine(errs...)
}

func (j *unpaidShipmentsJob) expireShipment(ctx context.Context, shipment models.Shipment) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.shipments.WithTx(tx)
		current, err := repo.Find(ctx, shipment.ID)
		if err != nil {
			return err
		}
		if current.PaymentStatus != enums.PaymentStatusPending {
			return nil
		}

		now := j.now().UTC()
		ok, err := repo.UpdateVersioned(ctx, current.ID, current.Version, map[string]any{
			"payment_status": enums.PaymentStatusFailed,
			"current_status": StatusPaymentExpired,
		})
		if err != nil {
			return err
		}
		if !ok {
			// A concurrent writer (likely the payment webhook) won; leave
			// the shipment alone.
			return nil
		}

		record := &models.StatusUpdate{
			ShipmentID: current.ID,
			Status:     StatusPaymentExpired,
			UpdateType: enums.UpdateTypeAutomatic,
			OccurredAt: now,
		}
		if err := repo.InsertStatusUpdate(ctx, record); err != nil {
			return err
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventShipmentExpired,
			AggregateType: enums.AggregateShipment,
			AggregateID:   current.ID,
			Version:       1,
			OccurredAt:    now,
			Data: map[string]any{
				"tracking_number": current.TrackingNumber,
				"user_id":         current.UserID,
			},
		}
		return j.outbox.Emit(ctx, tx, event)
	})
}
