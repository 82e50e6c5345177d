package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/internal/shipments"
	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	"github.com/mypackmx/logistics-backend/pkg/logger"
	"github.com/mypackmx/logistics-backend/pkg/outbox"
	"github.com/mypackmx/logistics-backend/pkg/pagination"
)

type stubShipmentRepo struct {
	shipments map[uuid.UUID]*models.Shipment
	records   []models.StatusUpdate
}

func newStubShipmentRepo() *stubShipmentRepo {
	return &stubShipmentRepo{shipments: map[uuid.UUID]*models.Shipment{}}
}

func (s *stubShipmentRepo) WithTx(_ *gorm.DB) shipments.Repository { return s }

func (s *stubShipmentRepo) Find(_ context.Context, id uuid.UUID) (*models.Shipment, error) {
	if shipment, ok := s.shipments[id]; ok {
		copied := *shipment
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubShipmentRepo) FindByTracking(_ context.Context, trackingNumber string) (*models.Shipment, error) {
	for _, shipment := range s.shipments {
		if shipment.TrackingNumber == trackingNumber {
			copied := *shipment
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubShipmentRepo) ListByUser(_ context.Context, _ uuid.UUID, _ int, _ *pagination.Cursor) ([]models.Shipment, error) {
	return nil, nil
}

func (s *stubShipmentRepo) ListByAssignmentStatus(_ context.Context, _ []enums.AssignmentStatus, _ int, _ *pagination.Cursor) ([]models.Shipment, error) {
	return nil, nil
}

func (s *stubShipmentRepo) FindUnpaidBefore(_ context.Context, cutoff time.Time) ([]models.Shipment, error) {
	var out []models.Shipment
	for _, shipment := range s.shipments {
		if shipment.PaymentStatus == enums.PaymentStatusPending && shipment.CreatedAt.Before(cutoff) {
			out = append(out, *shipment)
		}
	}
	return out, nil
}

func (s *stubShipmentRepo) UpdateVersioned(_ context.Context, id uuid.UUID, version int, updates map[string]any) (bool, error) {
	shipment, ok := s.shipments[id]
	if !ok || shipment.Version != version {
		return false, nil
	}
	if v, ok := updates["payment_status"].(enums.PaymentStatus); ok {
		shipment.PaymentStatus = v
	}
	if v, ok := updates["current_status"].(string); ok {
		shipment.CurrentStatus = &v
	}
	shipment.Version = version + 1
	return true, nil
}

func (s *stubShipmentRepo) InsertStatusUpdate(_ context.Context, record *models.StatusUpdate) error {
	s.records = append(s.records, *record)
	return nil
}

func (s *stubShipmentRepo) ListStatusUpdates(_ context.Context, _ uuid.UUID) ([]models.StatusUpdate, error) {
	return nil, nil
}

func (s *stubShipmentRepo) FindRoute(_ context.Context, _ uuid.UUID) (*models.DeliveryRoute, error) {
	return nil, gorm.ErrRecordNotFound
}

type stubTxRunner struct{}

func (s *stubTxRunner) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func seedShipment(repo *stubShipmentRepo, payment enums.PaymentStatus, age time.Duration) *models.Shipment {
	shipment := &models.Shipment{
		ID:             uuid.New(),
		TrackingNumber: "MPM-20250301-0" + uuid.NewString()[:4],
		UserID:         uuid.New(),
		PaymentStatus:  payment,
		Version:        1,
		CreatedAt:      time.Now().Add(-age),
	}
	repo.shipments[shipment.ID] = shipment
	return shipment
}

func newUnpaidJob(t *testing.T, repo *stubShipmentRepo, ob *stubOutbox) Job {
	t.Helper()
	job, err := NewUnpaidShipmentsJob(UnpaidShipmentsJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "cron-test"}),
		DB:        &stubTxRunner{},
		Shipments: repo,
		Outbox:    ob,
		UnpaidTTL: 72 * time.Hour,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	return job
}

func TestUnpaidJobExpiresStaleShipments(t *testing.T) {
	repo := newStubShipmentRepo()
	ob := &stubOutbox{}
	stale := seedShipment(repo, enums.PaymentStatusPending, 80*time.Hour)

	if err := newUnpaidJob(t, repo, ob).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	updated := repo.shipments[stale.ID]
	if updated.PaymentStatus != enums.PaymentStatusFailed {
		t.Fatalf("expected payment failed, got %s", updated.PaymentStatus)
	}
	if updated.CurrentStatus == nil || *updated.CurrentStatus != StatusPaymentExpired {
		t.Fatal("expected expired display status")
	}
	if updated.Version != 2 {
		t.Fatalf("expected version bump, got %d", updated.Version)
	}
	if len(repo.records) != 1 || repo.records[0].UpdateType != enums.UpdateTypeAutomatic {
		t.Fatalf("expected one automatic history record, got %+v", repo.records)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventShipmentExpired {
		t.Fatalf("expected shipment_expired event, got %+v", ob.events)
	}
}

func TestUnpaidJobLeavesRecentShipmentsAlone(t *testing.T) {
	repo := newStubShipmentRepo()
	ob := &stubOutbox{}
	recent := seedShipment(repo, enums.PaymentStatusPending, 2*time.Hour)

	if err := newUnpaidJob(t, repo, ob).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if repo.shipments[recent.ID].PaymentStatus != enums.PaymentStatusPending {
		t.Fatal("expected recent shipment untouched")
	}
	if len(ob.events) != 0 {
		t.Fatal("expected no events")
	}
}

func TestUnpaidJobSkipsConcurrentlyPaidShipment(t *testing.T) {
	repo := newStubShipmentRepo()
	ob := &stubOutbox{}
	stale := seedShipment(repo, enums.PaymentStatusPending, 80*time.Hour)
	staleCopy := *stale
	// Simulate the webhook winning between the sweep query and the
	// transactional recheck.
	repo.shipments[stale.ID].PaymentStatus = enums.PaymentStatusPaid

	job := newUnpaidJob(t, repo, ob).(*unpaidShipmentsJob)
	if err := job.expireShipment(context.Background(), staleCopy); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if repo.shipments[stale.ID].PaymentStatus != enums.PaymentStatusPaid {
		t.Fatal("expected paid shipment untouched")
	}
	if len(ob.events) != 0 {
		t.Fatal("expected no expiry event for a paid shipment")
	}
}
