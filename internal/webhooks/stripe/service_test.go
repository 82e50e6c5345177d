package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/mypackmx/logistics-backend/internal/shipments"
	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	"github.com/mypackmx/logistics-backend/pkg/logger"
	"github.com/mypackmx/logistics-backend/pkg/outbox"
	"github.com/mypackmx/logistics-backend/pkg/pagination"
)

type stubRepo struct {
	shipments map[uuid.UUID]*models.Shipment
	updates   []models.StatusUpdate
}

func newStubRepo() *stubRepo {
	return &stubRepo{shipments: map[uuid.UUID]*models.Shipment{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) shipments.Repository { return s }

func (s *stubRepo) Find(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	shipment, ok := s.shipments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *shipment
	return &copied, nil
}

func (s *stubRepo) FindByTracking(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.Shipment, error) {
	return nil, nil
}

func (s *stubRepo) ListByAssignmentStatus(ctx context.Context, statuses []enums.AssignmentStatus, limit int, cursor *pagination.Cursor) ([]models.Shipment, error) {
	return nil, nil
}

func (s *stubRepo) FindUnpaidBefore(ctx context.Context, cutoff time.Time) ([]models.Shipment, error) {
	return nil, nil
}

func (s *stubRepo) UpdateVersioned(ctx context.Context, id uuid.UUID, version int, updates map[string]any) (bool, error) {
	shipment, ok := s.shipments[id]
	if !ok || shipment.Version != version {
		return false, nil
	}
	for key, value := range updates {
		switch key {
		case "payment_status":
			shipment.PaymentStatus = value.(enums.PaymentStatus)
		case "paid_at":
			at := value.(time.Time)
			shipment.PaidAt = &at
		case "current_status":
			status := value.(string)
			shipment.CurrentStatus = &status
		case "qr_code_url":
			url := value.(string)
			shipment.QRCodeURL = &url
		case "guide_pdf_url":
			url := value.(string)
			shipment.GuidePDFURL = &url
		default:
			return false, fmt.Errorf("unexpected patch column %s", key)
		}
	}
	shipment.Version = version + 1
	return true, nil
}

func (s *stubRepo) InsertStatusUpdate(ctx context.Context, record *models.StatusUpdate) error {
	s.updates = append(s.updates, *record)
	return nil
}

func (s *stubRepo) ListStatusUpdates(ctx context.Context, shipmentID uuid.UUID) ([]models.StatusUpdate, error) {
	return nil, nil
}

func (s *stubRepo) FindRoute(ctx context.Context, id uuid.UUID) (*models.DeliveryRoute, error) {
	return nil, gorm.ErrRecordNotFound
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubGuard struct {
	seen    map[string]bool
	deleted []string
}

func newStubGuard() *stubGuard { return &stubGuard{seen: map[string]bool{}} }

func (s *stubGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if s.seen[eventID] {
		return true, nil
	}
	s.seen[eventID] = true
	return false, nil
}

func (s *stubGuard) Delete(ctx context.Context, eventID string) error {
	delete(s.seen, eventID)
	s.deleted = append(s.deleted, eventID)
	return nil
}

type stubIssuer struct {
	err error
}

func (s *stubIssuer) Issue(ctx context.Context, shipment *models.Shipment) (string, string, error) {
	if s.err != nil {
		return "", "", s.err
	}
	return "https://storage.test/qr/" + shipment.TrackingNumber + ".png",
		"https://storage.test/guides/" + shipment.TrackingNumber + ".pdf", nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func seedPendingShipment(repo *stubRepo) *models.Shipment {
	shipment := &models.Shipment{
		ID:             uuid.New(),
		TrackingNumber: "MPM-20250301-00042",
		UserID:         uuid.New(),
		PaymentStatus:  enums.PaymentStatusPending,
		Version:        1,
	}
	repo.shipments[shipment.ID] = shipment
	return shipment
}

func sessionCompletedEvent(t *testing.T, shipmentID uuid.UUID) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"id":       "cs_test_123",
		"metadata": map[string]string{"shipment_id": shipmentID.String()},
	})
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	return &stripe.Event{
		ID:   "evt_1",
		Type: stripe.EventTypeCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	}
}

func newTestService(t *testing.T, repo *stubRepo, guard *stubGuard, issuer GuideIssuer) (*Service, *stubOutbox) {
	t.Helper()
	ob := &stubOutbox{}
	svc, err := NewService(ServiceParams{
		ShipmentsRepo:     repo,
		TransactionRunner: stubTxRunner{},
		Guard:             guard,
		Guides:            issuer,
		Outbox:            ob,
		Logger:            logger.New(logger.Options{ServiceName: "webhook-test"}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, ob
}

func TestHandleSessionCompleted(t *testing.T) {
	repo := newStubRepo()
	issuer := &stubIssuer{}
	svc, ob := newTestService(t, repo, newStubGuard(), issuer)
	shipment := seedPendingShipment(repo)

	if err := svc.HandleEvent(context.Background(), sessionCompletedEvent(t, shipment.ID)); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	stored := repo.shipments[shipment.ID]
	if stored.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid, got %s", stored.PaymentStatus)
	}
	if stored.PaidAt == nil {
		t.Fatal("expected paid_at stamp")
	}
	if stored.CurrentStatus == nil || *stored.CurrentStatus != StatusPaymentConfirmed {
		t.Fatal("expected payment-confirmed status")
	}
	if stored.QRCodeURL == nil || stored.GuidePDFURL == nil {
		t.Fatal("expected guide urls stored")
	}

	if len(repo.updates) != 1 || repo.updates[0].UpdateType != enums.UpdateTypeAutomatic {
		t.Fatalf("expected one automatic status record, got %+v", repo.updates)
	}

	if len(ob.events) != 2 {
		t.Fatalf("expected paid + guide events, got %d", len(ob.events))
	}
	if ob.events[0].EventType != enums.EventShipmentPaid || ob.events[1].EventType != enums.EventGuideIssued {
		t.Fatalf("unexpected event types: %+v", ob.events)
	}
}

func TestHandleSessionCompletedDuplicate(t *testing.T) {
	repo := newStubRepo()
	guard := newStubGuard()
	svc, ob := newTestService(t, repo, guard, &stubIssuer{})
	shipment := seedPendingShipment(repo)
	event := sessionCompletedEvent(t, shipment.ID)

	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("second delivery: %v", err)
	}

	if len(repo.updates) != 1 {
		t.Fatalf("duplicate delivery must not append history, got %d records", len(repo.updates))
	}
	if len(ob.events) != 2 {
		t.Fatalf("duplicate delivery must not emit again, got %d events", len(ob.events))
	}
}

func TestHandleSessionCompletedAlreadyPaid(t *testing.T) {
	repo := newStubRepo()
	svc, ob := newTestService(t, repo, newStubGuard(), &stubIssuer{})
	shipment := seedPendingShipment(repo)
	repo.shipments[shipment.ID].PaymentStatus = enums.PaymentStatusPaid
	url := "https://storage.test/guides/existing.pdf"
	repo.shipments[shipment.ID].GuidePDFURL = &url

	if err := svc.HandleEvent(context.Background(), sessionCompletedEvent(t, shipment.ID)); err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if len(repo.updates) != 0 || len(ob.events) != 0 {
		t.Fatal("paid shipment must not be transitioned again")
	}
}

func TestHandleSessionCompletedGuideFailureKeepsPayment(t *testing.T) {
	repo := newStubRepo()
	issuer := &stubIssuer{err: errors.New("bucket unavailable")}
	svc, ob := newTestService(t, repo, newStubGuard(), issuer)
	shipment := seedPendingShipment(repo)

	if err := svc.HandleEvent(context.Background(), sessionCompletedEvent(t, shipment.ID)); err != nil {
		t.Fatalf("guide failure must not fail the webhook: %v", err)
	}

	stored := repo.shipments[shipment.ID]
	if stored.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatal("payment transition must stand when guide issuance fails")
	}
	if stored.GuidePDFURL != nil {
		t.Fatal("no guide url should be stored on failure")
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventShipmentPaid {
		t.Fatalf("expected only the paid event, got %+v", ob.events)
	}
}

func TestHandleEventReleasesGuardOnFailure(t *testing.T) {
	repo := newStubRepo()
	guard := newStubGuard()
	svc, _ := newTestService(t, repo, guard, &stubIssuer{})

	// No shipment seeded: the transaction fails with not found.
	err := svc.HandleEvent(context.Background(), sessionCompletedEvent(t, uuid.New()))
	if err == nil {
		t.Fatal("expected error for unknown shipment")
	}
	if len(guard.deleted) != 1 {
		t.Fatal("guard mark must be released so the retry can reprocess")
	}
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	repo := newStubRepo()
	guard := newStubGuard()
	svc, _ := newTestService(t, repo, guard, &stubIssuer{})

	event := &stripe.Event{
		ID:   "evt_other",
		Type: stripe.EventTypeInvoicePaid,
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	if err := svc.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unhandled types must be acknowledged: %v", err)
	}
	if len(guard.seen) != 0 {
		t.Fatal("ignored events must not consume idempotency marks")
	}
}
