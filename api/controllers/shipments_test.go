package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mypackmx/logistics-backend/api/middleware"
	"github.com/mypackmx/logistics-backend/internal/shipments"
	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	pkgerrors "github.com/mypackmx/logistics-backend/pkg/errors"
)

type stubShipmentService struct {
	page    *shipments.ShipmentPage
	detail  *shipments.ShipmentDetail
	view    *shipments.TrackingView
	scanned *models.Shipment
	err     error

	scanInput    *shipments.ScanInput
	assignInput  *shipments.AssignRouteInput
	advanceInput *shipments.AdvanceStatusInput
	bulkInput    *shipments.BulkAdvanceInput
	listStatus   enums.AssignmentStatus
}

func (s *stubShipmentService) GetForUser(ctx context.Context, userID, shipmentID uuid.UUID) (*shipments.ShipmentDetail, error) {
	return s.detail, s.err
}

func (s *stubShipmentService) ListForUser(ctx context.Context, userID uuid.UUID, params shipments.ListParams) (*shipments.ShipmentPage, error) {
	return s.page, s.err
}

func (s *stubShipmentService) Track(ctx context.Context, trackingNumber string) (*shipments.TrackingView, error) {
	return s.view, s.err
}

func (s *stubShipmentService) ListByAssignment(ctx context.Context, status enums.AssignmentStatus, params shipments.ListParams) (*shipments.ShipmentPage, error) {
	s.listStatus = status
	return s.page, s.err
}

func (s *stubShipmentService) AssignRoute(ctx context.Context, input shipments.AssignRouteInput) (*models.Shipment, error) {
	s.assignInput = &input
	return s.scanned, s.err
}

func (s *stubShipmentService) AdvanceStatus(ctx context.Context, input shipments.AdvanceStatusInput) (*models.Shipment, error) {
	s.advanceInput = &input
	return s.scanned, s.err
}

func (s *stubShipmentService) BulkAdvanceStatus(ctx context.Context, input shipments.BulkAdvanceInput) (*shipments.BulkAdvanceResult, error) {
	s.bulkInput = &input
	return &shipments.BulkAdvanceResult{Updated: input.ShipmentIDs}, s.err
}

func (s *stubShipmentService) Scan(ctx context.Context, input shipments.ScanInput) (*models.Shipment, error) {
	s.scanInput = &input
	return s.scanned, s.err
}

func authedContext(ctx context.Context, userID uuid.UUID, role enums.UserRole) context.Context {
	ctx = middleware.WithUserID(ctx, userID.String())
	return middleware.WithRole(ctx, string(role))
}

func TestMyShipmentsSuccess(t *testing.T) {
	svc := &stubShipmentService{page: &shipments.ShipmentPage{
		Items: []models.Shipment{{TrackingNumber: "MPM-20250301-00042"}},
	}}
	handler := MyShipments(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shipments?limit=10", nil)
	req = req.WithContext(authedContext(req.Context(), uuid.New(), enums.UserRoleCustomer))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data shipments.ShipmentPage `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Items) != 1 || envelope.Data.Items[0].TrackingNumber != "MPM-20250301-00042" {
		t.Fatalf("unexpected page %+v", envelope.Data)
	}
}

func TestMyShipmentsRequiresAuth(t *testing.T) {
	handler := MyShipments(&stubShipmentService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shipments", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestMyShipmentDetailRejectsBadID(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/v1/shipments/{shipmentID}", MyShipmentDetail(&stubShipmentService{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shipments/not-a-uuid", nil)
	req = req.WithContext(authedContext(req.Context(), uuid.New(), enums.UserRoleCustomer))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestPublicTrackingNotFound(t *testing.T) {
	svc := &stubShipmentService{err: pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")}
	router := chi.NewRouter()
	router.Get("/api/public/tracking/{trackingNumber}", PublicTracking(svc, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/public/tracking/MPM-20250301-99999", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestAgentScanAdvancesShipment(t *testing.T) {
	agentID := uuid.New()
	svc := &stubShipmentService{scanned: &models.Shipment{TrackingNumber: "MPM-20250301-00042"}}
	handler := AgentScan(svc, nil)

	payload := []byte(`{"tracking_number":"MPM-20250301-00042","status":"En Transito","location":"CDMX Hub"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/agent/scan", bytes.NewReader(payload))
	req = req.WithContext(authedContext(req.Context(), agentID, enums.UserRoleEmployee))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.scanInput == nil {
		t.Fatal("expected scan call")
	}
	if svc.scanInput.TrackingNumber != "MPM-20250301-00042" || svc.scanInput.Actor.UserID != agentID {
		t.Fatalf("unexpected scan input %+v", svc.scanInput)
	}
	if svc.scanInput.Actor.Role != enums.UserRoleEmployee {
		t.Fatalf("expected employee actor, got %s", svc.scanInput.Actor.Role)
	}
}

func TestAgentScanValidatesBody(t *testing.T) {
	svc := &stubShipmentService{}
	handler := AgentScan(svc, nil)

	payload := []byte(`{"location":"CDMX Hub"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/agent/scan", bytes.NewReader(payload))
	req = req.WithContext(authedContext(req.Context(), uuid.New(), enums.UserRoleEmployee))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.scanInput != nil {
		t.Fatal("service should not be called on invalid body")
	}
}
