package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mypackmx/logistics-backend/internal/shipments"
	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/enums"
)

func TestAdminShipmentsByAssignmentPassesStatus(t *testing.T) {
	svc := &stubShipmentService{page: &shipments.ShipmentPage{}}
	handler := AdminShipmentsByAssignment(svc, enums.AssignmentStatusPending, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/shipments/pending", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.listStatus != enums.AssignmentStatusPending {
		t.Fatalf("expected pending bucket, got %s", svc.listStatus)
	}
}

func TestAdminAssignRouteSuccess(t *testing.T) {
	adminID := uuid.New()
	shipmentID := uuid.New()
	routeID := uuid.New()
	svc := &stubShipmentService{scanned: &models.Shipment{ID: shipmentID}}

	router := chi.NewRouter()
	router.Post("/api/admin/v1/shipments/{shipmentID}/assign-route", AdminAssignRoute(svc, nil))

	payload := []byte(fmt.Sprintf(`{"route_id":%q}`, routeID))
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/admin/v1/shipments/%s/assign-route", shipmentID), bytes.NewReader(payload))
	req = req.WithContext(authedContext(req.Context(), adminID, enums.UserRoleAdmin))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.assignInput == nil {
		t.Fatal("expected assign call")
	}
	if svc.assignInput.ShipmentID != shipmentID || svc.assignInput.RouteID != routeID {
		t.Fatalf("unexpected assign input %+v", svc.assignInput)
	}
	if svc.assignInput.Actor.UserID != adminID {
		t.Fatalf("expected admin actor, got %+v", svc.assignInput.Actor)
	}
}

func TestAdminAdvanceStatusIsManual(t *testing.T) {
	shipmentID := uuid.New()
	svc := &stubShipmentService{scanned: &models.Shipment{ID: shipmentID}}

	router := chi.NewRouter()
	router.Post("/api/admin/v1/shipments/{shipmentID}/status", AdminAdvanceStatus(svc, nil))

	payload := []byte(`{"status":"En Transito","notes":"left origin hub"}`)
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/admin/v1/shipments/%s/status", shipmentID), bytes.NewReader(payload))
	req = req.WithContext(authedContext(req.Context(), uuid.New(), enums.UserRoleAdmin))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.advanceInput == nil {
		t.Fatal("expected advance call")
	}
	if svc.advanceInput.UpdateType != enums.UpdateTypeManual {
		t.Fatalf("expected manual update, got %s", svc.advanceInput.UpdateType)
	}
	if svc.advanceInput.Notes == nil || *svc.advanceInput.Notes != "left origin hub" {
		t.Fatalf("expected notes to pass through, got %+v", svc.advanceInput.Notes)
	}
}

func TestAdminBulkAdvanceRejectsEmptyBatch(t *testing.T) {
	svc := &stubShipmentService{}
	handler := AdminBulkAdvanceStatus(svc, nil)

	payload := []byte(`{"shipment_ids":[],"status":"En Transito"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/shipments/status/bulk", bytes.NewReader(payload))
	req = req.WithContext(authedContext(req.Context(), uuid.New(), enums.UserRoleAdmin))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.bulkInput != nil {
		t.Fatal("service should not be called on empty batch")
	}
}
