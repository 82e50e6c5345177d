package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mypackmx/logistics-backend/api/responses"
	"github.com/mypackmx/logistics-backend/api/validators"
	"github.com/mypackmx/logistics-backend/internal/shipments"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	pkgerrors "github.com/mypackmx/logistics-backend/pkg/errors"
	"github.com/mypackmx/logistics-backend/pkg/logger"
	"github.com/mypackmx/logistics-backend/pkg/pagination"
)

// AdminShipmentsByAssignment lists paid shipments in one assignment bucket
// (pending, assigned, active, completed).
func AdminShipmentsByAssignment(svc shipments.Service, status enums.AssignmentStatus, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipments service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListByAssignment(r.Context(), status, shipments.ListParams{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

type assignRouteBody struct {
	RouteID uuid.UUID `json:"route_id" validate:"required"`
}

// AdminAssignRoute puts a paid, pending shipment onto a delivery route.
func AdminAssignRoute(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipments service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipmentID, err := parseIDParam(r, "shipmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body assignRouteBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.AssignRoute(r.Context(), shipments.AssignRouteInput{
			ShipmentID: shipmentID,
			RouteID:    body.RouteID,
			Actor:      actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

type advanceStatusBody struct {
	Status   string  `json:"status" validate:"required"`
	Location *string `json:"location,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// AdminAdvanceStatus moves one shipment to a named state on its route.
func AdminAdvanceStatus(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipments service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipmentID, err := parseIDParam(r, "shipmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body advanceStatusBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.AdvanceStatus(r.Context(), shipments.AdvanceStatusInput{
			ShipmentID: shipmentID,
			Status:     body.Status,
			Location:   body.Location,
			Notes:      body.Notes,
			UpdateType: enums.UpdateTypeManual,
			Actor:      actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

type bulkAdvanceBody struct {
	ShipmentIDs []uuid.UUID `json:"shipment_ids" validate:"required,min=1"`
	Status      string      `json:"status" validate:"required"`
	Location    *string     `json:"location,omitempty"`
	Notes       *string     `json:"notes,omitempty"`
}

// AdminBulkAdvanceStatus applies one target state to many shipments. Each
// shipment succeeds or is reported as skipped; the batch never aborts.
func AdminBulkAdvanceStatus(svc shipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipments service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body bulkAdvanceBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.BulkAdvanceStatus(r.Context(), shipments.BulkAdvanceInput{
			ShipmentIDs: body.ShipmentIDs,
			Status:      body.Status,
			Location:    body.Location,
			Notes:       body.Notes,
			Actor:       actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
