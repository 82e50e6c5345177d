package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mypackmx/logistics-backend/api/responses"
	"github.com/mypackmx/logistics-backend/api/validators"
	"github.com/mypackmx/logistics-backend/internal/routes"
	pkgerrors "github.com/mypackmx/logistics-backend/pkg/errors"
	"github.com/mypackmx/logistics-backend/pkg/logger"
	"github.com/mypackmx/logistics-backend/pkg/types"
)

type routeBody struct {
	Name                string            `json:"name" validate:"required"`
	Description         *string           `json:"description,omitempty"`
	States              types.RouteStates `json:"states" validate:"required,min=2"`
	EstimatedDays       *int              `json:"estimated_days,omitempty"`
	OriginBranchID      *uuid.UUID        `json:"origin_branch_id,omitempty"`
	DestinationBranchID *uuid.UUID        `json:"destination_branch_id,omitempty"`
}

func (b routeBody) toInput() routes.RouteInput {
	return routes.RouteInput{
		Name:                b.Name,
		Description:         b.Description,
		States:              b.States,
		EstimatedDays:       b.EstimatedDays,
		OriginBranchID:      b.OriginBranchID,
		DestinationBranchID: b.DestinationBranchID,
	}
}

func AdminListRoutes(svc routes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "routes service unavailable"))
			return
		}

		onlyActive, err := validators.ParseQueryBool(r, "active", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), onlyActive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AdminGetRoute(svc routes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "routes service unavailable"))
			return
		}

		id, err := parseIDParam(r, "routeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		route, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, route)
	}
}

func AdminCreateRoute(svc routes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "routes service unavailable"))
			return
		}

		var body routeBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		route, err := svc.Create(r.Context(), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, route)
	}
}

func AdminUpdateRoute(svc routes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "routes service unavailable"))
			return
		}

		id, err := parseIDParam(r, "routeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body routeBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		route, err := svc.Update(r.Context(), id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, route)
	}
}

func AdminSetRouteActive(svc routes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "routes service unavailable"))
			return
		}

		id, err := parseIDParam(r, "routeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setActiveBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetActive(r.Context(), id, *body.Active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"active": *body.Active})
	}
}
