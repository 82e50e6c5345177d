package shipments

import (
	"errors"
	"time"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	"github.com/mypackmx/logistics-backend/pkg/types"
)

// Precondition failures for route transitions. These block the transition
// entirely; there is never a partial update.
var (
	ErrAlreadyRouted    = errors.New("shipment already has a route assigned")
	ErrRouteNotAssigned = errors.New("shipment has no assigned route")
	ErrRouteInactive    = errors.New("route is not active")
	ErrRouteTooShort    = errors.New("route needs at least 2 states")
	ErrStateNotInRoute  = errors.New("target state not in route")
)

// Transition describes the effect of a state change: the shipment columns to
// update and the history record to append. Both must be persisted in one
// atomic unit by the caller.
type Transition struct {
	Patch  map[string]any
	Record models.StatusUpdate
	// Completed marks that this transition reached the route's terminal
	// state.
	Completed bool
	// Corrective marks a move to a state behind the current index. Admin
	// corrections are allowed but logged distinctly from forward progress.
	Corrective bool
}

// AssignRoute computes the transition that puts a pending shipment onto a
// route: position at the route's first state, stamp assignment, and record
// an automatic history entry.
func AssignRoute(shipment *models.Shipment, route *models.DeliveryRoute, now time.Time) (*Transition, error) {
	if shipment.AssignmentStatus != enums.AssignmentStatusPending || shipment.RouteID != nil {
		return nil, ErrAlreadyRouted
	}
	if !route.IsActive {
		return nil, ErrRouteInactive
	}
	if err := route.States.Validate(); err != nil {
		return nil, ErrRouteTooShort
	}

	initial := route.States[0]
	patch := map[string]any{
		"route_id": route.ID,
		// Snapshot the state list so later route edits never shift this
		// shipment's progression.
		"route_states":         route.States,
		"current_status":       initial,
		"current_status_index": 0,
		"assignment_status":    enums.AssignmentStatusAssigned,
		"assigned_at":          now,
	}
	if route.EstimatedDays != nil {
		patch["estimated_delivery"] = now.AddDate(0, 0, *route.EstimatedDays)
	}

	return &Transition{
		Patch: patch,
		Record: models.StatusUpdate{
			ShipmentID: shipment.ID,
			Status:     initial,
			UpdateType: enums.UpdateTypeAutomatic,
			OccurredAt: now,
		},
	}, nil
}

// AdvanceStatus computes the transition that moves a routed shipment to the
// named state. Lookup is by exact match against the shipment's snapshotted
// state list; if a name is duplicated only the first index is addressable.
// Reaching the last index completes the shipment and stamps delivery. The
// first move to any non-final state promotes assigned to active. Moving to
// an earlier index is permitted as an operator correction and flagged as
// such.
func AdvanceStatus(shipment *models.Shipment, target string, updateType enums.UpdateType, now time.Time) (*Transition, error) {
	if shipment.RouteID == nil {
		return nil, ErrRouteNotAssigned
	}
	states := shipment.RouteStates
	if err := states.Validate(); err != nil {
		return nil, ErrRouteTooShort
	}
	newIndex := states.IndexOf(target)
	if newIndex < 0 {
		return nil, ErrStateNotInRoute
	}

	patch := map[string]any{
		"current_status":       target,
		"current_status_index": newIndex,
	}

	completed := states.IsTerminalIndex(newIndex)
	switch {
	case completed:
		patch["assignment_status"] = enums.AssignmentStatusCompleted
		patch["actual_delivery"] = now
	case shipment.AssignmentStatus == enums.AssignmentStatusAssigned:
		patch["assignment_status"] = enums.AssignmentStatusActive
	}

	corrective := shipment.CurrentStatusIndex != nil && newIndex < *shipment.CurrentStatusIndex

	return &Transition{
		Patch: patch,
		Record: models.StatusUpdate{
			ShipmentID: shipment.ID,
			Status:     target,
			UpdateType: updateType,
			Corrective: corrective,
			OccurredAt: now,
		},
		Completed:  completed,
		Corrective: corrective,
	}, nil
}

// statesForRoute resolves the progression contract for a shipment: the
// snapshot taken at assignment, falling back to the live route for rows
// created before snapshotting existed.
func statesForRoute(shipment *models.Shipment, route *models.DeliveryRoute) types.RouteStates {
	if len(shipment.RouteStates) > 0 {
		return shipment.RouteStates
	}
	if route != nil {
		return route.States
	}
	return nil
}
