package routes

import (
	"github.com/google/uuid"

	"github.com/mypackmx/logistics-backend/pkg/types"
)

// RouteInput captures the fields an administrator sets on a delivery route.
// Edits never touch shipments already assigned; they carry their own copy of
// the state list.
type RouteInput struct {
	Name                string
	Description         *string
	States              types.RouteStates
	EstimatedDays       *int
	OriginBranchID      *uuid.UUID
	DestinationBranchID *uuid.UUID
}
