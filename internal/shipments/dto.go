package shipments

import (
	"time"

	"github.com/google/uuid"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	"github.com/mypackmx/logistics-backend/pkg/pagination"
	"github.com/mypackmx/logistics-backend/pkg/types"
)

// Actor identifies who requested a transition, for history and outbox
// attribution.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// AssignRouteInput puts a pending shipment onto a delivery route.
type AssignRouteInput struct {
	ShipmentID uuid.UUID
	RouteID    uuid.UUID
	Actor      Actor
}

// AdvanceStatusInput moves a routed shipment to a named state.
type AdvanceStatusInput struct {
	ShipmentID uuid.UUID
	Status     string
	Location   *string
	Notes      *string
	UpdateType enums.UpdateType
	Actor      Actor
}

// BulkAdvanceInput applies the same target state to many shipments. Each
// shipment is handled independently; failures are reported, never fatal to
// the batch.
type BulkAdvanceInput struct {
	ShipmentIDs []uuid.UUID
	Status      string
	Location    *string
	Notes       *string
	Actor       Actor
}

// BulkSkip records why one shipment in a batch was not advanced.
type BulkSkip struct {
	ShipmentID uuid.UUID `json:"shipment_id"`
	Reason     string    `json:"reason"`
}

// BulkAdvanceResult summarizes a bulk status application.
type BulkAdvanceResult struct {
	Updated []uuid.UUID `json:"updated"`
	Skipped []BulkSkip  `json:"skipped"`
}

// ScanInput advances a shipment identified by its guide QR code.
type ScanInput struct {
	TrackingNumber string
	Status         string
	Location       *string
	Actor          Actor
}

// ListParams are the cursor pagination inputs for shipment listings.
type ListParams = pagination.Params

// ShipmentPage is one page of shipments plus the cursor for the next.
type ShipmentPage struct {
	Items      []models.Shipment `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// ShipmentDetail is a shipment with its full status history.
type ShipmentDetail struct {
	Shipment models.Shipment       `json:"shipment"`
	History  []models.StatusUpdate `json:"history"`
}

// TrackingEvent is one public history entry.
type TrackingEvent struct {
	Status     string    `json:"status"`
	Location   *string   `json:"location,omitempty"`
	Corrective bool      `json:"corrective,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// TrackingView is the public, unauthenticated view of a shipment's
// progress. It deliberately omits recipient and payment details.
type TrackingView struct {
	TrackingNumber     string            `json:"tracking_number"`
	AssignmentStatus   string            `json:"assignment_status"`
	CurrentStatus      *string           `json:"current_status,omitempty"`
	CurrentStatusIndex *int              `json:"current_status_index,omitempty"`
	RouteStates        types.RouteStates `json:"route_states,omitempty"`
	EstimatedDelivery  *time.Time        `json:"estimated_delivery,omitempty"`
	ActualDelivery     *time.Time        `json:"actual_delivery,omitempty"`
	Events             []TrackingEvent   `json:"events"`
}
