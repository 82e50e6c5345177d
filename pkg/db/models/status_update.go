package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mypackmx/logistics-backend/pkg/enums"
)

// StatusUpdate is an append-only history entry recording that a shipment
// reached a named state at a point in time. Rows are never mutated or
// deleted.
type StatusUpdate struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShipmentID uuid.UUID        `gorm:"column:shipment_id;type:uuid;not null;index"`
	Status     string           `gorm:"column:status;type:text;not null"`
	Location   *string          `gorm:"column:location"`
	Notes      *string          `gorm:"column:notes"`
	UpdateType enums.UpdateType `gorm:"column:update_type;type:update_type;not null"`
	// Corrective marks a manual move to a state behind the shipment's
	// current index, so corrections are distinguishable from progress.
	Corrective bool       `gorm:"column:corrective;not null;default:false"`
	RecordedBy *uuid.UUID `gorm:"column:recorded_by;type:uuid"`
	OccurredAt time.Time  `gorm:"column:occurred_at;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}
