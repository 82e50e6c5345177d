package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mypackmx/logistics-backend/pkg/types"
)

// DeliveryRoute is an ordered sequence of named custody states. The states
// list defines the entire progression contract for shipments assigned to it.
type DeliveryRoute struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                string            `gorm:"column:name;type:text;not null;uniqueIndex"`
	Description         *string           `gorm:"column:description"`
	States              types.RouteStates `gorm:"column:states;type:jsonb;serializer:json;not null"`
	EstimatedDays       *int              `gorm:"column:estimated_days"`
	OriginBranchID      *uuid.UUID        `gorm:"column:origin_branch_id;type:uuid"`
	DestinationBranchID *uuid.UUID        `gorm:"column:destination_branch_id;type:uuid"`
	IsActive            bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
