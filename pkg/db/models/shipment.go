package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mypackmx/logistics-backend/pkg/enums"
	"github.com/mypackmx/logistics-backend/pkg/types"
)

// Shipment is the central record of the system. Rows are never deleted; the
// shipment plus its status updates form a permanent audit trail.
type Shipment struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TrackingNumber string    `gorm:"column:tracking_number;type:text;not null;uniqueIndex"`
	UserID         uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`

	RecipientName  string  `gorm:"column:recipient_name;not null"`
	RecipientPhone *string `gorm:"column:recipient_phone"`
	Street         string  `gorm:"column:street;not null"`
	City           string  `gorm:"column:city;not null"`
	// State is the destination's administrative region; pricing rules match
	// their zone against it case-insensitively.
	State      string `gorm:"column:state;not null"`
	PostalCode string `gorm:"column:postal_code;not null"`

	WeightKg      decimal.Decimal  `gorm:"column:weight_kg;type:numeric(10,3);not null"`
	Dimensions    types.Dimensions `gorm:"column:dimensions;type:jsonb;serializer:json;not null"`
	DeclaredValue decimal.Decimal  `gorm:"column:declared_value;type:numeric(12,2);not null;default:0"`
	Insured       bool             `gorm:"column:insured;not null;default:false"`

	ServiceType   enums.ServiceType `gorm:"column:service_type;type:service_type;not null"`
	ServiceCost   decimal.Decimal   `gorm:"column:service_cost;type:numeric(12,2);not null"`
	InsuranceCost decimal.Decimal   `gorm:"column:insurance_cost;type:numeric(12,2);not null;default:0"`
	TotalCost     decimal.Decimal   `gorm:"column:total_cost;type:numeric(12,2);not null"`

	// Tariff snapshot taken when the shipment was priced. Later edits to the
	// rule tables never change what this shipment was charged.
	PricingRuleID   *uuid.UUID `gorm:"column:pricing_rule_id;type:uuid"`
	InsuranceRateID *uuid.UUID `gorm:"column:insurance_rate_id;type:uuid"`

	RouteID *uuid.UUID `gorm:"column:route_id;type:uuid;index"`
	// RouteStates is a copy of the route's state list taken at assignment
	// time, so route edits never shift an in-flight shipment's index.
	RouteStates        types.RouteStates      `gorm:"column:route_states;type:jsonb;serializer:json"`
	CurrentStatus      *string                `gorm:"column:current_status"`
	CurrentStatusIndex *int                   `gorm:"column:current_status_index"`
	AssignmentStatus   enums.AssignmentStatus `gorm:"column:assignment_status;type:assignment_status;not null;default:'pending_assignment'"`

	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	StripeSessionID *string             `gorm:"column:stripe_session_id;uniqueIndex"`

	QRCodeURL   *string `gorm:"column:qr_code_url"`
	GuidePDFURL *string `gorm:"column:guide_pdf_url"`

	// Version supports optimistic concurrency on status transitions.
	Version int `gorm:"column:version;not null;default:1"`

	AssignedAt        *time.Time `gorm:"column:assigned_at"`
	EstimatedDelivery *time.Time `gorm:"column:estimated_delivery"`
	ActualDelivery    *time.Time `gorm:"column:actual_delivery"`
	PaidAt            *time.Time `gorm:"column:paid_at"`

	User          *User          `gorm:"foreignKey:UserID"`
	Route         *DeliveryRoute `gorm:"foreignKey:RouteID"`
	StatusUpdates []StatusUpdate `gorm:"foreignKey:ShipmentID"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
