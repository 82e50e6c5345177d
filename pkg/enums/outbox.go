package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateShipment     OutboxAggregateType = "shipment"
	AggregateNotification OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateShipment,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventShipmentCreated   OutboxEventType = "shipment_created"
	EventShipmentPaid      OutboxEventType = "shipment_paid"
	EventShipmentExpired   OutboxEventType = "shipment_expired"
	EventRouteAssigned     OutboxEventType = "route_assigned"
	EventStatusAdvanced    OutboxEventType = "status_advanced"
	EventShipmentDelivered OutboxEventType = "shipment_delivered"
	EventGuideIssued       OutboxEventType = "guide_issued"
)

var validOutboxEventTypes = []OutboxEventType{
	EventShipmentCreated,
	EventShipmentPaid,
	EventShipmentExpired,
	EventRouteAssigned,
	EventStatusAdvanced,
	EventShipmentDelivered,
	EventGuideIssued,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
