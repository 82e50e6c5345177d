package enums

import "fmt"

// AssignmentStatus is the shipment's high-level lifecycle stage. It is owned
// exclusively by the shipment state machine; no other component mutates it.
type AssignmentStatus string

const (
	AssignmentStatusPending   AssignmentStatus = "pending_assignment"
	AssignmentStatusAssigned  AssignmentStatus = "assigned"
	AssignmentStatusActive    AssignmentStatus = "active"
	AssignmentStatusCompleted AssignmentStatus = "completed"
)

var validAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusPending,
	AssignmentStatusAssigned,
	AssignmentStatusActive,
	AssignmentStatusCompleted,
}

// String implements fmt.Stringer.
func (a AssignmentStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AssignmentStatus.
func (a AssignmentStatus) IsValid() bool {
	for _, candidate := range validAssignmentStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the stage allows no further transitions.
func (a AssignmentStatus) IsTerminal() bool {
	return a == AssignmentStatusCompleted
}

// ParseAssignmentStatus converts raw input into an AssignmentStatus.
func ParseAssignmentStatus(value string) (AssignmentStatus, error) {
	for _, candidate := range validAssignmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment status %q", value)
}
