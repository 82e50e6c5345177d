package enums

import "fmt"

// UpdateType records what produced a status-history entry.
type UpdateType string

const (
	UpdateTypeAutomatic UpdateType = "automatic"
	UpdateTypeManual    UpdateType = "manual"
	UpdateTypeQRScan    UpdateType = "qr_scan"
)

var validUpdateTypes = []UpdateType{
	UpdateTypeAutomatic,
	UpdateTypeManual,
	UpdateTypeQRScan,
}

// String implements fmt.Stringer.
func (u UpdateType) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UpdateType.
func (u UpdateType) IsValid() bool {
	for _, candidate := range validUpdateTypes {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUpdateType converts raw input into an UpdateType.
func ParseUpdateType(value string) (UpdateType, error) {
	for _, candidate := range validUpdateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid update type %q", value)
}
