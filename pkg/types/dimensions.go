package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Dimensions holds a package's measurements in centimeters. Stored on the
// shipment row as jsonb.
type Dimensions struct {
	Length decimal.Decimal `json:"length"`
	Width  decimal.Decimal `json:"width"`
	Height decimal.Decimal `json:"height"`
}

// NewDimensions validates and builds a Dimensions value.
func NewDimensions(length, width, height decimal.Decimal) (Dimensions, error) {
	d := Dimensions{Length: length, Width: width, Height: height}
	if err := d.Validate(); err != nil {
		return Dimensions{}, err
	}
	return d, nil
}

// Validate rejects non-positive measurements.
func (d Dimensions) Validate() error {
	for name, v := range map[string]decimal.Decimal{
		"length": d.Length,
		"width":  d.Width,
		"height": d.Height,
	} {
		if !v.IsPositive() {
			return fmt.Errorf("dimension %s must be positive, got %s", name, v)
		}
	}
	return nil
}

// String renders the dimensions the way they appear on a shipping guide.
func (d Dimensions) String() string {
	return fmt.Sprintf("%s x %s x %s cm", d.Length, d.Width, d.Height)
}
