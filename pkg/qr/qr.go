// Package qr renders the QR image embedded in shipping guides. The code
// encodes the public tracking URL so a warehouse scan resolves straight to
// the shipment.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const defaultSize = 256

// Generate renders a PNG QR code for the given content.
func Generate(content string) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr content is required")
	}
	png, err := qrcode.Encode(content, qrcode.Medium, defaultSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// TrackingURL builds the public tracking link encoded into shipment QR codes.
func TrackingURL(publicBaseURL, trackingNumber string) string {
	return fmt.Sprintf("%s/tracking/%s", publicBaseURL, trackingNumber)
}
