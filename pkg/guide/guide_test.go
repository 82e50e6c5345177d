package guide

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mypackmx/logistics-backend/pkg/qr"
)

func TestRenderProducesPDF(t *testing.T) {
	png, err := qr.Generate("https://mypackmx.com/tracking/MPM-20250314-00042")
	if err != nil {
		t.Fatalf("qr generate: %v", err)
	}

	renderer := NewRenderer()
	pdf, err := renderer.Render(Data{
		TrackingNumber: "MPM-20250314-00042",
		ServiceType:    "retail",
		RecipientName:  "Laura Mendez",
		Street:         "Calle 60 #123",
		City:           "Merida",
		State:          "Yucatan",
		PostalCode:     "97000",
		WeightKg:       decimal.NewFromInt(5),
		DimensionsText: "30 x 20 x 15 cm",
		DeclaredValue:  decimal.NewFromInt(2000),
		Insured:        true,
		ServiceCost:    decimal.RequireFromString("275.00"),
		InsuranceCost:  decimal.RequireFromString("40.00"),
		TotalCost:      decimal.RequireFromString("315.00"),
		QRCodePNG:      png,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("expected PDF output, got %q", pdf[:8])
	}
}

func TestRenderRequiresTrackingNumber(t *testing.T) {
	renderer := NewRenderer()
	if _, err := renderer.Render(Data{}); err == nil {
		t.Fatal("expected error without tracking number")
	}
}
