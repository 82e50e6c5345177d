package stripewebhook

import (
	"context"
	"fmt"
	"strings"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/guide"
	"github.com/mypackmx/logistics-backend/pkg/qr"
	"github.com/mypackmx/logistics-backend/pkg/storage/gcs"
)

// GuideIssuer produces the guide artifacts for a paid shipment: the QR code
// pointing at the public tracking page and the printable PDF, both stored in
// GCS.
type GuideIssuer interface {
	Issue(ctx context.Context, shipment *models.Shipment) (qrURL, pdfURL string, err error)
}

type guideIssuer struct {
	storage   *gcs.Client
	renderer  *guide.Renderer
	publicURL string
}

// NewGuideIssuer wires the default issuer. publicURL is the storefront base
// the QR code resolves to.
func NewGuideIssuer(storage *gcs.Client, publicURL string) GuideIssuer {
	return &guideIssuer{
		storage:   storage,
		renderer:  guide.NewRenderer(),
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (g *guideIssuer) Issue(ctx context.Context, shipment *models.Shipment) (string, string, error) {
	qrPNG, err := qr.Generate(qr.TrackingURL(g.publicURL, shipment.TrackingNumber))
	if err != nil {
		return "", "", fmt.Errorf("generate qr: %w", err)
	}

	pdf, err := g.renderer.Render(guide.Data{
		TrackingNumber: shipment.TrackingNumber,
		ServiceType:    shipment.ServiceType.String(),
		RecipientName:  shipment.RecipientName,
		Street:         shipment.Street,
		City:           shipment.City,
		State:          shipment.State,
		PostalCode:     shipment.PostalCode,
		WeightKg:       shipment.WeightKg,
		DimensionsText: shipment.Dimensions.String(),
		DeclaredValue:  shipment.DeclaredValue,
		Insured:        shipment.Insured,
		ServiceCost:    shipment.ServiceCost,
		InsuranceCost:  shipment.InsuranceCost,
		TotalCost:      shipment.TotalCost,
		QRCodePNG:      qrPNG,
	})
	if err != nil {
		return "", "", fmt.Errorf("render guide: %w", err)
	}

	qrObject := fmt.Sprintf("qr/%s.png", shipment.TrackingNumber)
	qrURL, err := g.storage.Upload(ctx, qrObject, "image/png", qrPNG)
	if err != nil {
		return "", "", fmt.Errorf("upload qr: %w", err)
	}

	pdfObject := fmt.Sprintf("guides/%s.pdf", shipment.TrackingNumber)
	pdfURL, err := g.storage.Upload(ctx, pdfObject, "application/pdf", pdf)
	if err != nil {
		return "", "", fmt.Errorf("upload guide: %w", err)
	}
	return qrURL, pdfURL, nil
}
