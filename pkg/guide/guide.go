// Package guide renders the printable shipping guide PDF that travels with
// each paid shipment.
package guide

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// Data carries everything printed on a shipping guide.
type Data struct {
	TrackingNumber string
	ServiceType    string
	SenderName     string
	RecipientName  string
	Street         string
	City           string
	State          string
	PostalCode     string
	WeightKg       decimal.Decimal
	DimensionsText string
	DeclaredValue  decimal.Decimal
	Insured        bool
	ServiceCost    decimal.Decimal
	InsuranceCost  decimal.Decimal
	TotalCost      decimal.Decimal
	QRCodePNG      []byte
}

// Renderer produces shipping guide PDFs.
type Renderer struct{}

// NewRenderer constructs a guide renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render creates the guide PDF for a paid shipment.
func (r *Renderer) Render(data Data) ([]byte, error) {
	if data.TrackingNumber == "" {
		return nil, fmt.Errorf("tracking number is required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 14, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "GUIA DE ENVIO", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, data.TrackingNumber, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if len(data.QRCodePNG) > 0 {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(data.QRCodePNG))
		pdf.ImageOptions("qr", 160, 14, 36, 36, false, opts, 0, "")
	}

	r.section(pdf, "Destinatario")
	r.row(pdf, "Nombre", data.RecipientName)
	r.row(pdf, "Direccion", fmt.Sprintf("%s, %s, %s %s", data.Street, data.City, data.State, data.PostalCode))
	if data.SenderName != "" {
		r.section(pdf, "Remitente")
		r.row(pdf, "Nombre", data.SenderName)
	}

	r.section(pdf, "Paquete")
	r.row(pdf, "Servicio", data.ServiceType)
	r.row(pdf, "Peso", fmt.Sprintf("%s kg", data.WeightKg))
	r.row(pdf, "Dimensiones", data.DimensionsText)
	if data.Insured {
		r.row(pdf, "Valor declarado", fmt.Sprintf("$%s MXN", data.DeclaredValue.StringFixed(2)))
	}

	r.section(pdf, "Costos")
	r.row(pdf, "Servicio", fmt.Sprintf("$%s MXN", data.ServiceCost.StringFixed(2)))
	if data.Insured {
		r.row(pdf, "Seguro", fmt.Sprintf("$%s MXN", data.InsuranceCost.StringFixed(2)))
	}
	r.row(pdf, "Total", fmt.Sprintf("$%s MXN", data.TotalCost.StringFixed(2)))

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render guide pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 7, title, "B", 1, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
}

func (r *Renderer) row(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, label, "", 0, "", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, value, "", 1, "", false, 0, "")
}
