package notifications

import (
	"fmt"
	"strings"

	"github.com/mypackmx/logistics-backend/pkg/db/models"
	"github.com/mypackmx/logistics-backend/pkg/enums"
	"github.com/mypackmx/logistics-backend/pkg/mailer"
)

// buildEmail translates a shipment event into the customer-facing email.
// Returns false when the event type has no email associated with it.
func buildEmail(eventType enums.OutboxEventType, shipment *models.Shipment, user *models.User, publicURL string) (mailer.Message, bool) {
	tracking := shipment.TrackingNumber
	trackingLink := fmt.Sprintf("%s/tracking/%s", strings.TrimRight(publicURL, "/"), tracking)
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)

	msg := mailer.Message{
		ToName:  name,
		ToEmail: user.Email,
	}

	switch eventType {
	case enums.EventShipmentPaid:
		msg.Subject = fmt.Sprintf("Pago confirmado - Envio %s", tracking)
		msg.PlainBody = fmt.Sprintf(
			"Hola %s,\n\nRecibimos el pago de tu envio %s por un total de %s MXN. "+
				"Tu guia de envio llegara en un correo aparte.\n\nSigue tu paquete en %s",
			user.FirstName, tracking, shipment.TotalCost.StringFixed(2), trackingLink)
	case enums.EventGuideIssued:
		msg.Subject = fmt.Sprintf("Tu guia de envio %s", tracking)
		body := fmt.Sprintf(
			"Hola %s,\n\nTu guia de envio %s esta lista.", user.FirstName, tracking)
		if shipment.GuidePDFURL != nil {
			body += fmt.Sprintf("\n\nDescarga tu guia: %s", *shipment.GuidePDFURL)
		}
		body += fmt.Sprintf("\n\nSigue tu paquete en %s", trackingLink)
		msg.PlainBody = body
	case enums.EventShipmentDelivered:
		msg.Subject = fmt.Sprintf("Paquete entregado - %s", tracking)
		msg.PlainBody = fmt.Sprintf(
			"Hola %s,\n\nTu envio %s fue entregado a %s. Gracias por enviar con MyPack Mexico.",
			user.FirstName, tracking, shipment.RecipientName)
	case enums.EventShipmentExpired:
		msg.Subject = fmt.Sprintf("Pago no recibido - Envio %s", tracking)
		msg.PlainBody = fmt.Sprintf(
			"Hola %s,\n\nNo recibimos el pago de tu envio %s y la cotizacion expiro. "+
				"Puedes generar una nueva cotizacion cuando quieras.",
			user.FirstName, tracking)
	default:
		return mailer.Message{}, false
	}
	return msg, true
}
