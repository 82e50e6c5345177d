package metrics

import "github.com/prometheus/client_golang/prometheus"

// ShipmentMetrics counts the shipment lifecycle events the platform cares
// about in dashboards: quotes, payments, route transitions and webhook
// deliveries.
type ShipmentMetrics struct {
	quotes      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	webhooks    *prometheus.CounterVec
}

// NewShipmentMetrics registers the shipment metrics on the provided registerer.
func NewShipmentMetrics(reg prometheus.Registerer) *ShipmentMetrics {
	if reg == nil {
		return &ShipmentMetrics{}
	}
	quotes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipment_quotes_total",
		Help: "Quote calculations by outcome.",
	}, []string{"outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shipment_status_transitions_total",
		Help: "Shipment status transitions by update type.",
	}, []string{"update_type"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_webhook_events_total",
		Help: "Stripe webhook deliveries by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(quotes, transitions, webhooks)
	return &ShipmentMetrics{
		quotes:      quotes,
		transitions: transitions,
		webhooks:    webhooks,
	}
}

// IncQuote counts a quote calculation outcome (priced, no_rule, no_rate).
func (m *ShipmentMetrics) IncQuote(outcome string) {
	if m == nil || m.quotes == nil {
		return
	}
	m.quotes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncTransition counts a completed status transition.
func (m *ShipmentMetrics) IncTransition(updateType string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(updateType)).Inc()
}

// IncWebhook counts a processed webhook delivery outcome.
func (m *ShipmentMetrics) IncWebhook(outcome string) {
	if m == nil || m.webhooks == nil {
		return
	}
	m.webhooks.WithLabelValues(normalizeLabel(outcome)).Inc()
}
