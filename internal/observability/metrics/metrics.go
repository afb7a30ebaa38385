package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics exposes counters/histograms for agent webhook delivery and
// booking contention.
type WebhookMetrics struct {
	dispatchTotal    *prometheus.CounterVec
	dispatchLatency  *prometheus.HistogramVec
	bookingConflicts prometheus.Counter
}

func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	m := &WebhookMetrics{
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "webhook",
			Name:      "dispatch_total",
			Help:      "Total webhook dispatch attempts by event type and outcome",
		}, []string{"event_type", "outcome"}),
		dispatchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "webhook",
			Name:      "dispatch_latency_seconds",
			Help:      "Latency of outbound webhook calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
		bookingConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "slot_conflicts_total",
			Help:      "Booking attempts rejected because the slot was taken",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.dispatchTotal, m.dispatchLatency, m.bookingConflicts)
	return m
}

// ObserveDispatch records one dispatch attempt. Outcome is one of
// "sent", "skipped", "failed".
func (m *WebhookMetrics) ObserveDispatch(eventType, outcome string) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(eventType, outcome).Inc()
}

func (m *WebhookMetrics) ObserveDispatchLatency(eventType string, seconds float64) {
	if m == nil {
		return
	}
	m.dispatchLatency.WithLabelValues(eventType).Observe(seconds)
}

func (m *WebhookMetrics) ObserveBookingConflict() {
	if m == nil {
		return
	}
	m.bookingConflicts.Inc()
}
