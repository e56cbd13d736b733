package api

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the auth counters. A nil *Metrics records nothing.
type Metrics struct {
	authOps       *prometheus.CounterVec
	webhookEvents *prometheus.CounterVec
}

// NewMetrics builds the auth counters and registers them on reg (if non-nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		authOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "poli",
			Name:      "auth_operations_total",
			Help:      "Auth gateway operations by outcome.",
		}, []string{"op", "result"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "poli",
			Name:      "webhook_events_total",
			Help:      "Purchase webhook deliveries by event and outcome.",
		}, []string{"event", "result"}),
	}
	if reg != nil {
		reg.MustRegister(m.authOps, m.webhookEvents)
	}
	return m
}

func (m *Metrics) authOp(op, result string) {
	if m == nil {
		return
	}
	m.authOps.WithLabelValues(op, result).Inc()
}

func (m *Metrics) webhookEvent(event, result string) {
	if m == nil {
		return
	}
	// Bound label cardinality to the events we know.
	if _, ok := webhookStatuses[event]; !ok {
		event = "other"
	}
	m.webhookEvents.WithLabelValues(event, result).Inc()
}
