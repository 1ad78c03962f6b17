package relay

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nashir/pushgate/fields"
)

// Metrics are the dispatch-pipeline counters. Request-level metrics live in
// the gateway instrumentation middleware.
type Metrics struct {
	ReceivedNotifications prometheus.Counter
	ClientRegistrations   prometheus.Counter
	SentNotifications     *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ReceivedNotifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pushgate",
			Subsystem: "relay",
			Name:      "received_notifications",
			Help:      "The number of notifications received",
		}),
		ClientRegistrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pushgate",
			Subsystem: "relay",
			Name:      "client_registrations",
			Help:      "The number of client registration requests",
		}),
		SentNotifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pushgate",
			Subsystem: "relay",
			Name:      "sent_notifications",
			Help:      "Notifications handed to a provider, by vendor",
		}, []string{"provider"}),
	}
	reg.MustRegister(m.ReceivedNotifications, m.ClientRegistrations, m.SentNotifications)
	return m
}

func (m *Metrics) receivedNotification() {
	if m != nil {
		m.ReceivedNotifications.Inc()
	}
}

func (m *Metrics) clientRegistration() {
	if m != nil {
		m.ClientRegistrations.Inc()
	}
}

func (m *Metrics) sentNotification(kind fields.ProviderKind) {
	if m != nil {
		m.SentNotifications.WithLabelValues(string(kind)).Inc()
	}
}
