package notify

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/condo-admin/backend/internal/storage/models"
)

const (
	resultSent   = "sent"
	resultFailed = "failed"
)

// Metrics counts notification outcomes by type.
type Metrics struct {
	total *prometheus.CounterVec
}

// NewMetrics registers the notification counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "condo",
			Name:      "notifications_total",
			Help:      "Notifications emitted, by type and result.",
		}, []string{"type", "result"}),
	}
	reg.MustRegister(m.total)
	return m
}

func (m *Metrics) observe(typ models.NotificationType, result string) {
	if m == nil {
		return
	}
	m.total.WithLabelValues(string(typ), result).Inc()
}
