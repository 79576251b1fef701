package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the Prometheus collectors exposed on /metrics.
type Metrics struct {
	ListingsCreated  prometheus.Counter
	ListingsExpired  prometheus.Counter
	StatusTransition *prometheus.CounterVec
}

// NewMetrics registers the application collectors on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		ListingsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "market",
			Name:      "listings_created_total",
			Help:      "Total number of listings created",
		}),
		ListingsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "market",
			Name:      "listings_expired_total",
			Help:      "Total number of listings expired by the sweeper",
		}),
		StatusTransition: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "market",
			Name:      "listing_status_transitions_total",
			Help:      "Listing status transitions by target status",
		}, []string{"to_status"}),
	}
}
