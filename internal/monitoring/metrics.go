package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	SiigoRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siigo_requests_total",
			Help: "Total number of SIIGO API requests by resource and outcome",
		},
		[]string{"resource", "outcome"},
	)
	SiigoRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "siigo_request_duration_seconds",
			Help:    "Duration of SIIGO API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"resource"},
	)
	SiigoAuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "siigo_auth_attempts_total",
			Help: "Total number of SIIGO authentication attempts by outcome",
		},
		[]string{"outcome"},
	)
	DashboardFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_fallbacks_total",
			Help: "Total number of dashboard responses served with empty fallback data",
		},
		[]string{"endpoint"},
	)
	StoreRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "company_store_retries_total",
			Help: "Total number of retried company store operations",
		},
	)
	CredentialHealth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "siigo_credential_health",
			Help: "1 when the company's SIIGO credentials last authenticated successfully, 0 otherwise",
		},
		[]string{"company"},
	)
)

func InitMetrics() {
	collectors := []prometheus.Collector{
		SiigoRequests,
		SiigoRequestDuration,
		SiigoAuthAttempts,
		DashboardFallbacks,
		StoreRetries,
		CredentialHealth,
	}
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			log.Error().Err(err).Msg("Failed to register metric")
		}
	}
}
