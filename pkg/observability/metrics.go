// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the pinegate gateway.
package observability

import "github.com/prometheus/client_golang/prometheus"

// Auth outcomes recorded in AuthAttemptsTotal.
const (
	AuthAccepted         = "accepted"
	AuthMissingToken     = "missing_token"
	AuthInvalidToken     = "invalid_token"
	AuthStoreUnavailable = "store_unavailable"
)

// VerifyBuckets covers bcrypt verification of a full snapshot, from a
// handful of records at low cost up to several seconds.
var VerifyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinegate_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pinegate_request_duration_seconds",
			Help:    "Request duration",
			Buckets: VerifyBuckets,
		},
		[]string{"method"},
	)

	// AuthAttemptsTotal counts gate decisions by outcome.
	AuthAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinegate_auth_attempts_total",
			Help: "Authentication attempts",
		},
		[]string{"outcome"},
	)

	// VerifyDuration records the time spent verifying one token against a snapshot.
	VerifyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pinegate_verify_duration_seconds",
			Help:    "Token verification duration",
			Buckets: VerifyBuckets,
		},
	)

	// CredentialStoreLatency records snapshot fetch latency by backend.
	CredentialStoreLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pinegate_credential_store_latency_seconds",
			Help:    "Credential store fetch latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	// SearchRequestsTotal counts calls to the search backend by outcome
	// (json, status_only, error).
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinegate_search_requests_total",
			Help: "Search backend requests",
		},
		[]string{"outcome"},
	)

	// SearchLatency records search backend latency in seconds.
	SearchLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pinegate_search_latency_seconds",
			Help:    "Search backend latency",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		AuthAttemptsTotal,
		VerifyDuration,
		CredentialStoreLatency,
		SearchRequestsTotal,
		SearchLatency,
	)
}
