package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelbuddy_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "travelbuddy_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "travelbuddy_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	// Domain metrics
	UsersRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "travelbuddy_users_registered_total",
			Help: "Total number of registered users",
		},
	)

	TripsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "travelbuddy_trips_created_total",
			Help: "Total number of trips created",
		},
	)

	TripsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "travelbuddy_trips_deleted_total",
			Help: "Total number of trips deleted",
		},
	)

	JoinRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travelbuddy_join_requests_total",
			Help: "Join request transitions by resulting status",
		},
		[]string{"status"},
	)

	MessagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "travelbuddy_messages_sent_total",
			Help: "Total number of direct messages sent",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(RateLimitedTotal)
	prometheus.MustRegister(UsersRegistered)
	prometheus.MustRegister(TripsCreated)
	prometheus.MustRegister(TripsDeleted)
	prometheus.MustRegister(JoinRequestsTotal)
	prometheus.MustRegister(MessagesSent)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
