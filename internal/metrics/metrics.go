package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics (backend double)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnidesk_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "omnidesk_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics (backend double)
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnidesk_logins_total",
			Help: "Total login attempts",
		},
		[]string{"result"}, // "ok" or "rejected"
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnidesk_messages_sent_total",
			Help: "Total outbound messages accepted",
		},
		[]string{"platform"},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnidesk_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)

	// Client metrics (SDK gateway)
	ClientRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnidesk_client_requests_total",
			Help: "Total requests issued by the client gateway",
		},
		[]string{"gateway", "method", "status"},
	)

	ClientRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "omnidesk_client_request_duration_seconds",
			Help:    "Client gateway request duration",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"gateway", "method"},
	)

	SessionInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnidesk_client_session_invalidations_total",
			Help: "Sessions cleared after an unauthorized response",
		},
		[]string{"gateway"},
	)

	HarnessTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omnidesk_client_harness_turns_total",
			Help: "AI test harness assistant turns",
		},
		[]string{"kind"}, // "text", "structured" or "error"
	)

	// Infrastructure metrics
	RedisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "omnidesk_redis_latency_seconds",
			Help:    "Redis operation latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		},
	)

	SQLLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "omnidesk_sql_latency_seconds",
			Help:    "SQL query latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1},
		},
	)
)
