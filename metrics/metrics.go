package metrics

import (
	"time"

	"github.com/imkonsowa/food-recs/apperrors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recs_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recs_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	RateLimitRejects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recs_rate_limit_rejects_total",
			Help: "Total number of requests rejected due to rate limiting",
		},
	)

	upstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recs_upstream_requests_total",
			Help: "Outbound calls to maps and generator providers by outcome",
		},
		[]string{"service", "outcome"},
	)

	upstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recs_upstream_request_duration_seconds",
			Help:    "Outbound call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	PublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recs_event_publish_failures_total",
			Help: "Recommendation events that could not be published",
		},
	)
)

// ObserveUpstream records one outbound call that started at start.
func ObserveUpstream(service string, start time.Time, err error) {
	upstreamDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())

	outcome := "ok"
	if err != nil {
		outcome = string(apperrors.CodeOf(err))
	}
	upstreamRequests.WithLabelValues(service, outcome).Inc()
}
