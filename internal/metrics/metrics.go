package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   prometheus.CounterVec
	HTTPRequestDuration prometheus.HistogramVec
	HTTPResponseSize    prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitExceededTotal prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   prometheus.CounterVec
	CacheMissesTotal prometheus.CounterVec

	// External service metrics
	ModerationChecksTotal prometheus.CounterVec
	EmailDeliveriesTotal  prometheus.CounterVec
	ImageUploadsTotal     prometheus.CounterVec
	StoriesCleanedUpTotal prometheus.Counter
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPResponseSize: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_response_size_bytes",
					Help:    "HTTP response size in bytes",
					Buckets: prometheus.ExponentialBuckets(100, 10, 7),
				},
				[]string{"method", "path", "status"},
			),
			RateLimitExceededTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rate_limit_exceeded_total",
					Help: "Total number of rate limited requests",
				},
				[]string{"endpoint", "method"},
			),
			CacheHitsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_hits_total",
					Help: "Total number of cache hits",
				},
				[]string{"cache"},
			),
			CacheMissesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "cache_misses_total",
					Help: "Total number of cache misses",
				},
				[]string{"cache"},
			),
			ModerationChecksTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "moderation_checks_total",
					Help: "Content moderation checks by verdict (accepted, flagged, failed_open)",
				},
				[]string{"verdict"},
			),
			EmailDeliveriesTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "email_deliveries_total",
					Help: "Transactional email deliveries by kind and status",
				},
				[]string{"kind", "status"},
			),
			ImageUploadsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "image_uploads_total",
					Help: "Image uploads by kind and status",
				},
				[]string{"kind", "status"},
			),
			StoriesCleanedUpTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "stories_cleaned_up_total",
					Help: "Expired stories removed by the cleanup service",
				},
			),
		}
	})
	return instance
}

// Get returns the metrics instance, initializing it if needed
func Get() *Metrics {
	return Initialize()
}
