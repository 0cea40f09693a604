package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOpDuration records document-store latency by operation and collection.
	StoreOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "strider_store_op_duration_seconds",
		Help:    "Document store operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	// CaptionInferenceDuration records caption generator latency by outcome: ok, transient,
	// fatal or error.
	CaptionInferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "strider_caption_inference_duration_seconds",
		Help:    "Caption inference latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
	}, []string{"outcome"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strider_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// SessionEvents counts session lifecycle events (start, end, rejected).
	SessionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strider_session_events_total",
		Help: "Total session lifecycle events by type",
	}, []string{"event"})

	// DomainEventsPublished counts published domain events by channel and outcome.
	DomainEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strider_domain_events_published_total",
		Help: "Total domain events published to Redis",
	}, []string{"channel", "outcome"})
)
