package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Outbox related metrics
	OutboxEventsProcessed   prometheus.Counter
	OutboxEventsFailed      prometheus.Counter
	OutboxProcessingLatency prometheus.Histogram
	OutboxRetries           *prometheus.CounterVec

	// Consultation workflow metrics
	ConsultationsStarted   prometheus.Counter
	ConsultationsFinalized prometheus.Counter
	ConsultationsCancelled prometheus.Counter
	FinalizationRejections *prometheus.CounterVec

	// Catalog search metrics
	CatalogSearches   prometheus.Counter
	CatalogCacheHits  prometheus.Counter
	CatalogSearchTime prometheus.Histogram

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		OutboxEventsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_processed_total",
			Help:      "Total number of successfully processed outbox events",
		}),
		OutboxEventsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_failed_total",
			Help:      "Total number of failed outbox events",
		}),
		OutboxProcessingLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "outbox_processing_duration_seconds",
			Help:      "Time spent processing outbox events",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		OutboxRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_retry_attempts_total",
			Help:      "Total number of retry attempts for outbox events",
		}, []string{"event_type"}),

		ConsultationsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consultations_started_total",
			Help:      "Total number of consultation sessions created",
		}),
		ConsultationsFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consultations_finalized_total",
			Help:      "Total number of consultations finalized",
		}),
		ConsultationsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consultations_cancelled_total",
			Help:      "Total number of consultations cancelled",
		}),
		FinalizationRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finalization_rejections_total",
			Help:      "Finalization attempts rejected, by missing condition",
		}, []string{"reason"}),

		CatalogSearches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_searches_total",
			Help:      "Total number of diagnosis catalog searches",
		}),
		CatalogCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_hits_total",
			Help:      "Diagnosis catalog searches served from cache",
		}),
		CatalogSearchTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_search_duration_seconds",
			Help:      "Duration of diagnosis catalog searches",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		}),

		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
	}
}
