package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the intelligence core
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Pipeline metrics
	EventsProcessed *prometheus.CounterVec
	StageErrors     *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec

	// Business metrics
	FragmentsStored    prometheus.Counter
	PredictionsEmitted *prometheus.CounterVec
	AlertsRaised       *prometheus.CounterVec

	// Persistence metrics
	RecordsPersisted *prometheus.CounterVec
	RecordsDropped   prometheus.Counter
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	// Singleton so repeated construction in tests doesn't double-register
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	eventsProcessed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_processed_total",
			Help:      "Total number of community events processed",
		},
		[]string{"kind"},
	)

	stageErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_errors_total",
			Help:      "Total number of isolated pipeline stage failures",
		},
		[]string{"stage"},
	)

	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	fragmentsStored := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_fragments_stored_total",
			Help:      "Total number of memory fragments stored",
		},
	)

	predictionsEmitted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_emitted_total",
			Help:      "Total number of social predictions emitted",
		},
		[]string{"kind"},
	)

	alertsRaised := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wellness_alerts_raised_total",
			Help:      "Total number of wellness alerts raised",
		},
		[]string{"kind"},
	)

	recordsPersisted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_persisted_total",
			Help:      "Total number of write-behind record store writes",
		},
		[]string{"table", "status"},
	)

	recordsDropped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Total number of records dropped by a full write-behind queue",
		},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		eventsProcessed,
		stageErrors,
		stageDuration,
		fragmentsStored,
		predictionsEmitted,
		alertsRaised,
		recordsPersisted,
		recordsDropped,
	)

	globalCollector = &Collector{
		registry:           registry,
		HTTPRequests:       httpRequests,
		HTTPDuration:       httpDuration,
		EventsProcessed:    eventsProcessed,
		StageErrors:        stageErrors,
		StageDuration:      stageDuration,
		FragmentsStored:    fragmentsStored,
		PredictionsEmitted: predictionsEmitted,
		AlertsRaised:       alertsRaised,
		RecordsPersisted:   recordsPersisted,
		RecordsDropped:     recordsDropped,
	}
	return globalCollector
}

// Handler returns the HTTP handler exposing this collector's registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
