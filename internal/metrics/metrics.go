// Package metrics holds the Prometheus metrics exposed on /metrics
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registry for all service metrics
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

var (
	FilesIngested = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "docs_files_ingested_total",
		Help: "Files encrypted and stored",
	})

	BytesIngested = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "docs_bytes_ingested_total",
		Help: "Plaintext bytes encrypted and stored",
	})

	FilesDeleted = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "docs_files_deleted_total",
		Help: "Files soft deleted together with their blobs",
	})

	EventsDispatched = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "docs_events_dispatched_total",
		Help: "Events delivered to the background handlers",
	}, []string{"type"})

	EventHandlerFailures = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "docs_event_handler_failures_total",
		Help: "Event handlers that returned an error or panicked",
	}, []string{"handler"})

	EventQueueFull = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Name: "docs_event_queue_full_total",
		Help: "Flushes that found the event queue full",
	})

	PipelineRuns = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "docs_pipeline_runs_total",
		Help: "Content pipeline runs by final state",
	}, []string{"state"})

	SuggestDuration = promauto.With(Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docs_tag_suggest_duration_seconds",
		Help:    "Duration of tag suggestion requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	VariantsRendered = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "docs_variants_rendered_total",
		Help: "Image variants rendered by outcome",
	}, []string{"variant", "outcome"})

	ZipExports = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "docs_zip_exports_total",
		Help: "Zip exports by outcome",
	}, []string{"outcome"})
)

// Handler serves the registry in the Prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
