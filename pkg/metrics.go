package translator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Custom registry to avoid the default Go runtime collectors.
var metricsRegistry = prometheus.NewRegistry()

// MetricsRegistry exposes the translation metrics for scraping.
func MetricsRegistry() *prometheus.Registry {
	return metricsRegistry
}

var (
	eventsTranslated = promauto.With(metricsRegistry).NewCounter(prometheus.CounterOpts{
		Namespace: "translator",
		Name:      "events_translated_total",
		Help:      "Events fetched and handed to the pipeline.",
	})

	eventsSkipped = promauto.With(metricsRegistry).NewCounter(prometheus.CounterOpts{
		Namespace: "translator",
		Name:      "events_skipped_total",
		Help:      "Events skipped: other workers' shard positions or unresolvable index entries.",
	})

	runsFinished = promauto.With(metricsRegistry).NewCounter(prometheus.CounterOpts{
		Namespace: "translator",
		Name:      "runs_finished_total",
		Help:      "End-of-run signals raised.",
	})

	decodeFailures = promauto.With(metricsRegistry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "translator",
		Name:      "decode_failures_total",
		Help:      "Per-native-type decode failures.",
	}, []string{"type"})

	epicsCacheHits = promauto.With(metricsRegistry).NewCounter(prometheus.CounterOpts{
		Namespace: "translator",
		Subsystem: "epics",
		Name:      "cache_hits_total",
		Help:      "EPICS lookups served from the lazy cache.",
	})

	epicsCacheMisses = promauto.With(metricsRegistry).NewCounter(prometheus.CounterOpts{
		Namespace: "translator",
		Subsystem: "epics",
		Name:      "cache_misses_total",
		Help:      "EPICS lookups that had to decode the parameter.",
	})

	epicsCacheSize = promauto.With(metricsRegistry).NewGauge(prometheus.GaugeOpts{
		Namespace: "translator",
		Subsystem: "epics",
		Name:      "cache_size",
		Help:      "Decoded EPICS parameters held in the cache.",
	})
)
