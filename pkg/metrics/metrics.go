// Package metrics exposes Prometheus instrumentation for the version
// reconstruction engine: listing latency, fan-out width, dedup rate, and
// content-fetch source, so the server's /metrics endpoint reports on the
// engine the way the HTTP surface reports on requests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector wraps the Prometheus metrics emitted by the version mapper and
// the adapters it drives.
type Collector struct {
	registry *prometheus.Registry

	listDuration    *prometheus.HistogramVec
	fanOutWidth     prometheus.Histogram
	dedupDropped    prometheus.Counter
	versionsFound   *prometheus.HistogramVec
	contentFetches  *prometheus.CounterVec
	snapshotErrors  *prometheus.CounterVec
	adapterRequests *prometheus.CounterVec
}

// New constructs a Collector and registers its metrics on a fresh registry.
func New(namespace string) *Collector {
	if namespace == "" {
		namespace = "snapvault"
	}

	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		listDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "version_mapper",
			Name:      "list_duration_seconds",
			Help:      "Duration of ListObjectVersions calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"bucket"}),
		fanOutWidth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "version_mapper",
			Name:      "fan_out_width",
			Help:      "Number of concurrent snapshot probes issued per listing.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50},
		}),
		dedupDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "version_mapper",
			Name:      "dedup_dropped_total",
			Help:      "Probe results dropped because they matched an existing version signature.",
		}),
		versionsFound: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "version_mapper",
			Name:      "versions_found",
			Help:      "Number of distinct versions reconstructed per listing.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50},
		}, []string{"bucket"}),
		contentFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "version_mapper",
			Name:      "content_fetches_total",
			Help:      "Content fetches by version source.",
		}, []string{"source"}),
		snapshotErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot_adapter",
			Name:      "errors_total",
			Help:      "Snapshot adapter errors by kind.",
		}, []string{"kind"}),
		adapterRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "object_store_adapter",
			Name:      "requests_total",
			Help:      "Object store adapter requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}

	registry.MustRegister(
		c.listDuration,
		c.fanOutWidth,
		c.dedupDropped,
		c.versionsFound,
		c.contentFetches,
		c.snapshotErrors,
		c.adapterRequests,
	)

	return c
}

// Registry returns the Prometheus registry for wiring into an HTTP handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveListing records one ListObjectVersions call.
func (c *Collector) ObserveListing(bucket string, seconds float64, fanOut, versions, dropped int) {
	c.listDuration.WithLabelValues(bucket).Observe(seconds)
	c.fanOutWidth.Observe(float64(fanOut))
	c.versionsFound.WithLabelValues(bucket).Observe(float64(versions))
	if dropped > 0 {
		c.dedupDropped.Add(float64(dropped))
	}
}

// RecordContentFetch increments the content-fetch counter for a version source.
func (c *Collector) RecordContentFetch(source string) {
	c.contentFetches.WithLabelValues(source).Inc()
}

// RecordSnapshotError increments the snapshot adapter error counter for a kind.
func (c *Collector) RecordSnapshotError(kind string) {
	c.snapshotErrors.WithLabelValues(kind).Inc()
}

// RecordAdapterRequest increments the object store adapter request counter.
func (c *Collector) RecordAdapterRequest(operation string, success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	c.adapterRequests.WithLabelValues(operation, outcome).Inc()
}
