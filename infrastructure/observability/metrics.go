package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// Sync metrics
	SyncPushes          prometheus.Counter
	SyncPulls           prometheus.Counter
	SyncSeedInits       prometheus.Counter
	SyncHydrateInits    prometheus.Counter
	EntitiesWritten     prometheus.Counter
	EntitiesDeleted     prometheus.Counter
	SyncPushDuration    prometheus.Histogram

	// Relay hub metrics
	HubConnections prometheus.Gauge
	HubBatchesSent prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewCollector creates a metrics collector with its own registry, so
// tests can instantiate isolated collectors without duplicate
// registration panics.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		SyncPushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_pushes_total",
			Help:      "Total number of local-to-document sync batches written",
		}),
		SyncPulls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_pulls_total",
			Help:      "Total number of remote states applied to the local store",
		}),
		SyncSeedInits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_seed_inits_total",
			Help:      "Total number of first-writer document initializations",
		}),
		SyncHydrateInits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_hydrate_inits_total",
			Help:      "Total number of initializations hydrated from an existing document",
		}),
		EntitiesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_entities_written_total",
			Help:      "Total number of entity records added or overwritten on the document",
		}),
		EntitiesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_entities_deleted_total",
			Help:      "Total number of entity records deleted from the document",
		}),
		SyncPushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_push_duration_seconds",
			Help:      "Time spent diffing and writing one sync batch",
			Buckets:   prometheus.DefBuckets,
		}),
		HubConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hub_connections",
			Help:      "Current number of relay hub connections",
		}),
		HubBatchesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hub_batches_sent_total",
			Help:      "Total number of document batches fanned out by the hub",
		}),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		c.SyncPushes,
		c.SyncPulls,
		c.SyncSeedInits,
		c.SyncHydrateInits,
		c.EntitiesWritten,
		c.EntitiesDeleted,
		c.SyncPushDuration,
		c.HubConnections,
		c.HubBatchesSent,
		c.HTTPRequests,
		c.HTTPDuration,
	)

	return c
}

// Handler returns the HTTP handler exposing this collector's registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
