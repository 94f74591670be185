package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nyc_dashboard"

// Metrics holds the Prometheus collectors for the dashboard service.
type Metrics struct {
	// Dispatcher metrics.
	DispatchTotal   *prometheus.CounterVec   // labels: event, outcome={ok,error}
	HandlerDuration *prometheus.HistogramVec // labels: output

	// Snapshot metrics, set once at startup.
	DatasetRows        prometheus.Gauge
	DatasetZipCodes    prometheus.Gauge
	DatasetSkippedRows prometheus.Gauge
	BoundaryFeatures   prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge

	// Interaction event sink.
	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}
	EventsDelivered *prometheus.CounterVec // labels: outcome={success,dropped}
	EventBatchSize  prometheus.Histogram
	EventsRunning   prometheus.Gauge
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "UI events dispatched by event name and outcome.",
		}, []string{"event", "outcome"}),
		HandlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handler_duration_seconds",
			Help:      "Time spent computing one output patch.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"output"}),
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Building records in the loaded snapshot.",
		}),
		DatasetZipCodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_zip_codes",
			Help:      "Distinct postal codes in the loaded snapshot.",
		}),
		DatasetSkippedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_skipped_rows",
			Help:      "Malformed CSV rows skipped while loading the snapshot.",
		}),
		BoundaryFeatures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "boundary_features",
			Help:      "ZIP code polygons in the loaded boundary file.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Reverse geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when ZIP code place names are resolved, 0 otherwise.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Interaction events handed to the event sink by outcome.",
		}, []string{"outcome"}),
		EventsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_delivered_total",
			Help:      "Interaction events written to the broker, or dropped after retries.",
		}, []string{"outcome"}),
		EventBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "event_batch_size",
			Help:      "Interaction events per broker write.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100},
		}),
		EventsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "events_pipeline_running",
			Help:      "1 while the interaction event pipeline is running.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.DispatchTotal,
		m.HandlerDuration,
		m.DatasetRows,
		m.DatasetZipCodes,
		m.DatasetSkippedRows,
		m.BoundaryFeatures,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.EventsPublished,
		m.EventsDelivered,
		m.EventBatchSize,
		m.EventsRunning,
	}
}
