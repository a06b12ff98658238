package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the viewer.
type Metrics struct {
	FramesRendered prometheus.Counter
	FrameDuration  prometheus.Histogram
	Clients        prometheus.Gauge

	// Dataset metrics.
	MarkersLoaded  prometheus.Gauge
	RecordsSkipped prometheus.Counter

	// Hover metrics.
	HoverTransitions *prometheus.CounterVec // labels: action={enter,switch,exit}
	TooltipShows     prometheus.Counter

	// Texture metrics.
	TextureCache *prometheus.CounterVec // labels: result={hit,miss,fallback}
}

// NewMetrics creates and registers all viewer metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FramesRendered,
		m.FrameDuration,
		m.Clients,
		m.MarkersLoaded,
		m.RecordsSkipped,
		m.HoverTransitions,
		m.TooltipShows,
		m.TextureCache,
	)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FramesRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "globeview",
			Name:      "frames_rendered_total",
			Help:      "Total frames rendered.",
		}),
		FrameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "globeview",
			Name:      "frame_duration_seconds",
			Help:      "Time spent stepping and rendering one frame.",
			Buckets:   []float64{0.005, 0.01, 0.02, 0.033, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		Clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "globeview",
			Name:      "websocket_clients",
			Help:      "Connected browser clients.",
		}),
		MarkersLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "globeview",
			Name:      "markers_loaded",
			Help:      "City markers placed on the globe.",
		}),
		RecordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "globeview",
			Name:      "records_skipped_total",
			Help:      "Dataset rows skipped because of unusable coordinates.",
		}),
		HoverTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "globeview",
			Name:      "hover_transitions_total",
			Help:      "Hover state changes by action.",
		}, []string{"action"}),
		TooltipShows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "globeview",
			Name:      "tooltip_shows_total",
			Help:      "Times a tooltip was created or replaced.",
		}),
		TextureCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "globeview",
			Name:      "texture_loads_total",
			Help:      "Texture lookups by result.",
		}, []string{"result"}),
	}
}
