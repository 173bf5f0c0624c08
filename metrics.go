package hxgrid

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the registry's Prometheus collectors.
type Metrics struct {
	Renders         *prometheus.CounterVec
	Exports         *prometheus.CounterVec
	ExportRejected  *prometheus.CounterVec
	RenderDurations *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with r when r is not
// nil.
func NewMetrics(r prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hxgrid",
			Name:      "renders_total",
			Help:      "Grid renders by grid and outcome.",
		}, []string{"grid", "outcome"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hxgrid",
			Name:      "exports_total",
			Help:      "Served export files by format and source (download or server).",
		}, []string{"format", "source"}),
		ExportRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hxgrid",
			Name:      "export_rejected_total",
			Help:      "Rejected export requests by reason.",
		}, []string{"reason"}),
		RenderDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hxgrid",
			Name:      "render_duration_seconds",
			Help:      "Time spent fetching and rendering a grid.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"grid"}),
	}
	if r == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Renders, m.Exports, m.ExportRejected, m.RenderDurations} {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
