// Package metrics exposes reader activity as Prometheus metrics on a
// private registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgallion1/docreader/internal/library"
)

// Metrics holds the collectors. It implements session.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	articlesLoaded *prometheus.CounterVec
	sections       prometheus.Histogram
	navigations    *prometheus.CounterVec
	activeChanges  prometheus.Counter
	sessions       prometheus.Gauge
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		articlesLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docreader_articles_loaded_total",
			Help: "Articles parsed and rendered, by source format.",
		}, []string{"format"}),
		sections: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "docreader_outline_sections",
			Help:    "Number of outline sections per loaded article.",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
		}),
		navigations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docreader_navigations_total",
			Help: "Section navigation requests, by result.",
		}, []string{"result"}),
		activeChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "docreader_active_section_changes_total",
			Help: "Changes of the active section across all sessions.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "docreader_sessions_active",
			Help: "Live reading sessions.",
		}),
	}
	m.registry.MustRegister(
		m.articlesLoaded,
		m.sections,
		m.navigations,
		m.activeChanges,
		m.sessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ArticleLoaded records one built article. It fits library.Options.OnLoad.
func (m *Metrics) ArticleLoaded(a *library.Article) {
	m.articlesLoaded.WithLabelValues(a.Format).Inc()
	m.sections.Observe(float64(a.Outline.Len()))
}

func (m *Metrics) Navigation(result string) {
	m.navigations.WithLabelValues(result).Inc()
}

func (m *Metrics) ActiveSectionChanged() {
	m.activeChanges.Inc()
}

func (m *Metrics) SessionsActive(n int) {
	m.sessions.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
