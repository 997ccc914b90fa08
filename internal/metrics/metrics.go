// Package metrics exposes Prometheus collectors for requirement extraction.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	extractions     *prometheus.CounterVec
	requirements    prometheus.Counter
	sectionsSkipped prometheus.Counter
	duration        prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		extractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "specgest_extractions_total",
				Help: "Archive extractions by outcome (ok or error kind).",
			},
			[]string{"outcome"},
		),
		requirements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "specgest_requirements_total",
			Help: "Complete requirement records extracted.",
		}),
		sectionsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "specgest_sections_skipped_total",
			Help: "Section fragments skipped because their markup was malformed.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "specgest_extraction_duration_seconds",
			Help:    "Wall-clock time of archive extractions.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		}),
	}
	m.registry.MustRegister(
		m.extractions,
		m.requirements,
		m.sectionsSkipped,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveExtraction records one finished extraction.
func (m *Metrics) ObserveExtraction(outcome string, elapsed time.Duration, requirements, skippedSections int) {
	m.extractions.WithLabelValues(outcome).Inc()
	m.requirements.Add(float64(requirements))
	m.sectionsSkipped.Add(float64(skippedSections))
	m.duration.Observe(elapsed.Seconds())
}

// RegisterQueueDepth exports the current job queue depth as a gauge.
func (m *Metrics) RegisterQueueDepth(depth func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "specgest_queue_depth",
			Help: "Extraction jobs waiting for a worker.",
		},
		func() float64 { return float64(depth()) },
	))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
