// Package metrics collects and exposes Prometheus metrics for the
// generation orchestrator.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the orchestrator's Prometheus metrics. Each Collector
// owns its registry so tests can build isolated instances.
type Collector struct {
	registry *prometheus.Registry

	jobsSubmitted prometheus.Counter
	jobsFinished  *prometheus.CounterVec
	jobsRunning   prometheus.Gauge

	itemsServed  *prometheus.CounterVec
	quotaDenials prometheus.Counter

	sectionDuration prometheus.Histogram
}

// NewCollector creates a metrics collector with a fresh registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		jobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "examforge_jobs_submitted_total",
			Help: "Total number of generation jobs submitted",
		}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examforge_jobs_finished_total",
			Help: "Total number of generation jobs reaching a terminal state",
		}, []string{"status"}),
		jobsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "examforge_jobs_running",
			Help: "Number of jobs currently executing",
		}),
		itemsServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "examforge_items_served_total",
			Help: "Total content items delivered, by source",
		}, []string{"source"}),
		quotaDenials: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "examforge_quota_denials_total",
			Help: "Total section plans rejected for exhausted quota",
		}),
		sectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "examforge_section_duration_seconds",
			Help:    "Wall-clock duration of section planning",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}

	c.registry.MustRegister(
		c.jobsSubmitted,
		c.jobsFinished,
		c.jobsRunning,
		c.itemsServed,
		c.quotaDenials,
		c.sectionDuration,
	)

	return c
}

// Handler returns the HTTP handler for the /metrics endpoint
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// JobSubmitted records a job submission
func (c *Collector) JobSubmitted() {
	c.jobsSubmitted.Inc()
	c.jobsRunning.Inc()
}

// JobFinished records a job reaching a terminal state
func (c *Collector) JobFinished(status string) {
	c.jobsFinished.WithLabelValues(status).Inc()
	c.jobsRunning.Dec()
}

// ItemsServed records delivered content items by source
func (c *Collector) ItemsServed(source string, count int) {
	if count > 0 {
		c.itemsServed.WithLabelValues(source).Add(float64(count))
	}
}

// QuotaDenied records a section plan rejected for exhausted quota
func (c *Collector) QuotaDenied() {
	c.quotaDenials.Inc()
}

// SectionPlanned records the duration of one section plan
func (c *Collector) SectionPlanned(d time.Duration) {
	c.sectionDuration.Observe(d.Seconds())
}
