// Package metrics provides Prometheus metrics for the relay
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the relay. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Inbound traffic
	MessagesTotal *prometheus.CounterVec

	// Language model metrics
	ModelCallsTotal   *prometheus.CounterVec
	ModelCallDuration prometheus.Histogram
	DecisionsTotal    *prometheus.CounterVec

	// Image generation metrics
	ImageJobsTotal    *prometheus.CounterVec
	ImageJobDuration  prometheus.Histogram
	ImageJobsInFlight prometheus.Gauge
}

// NewMetrics creates all metrics on a private registry so tests and multiple
// containers never collide on the global one.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}

	m.MessagesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_total",
			Help: "Total number of inbound messages by route",
		},
		[]string{"route"},
	)

	m.ModelCallsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_model_calls_total",
			Help: "Total number of language model calls",
		},
		[]string{"status"},
	)

	m.ModelCallDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_model_call_duration_seconds",
			Help:    "Duration of language model calls in seconds",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 40, 80, 120},
		},
	)

	m.DecisionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_decisions_total",
			Help: "Total number of parsed decisions by outcome",
		},
		[]string{"outcome"},
	)

	m.ImageJobsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_image_jobs_total",
			Help: "Total number of image generation jobs",
		},
		[]string{"source", "status"},
	)

	m.ImageJobDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_image_job_duration_seconds",
			Help:    "Duration of image generation jobs in seconds",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 60, 90, 120},
		},
	)

	m.ImageJobsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_image_jobs_in_flight",
			Help: "Number of image generation jobs currently running",
		},
	)

	reg.MustRegister(collectors.NewGoCollector())

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordMessage counts an inbound message by route (chat, clear, help, create_pic).
func (m *Metrics) RecordMessage(route string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(route).Inc()
}

// RecordModelCall records one language model round trip.
func (m *Metrics) RecordModelCall(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ModelCallsTotal.WithLabelValues(status).Inc()
	m.ModelCallDuration.Observe(duration.Seconds())
}

// RecordDecision counts a parsed decision. Outcome is "image", "text" or "fallback".
func (m *Metrics) RecordDecision(outcome string) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(outcome).Inc()
}

// ImageJobStarted marks a job in flight and returns the func that finishes it.
func (m *Metrics) ImageJobStarted(source string) func(status string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	m.ImageJobsInFlight.Inc()
	return func(status string) {
		m.ImageJobsInFlight.Dec()
		m.ImageJobsTotal.WithLabelValues(source, status).Inc()
		m.ImageJobDuration.Observe(time.Since(start).Seconds())
	}
}
