// Package metrics exposes Prometheus instrumentation for the dispatch engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the dispatch metrics. A nil *Collector is a valid no-op,
// so components can carry one unconditionally.
type Collector struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	attemptsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tokensTotal     *prometheus.CounterVec
	inFlight        *prometheus.GaugeVec
	rateLimited     *prometheus.CounterVec
	admissionWaits  prometheus.Counter
}

// NewCollector creates and registers the dispatch metrics on a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	c := &Collector{
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helmsman_requests_total",
				Help: "Completed generation requests by final outcome.",
			},
			[]string{"task", "outcome"},
		),
		attemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helmsman_attempts_total",
				Help: "Individual provider attempts by instance and result.",
			},
			[]string{"instance", "result"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "helmsman_request_duration_seconds",
				Help:    "End-to-end request latency including retries.",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"task"},
		),
		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helmsman_tokens_total",
				Help: "Tokens consumed by instance and direction.",
			},
			[]string{"instance", "direction"},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "helmsman_in_flight_requests",
				Help: "Attempts currently executing per instance.",
			},
			[]string{"instance"},
		),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "helmsman_rate_limited_total",
				Help: "Rate limit responses observed per instance.",
			},
			[]string{"instance"},
		),
		admissionWaits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "helmsman_admission_waits_total",
				Help: "Times a request was told to back off by admission control.",
			},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.attemptsTotal,
		c.requestDuration,
		c.tokensTotal,
		c.inFlight,
		c.rateLimited,
		c.admissionWaits,
	)

	return c
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordRequest records a completed request and its total latency.
func (c *Collector) RecordRequest(task, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	if task == "" {
		task = "none"
	}
	c.requestsTotal.WithLabelValues(task, outcome).Inc()
	c.requestDuration.WithLabelValues(task).Observe(elapsed.Seconds())
}

// RecordAttempt records one provider attempt.
func (c *Collector) RecordAttempt(instance, result string) {
	if c == nil {
		return
	}
	c.attemptsTotal.WithLabelValues(instance, result).Inc()
}

// RecordTokens records token consumption for an instance.
func (c *Collector) RecordTokens(instance string, prompt, completion int) {
	if c == nil {
		return
	}
	c.tokensTotal.WithLabelValues(instance, "prompt").Add(float64(prompt))
	c.tokensTotal.WithLabelValues(instance, "completion").Add(float64(completion))
}

// AttemptStarted increments the in-flight gauge for an instance.
func (c *Collector) AttemptStarted(instance string) {
	if c == nil {
		return
	}
	c.inFlight.WithLabelValues(instance).Inc()
}

// AttemptFinished decrements the in-flight gauge for an instance.
func (c *Collector) AttemptFinished(instance string) {
	if c == nil {
		return
	}
	c.inFlight.WithLabelValues(instance).Dec()
}

// RecordRateLimited records a rate limit response from an instance.
func (c *Collector) RecordRateLimited(instance string) {
	if c == nil {
		return
	}
	c.rateLimited.WithLabelValues(instance).Inc()
}

// RecordAdmissionWait records a back-off decision from admission control.
func (c *Collector) RecordAdmissionWait() {
	if c == nil {
		return
	}
	c.admissionWaits.Inc()
}
