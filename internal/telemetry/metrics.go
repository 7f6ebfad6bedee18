// Package telemetry exposes pass, job and gateway metrics through Prometheus
// and records pass and gateway spans with OpenTelemetry.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "creditsync"

type Metrics struct {
	registry *prometheus.Registry

	passRuns        *prometheus.CounterVec
	passRecords     *prometheus.CounterVec
	passDuration    *prometheus.HistogramVec
	passPeak        *prometheus.GaugeVec
	jobRuns         *prometheus.CounterVec
	jobDropped      *prometheus.CounterVec
	jobRunning      *prometheus.GaugeVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers every collector on a fresh registry together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		passRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pass_runs_total",
			Help:      "Reconciliation passes run, by result.",
		}, []string{"pass", "result"}),
		passRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pass_records_total",
			Help:      "Records processed by passes, by outcome class.",
		}, []string{"pass", "class"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of reconciliation passes.",
			Buckets:   []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"pass"}),
		passPeak: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pass_peak_in_flight",
			Help:      "Highest number of concurrent record operations in the last run of a pass.",
		}, []string{"pass"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled or triggered job runs, by result.",
		}, []string{"job", "result"}),
		jobDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_triggers_dropped_total",
			Help:      "Triggers dropped because the job class was already running.",
		}, []string{"job"}),
		jobRunning: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_running",
			Help:      "1 while a job class is running.",
		}, []string{"job"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "HTTP requests sent to the remote systems.",
		}, []string{"system", "code", "method"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Latency of HTTP requests sent to the remote systems.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"system", "method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.passRuns, m.passRecords, m.passDuration, m.passPeak,
		m.jobRuns, m.jobDropped, m.jobRunning,
		m.requests, m.requestDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// InstrumentTransport counts and times the requests sent through next.
func (m *Metrics) InstrumentTransport(system string, next http.RoundTripper) http.RoundTripper {
	labels := prometheus.Labels{"system": system}
	return promhttp.InstrumentRoundTripperCounter(m.requests.MustCurryWith(labels),
		promhttp.InstrumentRoundTripperDuration(m.requestDuration.MustCurryWith(labels), next))
}
