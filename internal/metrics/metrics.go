package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	// Refresh loop
	PollsTotal         atomic.Uint64
	PollsFailed        atomic.Uint64
	PollNetworkErrors  atomic.Uint64
	PollStatusErrors   atomic.Uint64
	PollPayloadErrors  atomic.Uint64
	CycleLatencyMs     atomic.Uint64 // Last cycle duration in ms
	LastSuccessUnixSec atomic.Int64

	// Status backend
	MQTTMessages      atomic.Uint64
	MQTTDropped       atomic.Uint64
	HTTPRequests      atomic.Uint64
	ImagesServed      atomic.Uint64
	PlaceholderServed atomic.Uint64

	// Prometheus collectors
	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.registerPrometheusMetrics()

	return m
}

func (m *Metrics) gauge(name, help string, value func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: name, Help: help},
		value,
	))
}

func (m *Metrics) counter(name, help string, value func() float64) {
	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{Name: name, Help: help},
		value,
	))
}

// registerPrometheusMetrics registers all metrics with Prometheus
func (m *Metrics) registerPrometheusMetrics() {
	m.counter("detect_monitor_polls_total", "Total refresh cycles that fetched the status endpoint",
		func() float64 { return float64(m.PollsTotal.Load()) })
	m.counter("detect_monitor_polls_failed_total", "Refresh cycles that did not produce a snapshot",
		func() float64 { return float64(m.PollsFailed.Load()) })
	m.counter("detect_monitor_poll_network_errors_total", "Poll failures caused by transport errors",
		func() float64 { return float64(m.PollNetworkErrors.Load()) })
	m.counter("detect_monitor_poll_status_errors_total", "Poll failures caused by non-success HTTP status",
		func() float64 { return float64(m.PollStatusErrors.Load()) })
	m.counter("detect_monitor_poll_payload_errors_total", "Poll failures caused by malformed payloads",
		func() float64 { return float64(m.PollPayloadErrors.Load()) })
	m.gauge("detect_monitor_cycle_latency_ms", "Duration of the last refresh cycle in milliseconds",
		func() float64 { return float64(m.CycleLatencyMs.Load()) })
	m.gauge("detect_monitor_last_success_timestamp_seconds", "Unix time of the last successful poll",
		func() float64 { return float64(m.LastSuccessUnixSec.Load()) })

	m.counter("detect_monitor_mqtt_messages_total", "Detect messages received from MQTT",
		func() float64 { return float64(m.MQTTMessages.Load()) })
	m.counter("detect_monitor_mqtt_dropped_total", "Detect messages rejected for not being a JSON object",
		func() float64 { return float64(m.MQTTDropped.Load()) })
	m.counter("detect_monitor_http_requests_total", "HTTP requests served by the monitor",
		func() float64 { return float64(m.HTTPRequests.Load()) })
	m.counter("detect_monitor_images_served_total", "Detect images served from the last message",
		func() float64 { return float64(m.ImagesServed.Load()) })
	m.counter("detect_monitor_placeholder_served_total", "Placeholder images served while no data is available",
		func() float64 { return float64(m.PlaceholderServed.Load()) })
}

// ObserveCycle records the outcome of one refresh cycle.
// reason is empty on success.
func (m *Metrics) ObserveCycle(duration time.Duration, reason string) {
	m.PollsTotal.Add(1)
	m.CycleLatencyMs.Store(uint64(duration.Milliseconds()))

	switch reason {
	case "":
		m.LastSuccessUnixSec.Store(time.Now().Unix())
		return
	case "network":
		m.PollNetworkErrors.Add(1)
	case "status":
		m.PollStatusErrors.Add(1)
	case "payload":
		m.PollPayloadErrors.Add(1)
	}
	m.PollsFailed.Add(1)
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer starts a dedicated metrics HTTP server
func (m *Metrics) StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return http.ListenAndServe(addr, mux)
}
