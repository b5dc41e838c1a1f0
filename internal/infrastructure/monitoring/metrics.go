// Package monitoring exposes Prometheus metrics for the editor service.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Editor metrics
	SessionsActive    prometheus.Gauge
	SessionsTotal     prometheus.Counter
	RendersTotal      prometheus.Counter
	MessagesTotal     *prometheus.CounterVec
	MessagesDiscarded prometheus.Counter

	// Upstream metrics
	GenerationCalls  *prometheus.CounterVec
	PersistenceCalls *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge

	startTime time.Time
}

// NewMetrics registers all metrics with the default registry
func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mailcanvas_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mailcanvas_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mailcanvas_editor_sessions_active",
			Help: "Editing sessions currently open",
		}),
		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailcanvas_editor_sessions_total",
			Help: "Editing sessions created since start",
		}),
		RendersTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailcanvas_editor_renders_total",
			Help: "Sandbox documents rendered",
		}),
		MessagesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mailcanvas_editor_messages_total",
			Help: "Sandbox messages applied, by type",
		}, []string{"type"}),
		MessagesDiscarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailcanvas_editor_messages_discarded_total",
			Help: "Sandbox messages discarded as malformed or stale",
		}),
		GenerationCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mailcanvas_generation_calls_total",
			Help: "Calls to the generation backend, by status",
		}, []string{"status"}),
		PersistenceCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mailcanvas_persistence_calls_total",
			Help: "Calls to the marketing backend, by operation and status",
		}, []string{"operation", "status"}),
		WSConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mailcanvas_ws_connections",
			Help: "Active sandbox websocket connections",
		}),
		startTime: time.Now(),
	}
}

// RecordHTTPRequest records one completed HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordMessage records one applied sandbox message
func (m *Metrics) RecordMessage(msgType string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(msgType).Inc()
}

// RecordDiscard records one discarded frame
func (m *Metrics) RecordDiscard() {
	if m == nil {
		return
	}
	m.MessagesDiscarded.Inc()
}

// RecordRender records one sandbox render
func (m *Metrics) RecordRender() {
	if m == nil {
		return
	}
	m.RendersTotal.Inc()
}

// SessionOpened adjusts session gauges on create
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
	m.SessionsTotal.Inc()
}

// SessionClosed adjusts session gauges on teardown
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

// RecordGeneration records one generation backend call
func (m *Metrics) RecordGeneration(status string) {
	if m == nil {
		return
	}
	m.GenerationCalls.WithLabelValues(status).Inc()
}

// RecordPersistence records one marketing backend call
func (m *Metrics) RecordPersistence(operation, status string) {
	if m == nil {
		return
	}
	m.PersistenceCalls.WithLabelValues(operation, status).Inc()
}

// Uptime reports time since metrics were created
func (m *Metrics) Uptime() time.Duration {
	if m == nil {
		return 0
	}
	return time.Since(m.startTime)
}
