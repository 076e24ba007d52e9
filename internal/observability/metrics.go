package observability

import (
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cesizen/cesizen-backend/internal/platform/logger"
)

// latencyBuckets covers fast reads up to slow diagnostic submissions.
var latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

// Metrics is the process-wide metric set, exposed in the Prometheus text
// format. A nil *Metrics is valid and records nothing.
type Metrics struct {
	httpRequests *CounterVec
	httpLatency  *HistogramVec
	httpInflight *Gauge
	httpFailures *Counter

	toggles     *CounterVec
	views       *CounterVec
	diagnostics *CounterVec
	comments    *CounterVec

	sseClients   *Gauge
	ssePublished *CounterVec
	sseDropped   *Gauge

	dbPool    *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge

	exported []promWriter
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the metrics installed by Init, or nil.
func Current() *Metrics {
	return instance
}

// Init installs the process metrics the first time it is called with
// enabled set. Later calls return the same instance.
func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
		if log != nil {
			log.Info("Prometheus metrics enabled", "series", len(instance.exported))
		}
	})
	return instance
}

func newMetrics() *Metrics {
	httpLabels := []string{"method", "route", "status"}
	m := &Metrics{
		httpRequests: NewCounterVec("cz_api_requests_total", "API requests by method, route and status.", httpLabels),
		httpLatency:  NewHistogramVec("cz_api_request_duration_seconds", "API request latency in seconds.", httpLabels, latencyBuckets),
		httpInflight: NewGauge("cz_api_inflight_requests", "API requests currently being served."),
		httpFailures: NewCounter("cz_api_requests_error_total", "API requests answered with a 5xx status."),

		toggles:     NewCounterVec("cz_interaction_toggles_total", "Interaction toggles by target type, kind and outcome.", []string{"target_type", "kind", "status"}),
		views:       NewCounterVec("cz_views_recorded_total", "First views recorded by target type.", []string{"target_type"}),
		diagnostics: NewCounterVec("cz_diagnostics_submitted_total", "Submitted diagnostics by mode and risk band.", []string{"mode", "risk_band"}),
		comments:    NewCounterVec("cz_comments_total", "Comment lifecycle events.", []string{"event"}),

		sseClients:   NewGauge("cz_sse_clients", "Connected SSE clients."),
		ssePublished: NewCounterVec("cz_sse_published_total", "Realtime messages published by event.", []string{"event"}),
		sseDropped:   NewGauge("cz_sse_dropped_messages", "Realtime messages dropped on full client buffers since start."),

		dbPool:    NewGaugeVec("cz_db_pool", "database/sql pool statistics.", []string{"stat"}),
		redisUp:   NewGauge("cz_redis_up", "Whether the realtime Redis answered the last ping."),
		redisPing: NewGauge("cz_redis_ping_seconds", "Latency of the last Redis ping."),
	}
	m.exported = []promWriter{
		m.httpRequests, m.httpLatency, m.httpInflight, m.httpFailures,
		m.toggles, m.views, m.diagnostics, m.comments,
		m.sseClients, m.ssePublished, m.sseDropped,
		m.dbPool, m.redisUp, m.redisPing,
	}
	return m
}

// WriteHTTP serves the scrape endpoint.
func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, series := range m.exported {
		if err := series.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	method, route, status = orDefault(method, "UNKNOWN"), orDefault(route, "unknown"), orDefault(status, "0")
	m.httpRequests.Inc(method, route, status)
	m.httpLatency.Observe(dur.Seconds(), method, route, status)
	if isServerErrorStatus(status) {
		m.httpFailures.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m != nil {
		m.httpInflight.Inc()
	}
}

func (m *Metrics) ApiInflightDec() {
	if m != nil {
		m.httpInflight.Dec()
	}
}

func (m *Metrics) IncInteraction(targetType, kind, status string) {
	if m != nil {
		m.toggles.Inc(targetType, kind, status)
	}
}

func (m *Metrics) IncView(targetType string) {
	if m != nil {
		m.views.Inc(targetType)
	}
}

func (m *Metrics) IncDiagnostic(mode, band string) {
	if m != nil {
		m.diagnostics.Inc(mode, band)
	}
}

func (m *Metrics) IncComment(event string) {
	if m != nil {
		m.comments.Inc(event)
	}
}

func (m *Metrics) SSEClientConnected() {
	if m != nil {
		m.sseClients.Inc()
	}
}

func (m *Metrics) SSEClientDisconnected() {
	if m != nil {
		m.sseClients.Dec()
	}
}

func (m *Metrics) IncSSEPublished(event string) {
	if m != nil {
		m.ssePublished.Inc(event)
	}
}
