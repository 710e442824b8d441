// Package metrics defines the Prometheus metrics of the rankstream server and
// client.
//
// Metrics are created against an explicit prometheus.Registerer so tests can
// use a private registry. All operations are safe for concurrent use.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rankstream"

// Session failure reasons.
const (
	ReasonTransport = "transport"
	ReasonRanking   = "ranking"
	ReasonSend      = "send"
)

// Client request statuses.
const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
	StatusError   = "error"
)

// Server holds the metrics of the server side of the protocol.
type Server struct {
	// SessionsTotal counts accepted Rank streams.
	SessionsTotal prometheus.Counter

	// ActiveSessions tracks streams whose handler has not returned yet.
	ActiveSessions prometheus.Gauge

	// ResultSetsSentTotal counts result sets written to streams.
	// Labels: version
	ResultSetsSentTotal *prometheus.CounterVec

	// DeferredFailuresTotal counts deferred version 3 sends that failed.
	DeferredFailuresTotal prometheus.Counter

	// SessionFailuresTotal counts sessions that ended with an error.
	// Labels: reason (transport, ranking, send)
	SessionFailuresTotal *prometheus.CounterVec
}

// NewServer creates and registers the server metrics with reg.
func NewServer(reg prometheus.Registerer) *Server {
	f := promauto.With(reg)
	return &Server{
		SessionsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "sessions_total",
			Help:      "Total number of Rank streams accepted.",
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "active_sessions",
			Help:      "Number of Rank streams currently being handled.",
		}),
		ResultSetsSentTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "result_sets_sent_total",
			Help:      "Total number of result sets sent, by version.",
		}, []string{"version"}),
		DeferredFailuresTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "deferred_failures_total",
			Help:      "Total number of deferred final result sets that could not be produced or sent.",
		}),
		SessionFailuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "session_failures_total",
			Help:      "Total number of sessions that ended with an error, by reason.",
		}, []string{"reason"}),
	}
}

// ResultSetSent records a result set written to a stream.
func (m *Server) ResultSetSent(version uint32) {
	if m == nil {
		return
	}
	m.ResultSetsSentTotal.WithLabelValues(strconv.FormatUint(uint64(version), 10)).Inc()
}

// SessionFailed records a session that ended with an error.
func (m *Server) SessionFailed(reason string) {
	if m == nil {
		return
	}
	m.SessionFailuresTotal.WithLabelValues(reason).Inc()
}

// DeferredFailed records a failed deferred send.
func (m *Server) DeferredFailed() {
	if m == nil {
		return
	}
	m.DeferredFailuresTotal.Inc()
}

// SessionStarted records an accepted stream and returns a func to call when
// its handler returns.
func (m *Server) SessionStarted() func() {
	if m == nil {
		return func() {}
	}
	m.SessionsTotal.Inc()
	m.ActiveSessions.Inc()
	return m.ActiveSessions.Dec
}

// Client holds the metrics of the client side of the protocol.
type Client struct {
	// RequestsTotal counts ranked result requests by outcome.
	// Labels: status (success, empty, error)
	RequestsTotal *prometheus.CounterVec

	// SelectedVersionTotal counts the version each request settled on.
	// Labels: version (0 for the empty result)
	SelectedVersionTotal *prometheus.CounterVec

	// CutoverSeconds observes the drawn cutover deadlines.
	CutoverSeconds prometheus.Histogram
}

// NewClient creates and registers the client metrics with reg.
func NewClient(reg prometheus.Registerer) *Client {
	f := promauto.With(reg)
	return &Client{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total number of ranked result requests, by outcome.",
		}, []string{"status"}),
		SelectedVersionTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "selected_version_total",
			Help:      "Total number of requests by selected result set version.",
		}, []string{"version"}),
		CutoverSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "cutover_seconds",
			Help:      "Cutover deadlines drawn for result collection.",
			Buckets:   []float64{0.01, 0.03, 0.05, 0.075, 0.1, 0.12, 0.2, 0.5},
		}),
	}
}

// Request records the outcome of one request.
func (m *Client) Request(status string, version uint32) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(status).Inc()
	if status != StatusError {
		m.SelectedVersionTotal.WithLabelValues(strconv.FormatUint(uint64(version), 10)).Inc()
	}
}

// Cutover records a drawn cutover deadline in seconds.
func (m *Client) Cutover(seconds float64) {
	if m == nil {
		return
	}
	m.CutoverSeconds.Observe(seconds)
}
