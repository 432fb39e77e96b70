package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all dashboard metrics
type Metrics struct {
	// Upstream feed counters
	PredictionsReceived atomic.Uint64
	ParseErrors         atomic.Uint64
	TransportErrors     atomic.Uint64
	SessionsOpened      atomic.Uint64
	SessionsClosed      atomic.Uint64

	// Current state
	StreamActive  atomic.Uint64 // 0 = closed, 1 = open
	HistoryLength atomic.Uint64
	LiveClients   atomic.Int64

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

func (m *Metrics) registerPrometheusMetrics() {
	counters := []struct {
		name, help string
		value      *atomic.Uint64
	}{
		{"visiondash_predictions_received_total", "Total predictions parsed from the upstream feed", &m.PredictionsReceived},
		{"visiondash_parse_errors_total", "Total upstream events that failed to parse", &m.ParseErrors},
		{"visiondash_transport_errors_total", "Total upstream sessions torn down by a transport failure", &m.TransportErrors},
		{"visiondash_sessions_opened_total", "Total upstream sessions opened", &m.SessionsOpened},
		{"visiondash_sessions_closed_total", "Total upstream sessions closed for any reason", &m.SessionsClosed},
	}
	for _, c := range counters {
		value := c.value
		m.registry.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{Name: c.name, Help: c.help},
			func() float64 { return float64(value.Load()) },
		))
	}

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "visiondash_stream_active",
			Help: "Upstream stream open (0=closed, 1=open)",
		},
		func() float64 { return float64(m.StreamActive.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "visiondash_history_length",
			Help: "Records currently held in the history log",
		},
		func() float64 { return float64(m.HistoryLength.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "visiondash_live_clients",
			Help: "Browser clients subscribed to the live event stream",
		},
		func() float64 { return float64(m.LiveClients.Load()) },
	))
}

// SetStreamActive records whether the upstream session is open.
func (m *Metrics) SetStreamActive(open bool) {
	if open {
		m.StreamActive.Store(1)
		return
	}
	m.StreamActive.Store(0)
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
