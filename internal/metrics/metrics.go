// Package metrics exposes Prometheus collectors for the refresh pipeline.
// All methods are safe on a nil *Metrics so components can run unmetered.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tickerboard"

// Metrics is the collector set.
type Metrics struct {
	Cycles        *prometheus.CounterVec
	CycleDuration prometheus.Histogram
	FetchErrors   *prometheus.CounterVec
	Charts        *prometheus.CounterVec
	Clients       prometheus.Gauge

	registry *prometheus.Registry
}

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_cycles_total",
			Help:      "Refresh cycles by trigger and result",
		}, []string{"trigger", "result"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_cycle_duration_seconds",
			Help:      "Refresh cycle duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Backend fetch failures by endpoint",
		}, []string{"endpoint"}),
		Charts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_total",
			Help:      "Gainer chart outcomes",
		}, []string{"outcome"}),
		Clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "Connected websocket clients",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.Cycles,
		m.CycleDuration,
		m.FetchErrors,
		m.Charts,
		m.Clients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCycle records one finished refresh cycle.
func (m *Metrics) ObserveCycle(trigger, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.Cycles.WithLabelValues(trigger, result).Inc()
	m.CycleDuration.Observe(d.Seconds())
}

// FetchFailed counts a backend failure.
func (m *Metrics) FetchFailed(endpoint string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(endpoint).Inc()
}

// ChartOutcome counts one chart result.
func (m *Metrics) ChartOutcome(outcome string) {
	if m == nil {
		return
	}
	m.Charts.WithLabelValues(outcome).Inc()
}

// SetClients sets the connected client gauge.
func (m *Metrics) SetClients(n int) {
	if m == nil {
		return
	}
	m.Clients.Set(float64(n))
}
