// Package metrics exposes Prometheus instrumentation for long benchmark
// sweeps. The listener is optional; a short run never starts it.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics represents the collection of all Prometheus metrics
type Metrics struct {
	IterationsTotal *prometheus.CounterVec
	ChildDuration   *prometheus.HistogramVec
	ChildFailures   *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all driver metrics on a fresh
// registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.IterationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocbench_iterations_total",
			Help: "Total number of completed benchmark iterations",
		},
		[]string{"allocator"},
	)

	m.ChildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "allocbench_child_duration_seconds",
			Help:    "Wall-clock duration of benchmark child processes",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
		},
		[]string{"allocator"},
	)

	m.ChildFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocbench_child_failures_total",
			Help: "Total number of benchmark child processes that exited non-zero",
		},
		[]string{"allocator"},
	)

	m.registry.MustRegister(m.IterationsTotal, m.ChildDuration, m.ChildFailures)
	return m
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts the metrics listener in the background. The returned
// function shuts it down.
func (m *Metrics) Serve(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics listener failed", "addr", addr, "error", err)
		}
	}()
	slog.Info("metrics listener started", "addr", addr)

	return func() { srv.Close() }
}
