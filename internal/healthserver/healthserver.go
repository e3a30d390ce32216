// Package healthserver provides a shared health/metrics server for
// Kubernetes-style probes, and the Prometheus counters the core packages
// update as they run.
package healthserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds the Prometheus collectors shared across searchctl's core
// packages. Callers increment/observe these directly; Start only exposes
// the /metrics endpoint that serves them.
type Metrics struct {
	MigrationsTotal          *prometheus.CounterVec
	ValidationChecksTotal    *prometheus.CounterVec
	BulkRetryPassesTotal     prometheus.Counter
	EvalRunsTotal            prometheus.Counter
	BenchmarkIterationsTotal prometheus.Counter
}

// NewMetrics constructs and registers Metrics against the default registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		MigrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "searchctl_migrations_total",
			Help: "Blue-green reindex migrations by outcome.",
		}, []string{"outcome"}),
		ValidationChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "searchctl_validation_checks_total",
			Help: "Reindex validation checks by check name and outcome.",
		}, []string{"check", "outcome"}),
		BulkRetryPassesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "searchctl_bulk_retry_passes_total",
			Help: "Bulk indexer retry passes executed.",
		}),
		EvalRunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "searchctl_eval_runs_total",
			Help: "Evaluation runner invocations.",
		}),
		BenchmarkIterationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "searchctl_benchmark_iterations_total",
			Help: "Performance benchmark iterations executed.",
		}),
	}
	prometheus.MustRegister(
		m.MigrationsTotal,
		m.ValidationChecksTotal,
		m.BulkRetryPassesTotal,
		m.EvalRunsTotal,
		m.BenchmarkIterationsTotal,
	)
	return m
}

// Start starts a health/metrics server on the specified port.
//   - /healthz - liveness probe (always 200 if the process is alive)
//   - /readyz  - readiness probe (calls readyChecker to verify readiness)
//   - /metrics - Prometheus metrics endpoint
//
// The server runs in a goroutine and does not block.
func Start(logger *zap.Logger, port int, readyChecker func() bool) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if readyChecker != nil && readyChecker() {
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte("ready")); err != nil {
				logger.Error("failed to write ready response", zap.Error(err))
			}
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, err := w.Write([]byte("not ready")); err != nil {
				logger.Error("failed to write not ready response", zap.Error(err))
			}
		}
	})

	go func() {
		addr := fmt.Sprintf("0.0.0.0:%d", port)
		server := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 40 * time.Second,
		}
		logger.Info("starting health/metrics server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", zap.Error(err))
		}
	}()
}
