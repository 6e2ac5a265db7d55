// Package metrics exposes Prometheus counters for registration outcomes
// and a standalone metrics HTTP server.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registration outcome labels.
const (
	OutcomeRegistered        = "registered"
	OutcomeAlreadyRegistered = "already_registered"
	OutcomeRejected          = "rejected"
	OutcomeFailed            = "failed"
)

var (
	registrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "custody_registrations_total",
		Help: "Registration runs by terminal outcome.",
	}, []string{"outcome"})

	recoveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "custody_recoveries_total",
		Help: "Credential recovery attempts by result.",
	}, []string{"result"})
)

// RecordRegistration increments the registration counter for an outcome.
func RecordRegistration(outcome string) {
	registrationsTotal.WithLabelValues(outcome).Inc()
}

// RecordRecovery increments the recovery counter. Found covers both
// "record present and pin correct" and nothing else; absence and gateway
// failure are counted separately.
func RecordRecovery(result string) {
	recoveriesTotal.WithLabelValues(result).Inc()
}

// MetricsServer serves the Prometheus scrape endpoint on its own
// listener.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server bound to listenAddr.
func New(listenAddr string) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		srv: &http.Server{
			Addr:         listenAddr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
	}
}

// ListenAndServe blocks serving the scrape endpoint.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
