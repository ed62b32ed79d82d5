// Package metrics provides Prometheus instrumentation for backend calls.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the client's collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	// RequestDuration tracks backend request duration.
	RequestDuration *prometheus.HistogramVec
	// RequestsTotal counts backend requests by endpoint and outcome.
	RequestsTotal *prometheus.CounterVec
	// Exchanges counts finished chat exchanges by outcome.
	Exchanges *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragchat_backend_request_duration_seconds",
				Help:    "Backend request duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"endpoint"},
		),
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragchat_backend_requests_total",
				Help: "Total backend requests",
			},
			[]string{"endpoint", "outcome"},
		),
		Exchanges: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragchat_chat_exchanges_total",
				Help: "Chat exchanges by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveRequest records one backend round trip. Safe on a nil receiver.
func (m *Metrics) ObserveRequest(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	m.RequestsTotal.WithLabelValues(endpoint, outcome).Inc()
}

// ObserveExchange records the outcome of one chat exchange. Safe on a nil receiver.
func (m *Metrics) ObserveExchange(outcome string) {
	if m == nil {
		return
	}
	m.Exchanges.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Serve listens on addr and serves /metrics until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
