// Package metrics exposes Prometheus instrumentation for the search session.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ProviderBuckets covers provider round trips from 50ms to 30s.
var ProviderBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}

// Metrics holds the collectors for one process. All methods are safe on a
// nil receiver so callers can run without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	// ProviderRequests counts provider searches by outcome ("ok" or an error kind).
	ProviderRequests *prometheus.CounterVec

	// ProviderLatency records provider round trip time in seconds.
	ProviderLatency prometheus.Histogram

	// StaleCompletions counts responses discarded because a newer request superseded them.
	StaleCompletions prometheus.Counter

	// CoalescedQueries counts query edits absorbed by the debounce window.
	CoalescedQueries prometheus.Counter

	// SavedAssets counts GIFs saved to the local library by media kind.
	SavedAssets *prometheus.CounterVec
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gifterm_provider_requests_total",
				Help: "Provider search requests",
			},
			[]string{"outcome"},
		),
		ProviderLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gifterm_provider_latency_seconds",
				Help:    "Provider latency",
				Buckets: ProviderBuckets,
			},
		),
		StaleCompletions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gifterm_stale_completions_total",
				Help: "Provider responses dropped after being superseded",
			},
		),
		CoalescedQueries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gifterm_coalesced_queries_total",
				Help: "Query edits replaced before the debounce window elapsed",
			},
		),
		SavedAssets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gifterm_saved_assets_total",
				Help: "GIFs saved to the local library",
			},
			[]string{"kind"},
		),
	}
	m.registry.MustRegister(
		m.ProviderRequests,
		m.ProviderLatency,
		m.StaleCompletions,
		m.CoalescedQueries,
		m.SavedAssets,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveProviderRequest records one provider round trip.
func (m *Metrics) ObserveProviderRequest(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(outcome).Inc()
	m.ProviderLatency.Observe(elapsed.Seconds())
}

// StaleCompletion records a dropped superseded response.
func (m *Metrics) StaleCompletion() {
	if m == nil {
		return
	}
	m.StaleCompletions.Inc()
}

// QueryCoalesced records a query edit that replaced a pending one.
func (m *Metrics) QueryCoalesced() {
	if m == nil {
		return
	}
	m.CoalescedQueries.Inc()
}

// AssetSaved records a saved library asset.
func (m *Metrics) AssetSaved(kind string) {
	if m == nil {
		return
	}
	m.SavedAssets.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, m *Metrics, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listener started", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
