// Package metric provides Prometheus metrics for the NDAify client.
package metric

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ndaify"

// Registry holds all client metrics.
//
// All Observe methods are safe to call on a nil *Registry, so components can
// take an optional registry without guarding every call site.
type Registry struct {
	reg *prometheus.Registry

	// Dispatcher metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RedirectsTotal  prometheus.Counter

	// Cache metrics
	CacheLookups     *prometheus.CounterVec
	CacheInvalidated *prometheus.CounterVec

	// Router metrics
	Navigations  *prometheus.CounterVec
	StaleResults *prometheus.CounterVec
}

// NewRegistry creates a registry with every client collector registered,
// plus the Go runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		}, []string{"operation"}),
		RedirectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "session_redirects_total",
			Help:      "Navigations to the session error screen requested by the dispatcher.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by cache name and result.",
		}, []string{"cache", "result"}),
		CacheInvalidated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "invalidated_entries_total",
			Help:      "Entries removed by invalidation.",
		}, []string{"cache"}),
		Navigations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "navigations_total",
			Help:      "Navigation requests by target route.",
		}, []string{"route"}),
		StaleResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "stale_results_total",
			Help:      "Initializer results discarded because a newer navigation won.",
		}, []string{"route"}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.RequestsTotal,
		r.RequestDuration,
		r.RedirectsTotal,
		r.CacheLookups,
		r.CacheInvalidated,
		r.Navigations,
		r.StaleResults,
	)
	return r
}

// Prometheus returns the underlying registry for components that register
// their own collectors (the settings store).
func (r *Registry) Prometheus() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// ObserveRequest records one finished API request.
func (r *Registry) ObserveRequest(operation, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(operation, outcome).Inc()
	r.RequestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveRedirect records a session-error redirect.
func (r *Registry) ObserveRedirect() {
	if r == nil {
		return
	}
	r.RedirectsTotal.Inc()
}

// ObserveCacheLookup records a cache hit or miss.
func (r *Registry) ObserveCacheLookup(cache string, hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.CacheLookups.WithLabelValues(cache, result).Inc()
}

// ObserveInvalidation records n entries removed from a cache.
func (r *Registry) ObserveInvalidation(cache string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.CacheInvalidated.WithLabelValues(cache).Add(float64(n))
}

// ObserveNavigation records a navigation request.
func (r *Registry) ObserveNavigation(route string) {
	if r == nil {
		return
	}
	r.Navigations.WithLabelValues(route).Inc()
}

// ObserveStaleResult records a discarded initializer result.
func (r *Registry) ObserveStaleResult(route string) {
	if r == nil {
		return
	}
	r.StaleResults.WithLabelValues(route).Inc()
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
