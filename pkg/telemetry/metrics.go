package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for reconcile runs and controller
// API traffic. A nil *Metrics (or a disabled one) is a no-op, so callers
// never need to guard instrumentation sites.
type Metrics struct {
	config MetricsConfig

	reconcilesTotal   *prometheus.CounterVec
	reconcileDuration *prometheus.HistogramVec
	apiRequestsTotal  *prometheus.CounterVec
	resolverLookups   *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	runsTotal         *prometheus.CounterVec
	activeWatches     prometheus.Gauge

	registry *prometheus.Registry
	server   *http.Server
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	registry := prometheus.NewRegistry()
	namespace := cfg.Namespace

	m := &Metrics{
		config:   cfg,
		registry: registry,

		reconcilesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconciles_total",
				Help:      "Total reconciliations by resource type and outcome",
			},
			[]string{"resource_type", "outcome"},
		),
		reconcileDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reconcile_duration_seconds",
				Help:      "Duration of individual resource reconciliations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"resource_type"},
		),
		apiRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Controller API requests by method, endpoint, and status code",
			},
			[]string{"method", "endpoint", "code"},
		),
		resolverLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolver_lookups_total",
				Help:      "Name-to-ID resolver lookups by collection and result",
			},
			[]string{"collection", "result"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Reconciliation failures by error kind",
			},
			[]string{"kind"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Manifest reconcile runs by status",
			},
			[]string{"status"},
		),
		activeWatches: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_watches",
				Help:      "Number of active manifest watch loops",
			},
		),
	}

	registry.MustRegister(
		m.reconcilesTotal,
		m.reconcileDuration,
		m.apiRequestsTotal,
		m.resolverLookups,
		m.errorsTotal,
		m.runsTotal,
		m.activeWatches,
	)
	return m, nil
}

// ObserveReconcile records one completed resource reconciliation.
func (m *Metrics) ObserveReconcile(resourceType, outcome string, d time.Duration) {
	if m == nil || m.registry == nil {
		return
	}
	m.reconcilesTotal.WithLabelValues(resourceType, outcome).Inc()
	m.reconcileDuration.WithLabelValues(resourceType).Observe(d.Seconds())
}

// ObserveAPIRequest records one controller API request. Wired into the
// controller client as a RequestObserver.
func (m *Metrics) ObserveAPIRequest(method, endpoint string, status int, d time.Duration) {
	if m == nil || m.registry == nil {
		return
	}
	m.apiRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
}

// ObserveLookup records one resolver lookup result.
func (m *Metrics) ObserveLookup(collection, result string) {
	if m == nil || m.registry == nil {
		return
	}
	m.resolverLookups.WithLabelValues(collection, result).Inc()
}

// ObserveError records a reconciliation failure by kind.
func (m *Metrics) ObserveError(kind string) {
	if m == nil || m.registry == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.errorsTotal.WithLabelValues(kind).Inc()
}

// ObserveRun records a completed manifest run.
func (m *Metrics) ObserveRun(status string) {
	if m == nil || m.registry == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
}

// WatchStarted marks a watch loop as active.
func (m *Metrics) WatchStarted() {
	if m == nil || m.registry == nil {
		return
	}
	m.activeWatches.Inc()
}

// WatchStopped marks a watch loop as finished.
func (m *Metrics) WatchStopped() {
	if m == nil || m.registry == nil {
		return
	}
	m.activeWatches.Dec()
}

// Handler returns the scrape handler for the collector's registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on the configured listen address. Used by
// watch mode; one-shot commands never start it.
func (m *Metrics) StartServer() error {
	if m == nil || m.registry == nil {
		return nil
	}
	if m.config.ListenAddr == "" {
		return fmt.Errorf("metrics listen address is empty")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	m.server = &http.Server{
		Addr:              m.config.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// A dead metrics endpoint is not fatal to reconciliation; the watch
	// loop keeps running.
	go func() {
		_ = m.server.ListenAndServe()
	}()
	return nil
}

// Shutdown stops the metrics server if one was started.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.server == nil {
		return nil
	}
	return m.server.Shutdown(ctx)
}
