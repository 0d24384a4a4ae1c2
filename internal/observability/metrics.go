package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the application's Prometheus metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	scanTicks       prometheus.Counter
	skusEvaluated   prometheus.Counter
	skuFailures     prometheus.Counter
	proposals       *prometheus.CounterVec
	notifyFailures  prometheus.Counter
}

// NewMetrics initialises the registry and the base metric set.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpilot_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockpilot_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	scanTicks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockpilot_replenish_scan_ticks_total",
		Help: "Scheduler ticks that actually ran a scan.",
	})
	skusEvaluated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockpilot_replenish_skus_evaluated_total",
		Help: "SKUs evaluated by the auto-replenishment scheduler.",
	})
	skuFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockpilot_replenish_sku_failures_total",
		Help: "Per-SKU evaluation failures inside scheduler runs.",
	})
	proposals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpilot_proposals_created_total",
		Help: "Procurement proposals created, by source.",
	}, []string{"source"})
	notifyFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockpilot_proposal_notify_failures_total",
		Help: "Proposal alerts that could not be delivered.",
	})
	registry.MustRegister(requests, duration, scanTicks, skusEvaluated, skuFailures, proposals, notifyFailures)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		scanTicks:       scanTicks,
		skusEvaluated:   skusEvaluated,
		skuFailures:     skuFailures,
		proposals:       proposals,
		notifyFailures:  notifyFailures,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ScanTick counts one executed scheduler scan.
func (m *Metrics) ScanTick() {
	if m != nil {
		m.scanTicks.Inc()
	}
}

// SKUEvaluated counts one scheduler SKU evaluation.
func (m *Metrics) SKUEvaluated() {
	if m != nil {
		m.skusEvaluated.Inc()
	}
}

// SKUFailure counts one isolated per-SKU failure.
func (m *Metrics) SKUFailure() {
	if m != nil {
		m.skuFailures.Inc()
	}
}

// ProposalCreated counts a proposal by its source label.
func (m *Metrics) ProposalCreated(source string) {
	if m != nil {
		m.proposals.WithLabelValues(source).Inc()
	}
}

// NotifyFailure counts one undeliverable proposal alert.
func (m *Metrics) NotifyFailure() {
	if m != nil {
		m.notifyFailures.Inc()
	}
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
