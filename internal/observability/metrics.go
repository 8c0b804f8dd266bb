package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the Prometheus metrics of the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	seedsTotal      *prometheus.CounterVec
	suppliers       prometheus.Gauge
}

// NewMetrics builds a private registry with the base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proveedores_http_requests_total",
		Help: "Solicitudes HTTP por ruta y estado.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "proveedores_http_request_duration_seconds",
		Help:    "Duración de las solicitudes HTTP por ruta.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	seeds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proveedores_seed_loads_total",
		Help: "Cargas de seed por origen (remote, fallback, empty).",
	}, []string{"source"})
	suppliers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "proveedores_suppliers",
		Help: "Proveedores en la lista actual.",
	})
	registry.MustRegister(requests, duration, seeds, suppliers)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		seedsTotal:      seeds,
		suppliers:       suppliers,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request counts and latency per route pattern.
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

// ObserveSeed counts a seed load by the tier that produced it.
func (m *Metrics) ObserveSeed(source string) {
	if m == nil {
		return
	}
	m.seedsTotal.WithLabelValues(source).Inc()
}

// SetSuppliers records the size of the current supplier list.
func (m *Metrics) SetSuppliers(n int) {
	if m == nil {
		return
	}
	m.suppliers.Set(float64(n))
}

// Registerer exposes the registry for additional collectors.
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

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
