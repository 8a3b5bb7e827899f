package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/platform-smith-labs/japi-errors/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds Prometheus metrics collectors for HTTP requests and for the
// errors the translator answers. It implements core.Observer.
type Collector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	translatedErrors *prometheus.CounterVec
	registry         prometheus.Registerer
}

var _ core.Observer = (*Collector)(nil)

// MetricsOptions configures Prometheus metrics collection
type MetricsOptions struct {
	// DurationBuckets defines histogram buckets for request duration (in seconds)
	// Default: [0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10]
	DurationBuckets []float64

	// Namespace is the Prometheus namespace for metrics
	// Default: "http"
	Namespace string

	// Subsystem is the Prometheus subsystem for metrics
	// Default: "" (empty)
	Subsystem string
}

// DefaultMetricsOptions returns sensible defaults for most applications
func DefaultMetricsOptions() MetricsOptions {
	return MetricsOptions{
		DurationBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		Namespace:       "http",
		Subsystem:       "",
	}
}

// NewCollector creates a Collector registered with the default Prometheus registerer.
//
// Create the collector first when the translator should count its errors:
//
//	collector := metrics.NewCollector(metrics.DefaultMetricsOptions())
//	translator := core.NewTranslator(logger, core.WithObserver(collector))
//	r := router.NewChiRouter(translator)
//	collector.Mount(r, "/metrics")
func NewCollector(opts MetricsOptions) *Collector {
	return NewCollectorWithRegisterer(opts, prometheus.DefaultRegisterer)
}

// NewCollectorWithRegisterer creates a Collector registered with registerer.
// It panics if the metrics are already registered there.
func NewCollectorWithRegisterer(opts MetricsOptions, registerer prometheus.Registerer) *Collector {
	collector := &Collector{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Subsystem: opts.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: opts.Namespace,
				Subsystem: opts.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency distribution",
				Buckets:   opts.DurationBuckets,
			},
			[]string{"method", "path"},
		),
		requestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: opts.Namespace,
				Subsystem: opts.Subsystem,
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being served",
			},
		),
		translatedErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: opts.Namespace,
				Subsystem: opts.Subsystem,
				Name:      "translated_errors_total",
				Help:      "Total number of errors answered by the exception translator",
			},
			[]string{"kind", "status"},
		),
		registry: registerer,
	}

	registerer.MustRegister(
		collector.requestsTotal,
		collector.requestDuration,
		collector.requestsInFlight,
		collector.translatedErrors,
	)

	return collector
}

// EnablePrometheusMetrics enables Prometheus metrics collection and exposes metrics endpoint.
//
// Metrics tracked:
//   - http_requests_total{method,path,status} - Total number of HTTP requests
//   - http_request_duration_seconds{method,path} - HTTP request latency distribution
//   - http_requests_in_flight - Current number of HTTP requests being served
//   - http_translated_errors_total{kind,status} - Errors answered by the translator,
//     once the collector is registered with core.WithObserver
//
// Example:
//
//	r := router.NewChiRouter(translator)
//	metrics.EnablePrometheusMetrics(r, "/metrics")
//
// Returns the Collector for advanced usage (e.g., as a translator observer)
func EnablePrometheusMetrics(router chi.Router, metricsPath string) *Collector {
	return EnablePrometheusMetricsWithOptions(router, metricsPath, DefaultMetricsOptions())
}

// EnablePrometheusMetricsWithOptions enables Prometheus metrics with custom options.
//
// Example:
//
//	opts := metrics.MetricsOptions{
//	    DurationBuckets: []float64{0.001, 0.01, 0.1, 1, 10},
//	    Namespace:       "myapp",
//	    Subsystem:       "api",
//	}
//	metrics.EnablePrometheusMetricsWithOptions(r, "/metrics", opts)
func EnablePrometheusMetricsWithOptions(router chi.Router, metricsPath string, opts MetricsOptions) *Collector {
	collector := NewCollector(opts)
	collector.Mount(router, metricsPath)
	return collector
}

// Mount applies the metrics middleware to router and exposes the metrics endpoint.
// It must be called before any route is added to router.
func (c *Collector) Mount(router chi.Router, metricsPath string) {
	router.Use(c.middleware)

	if reg, ok := c.registry.(*prometheus.Registry); ok && reg != prometheus.DefaultRegisterer {
		// Serve only what was registered with the collector's own registry
		router.Handle(metricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	} else {
		router.Handle(metricsPath, promhttp.Handler())
	}
}

// ObserveTranslation counts an error answered by the translator
func (c *Collector) ObserveTranslation(_ *http.Request, kind core.Kind, report core.ErrorReport) {
	c.translatedErrors.WithLabelValues(string(kind), strconv.Itoa(report.Status)).Inc()
}

// middleware tracks HTTP request metrics
func (c *Collector) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.requestsInFlight.Inc()
		defer c.requestsInFlight.Dec()

		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		duration := time.Since(start).Seconds()
		routePattern := getRoutePattern(r)

		c.requestsTotal.WithLabelValues(
			r.Method,
			routePattern,
			strconv.Itoa(ww.statusCode),
		).Inc()

		c.requestDuration.WithLabelValues(
			r.Method,
			routePattern,
		).Observe(duration)
	})
}

// unmatchedRoute labels requests no route matched
const unmatchedRoute = "unmatched"

// getRoutePattern extracts the route pattern from chi's route context
// This normalizes paths like "/users/123" to "/users/{id}" to prevent metric cardinality explosion
func getRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	// Unmatched requests share one label so 404 scans cannot grow the series
	return unmatchedRoute
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// WriteHeader captures the status code
func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

// Write ensures status code is captured even if WriteHeader isn't explicitly called
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
