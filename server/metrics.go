package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors of one server.  Each server has its
// own registry.
type Metrics struct {
	Registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	compilations    *prometheus.CounterVec
	compileDuration prometheus.Histogram
	moduleBytes     prometheus.Histogram
	runs            *prometheus.CounterVec
}

// NewMetrics creates and registers the server's collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fern_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fern_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		compilations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fern_compilations_total",
				Help: "Compilations by result: ok or the error kind",
			},
			[]string{"result"},
		),
		compileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fern_compile_duration_seconds",
			Help:    "Time spent compiling a source text",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		moduleBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fern_module_bytes",
			Help:    "Size of the compiled modules",
			Buckets: prometheus.ExponentialBuckets(32, 4, 8),
		}),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fern_runs_total",
				Help: "Program executions by result",
			},
			[]string{"result"},
		),
	}
}

// Middleware records the request metrics.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		// the route pattern keeps the label cardinality bounded
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		m.requests.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// statusWriter captures the status code of a response.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
