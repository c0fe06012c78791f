package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	reportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lab_reports_generated_total",
			Help: "Lab reports produced, by source (upload, metrics, demo)",
		},
		[]string{"source", "risk"},
	)

	extractionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lab_report_extraction_failures_total",
			Help: "Rejected or failed lab report uploads",
		},
		[]string{"reason"},
	)

	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Calls to the generative model API",
		},
		[]string{"operation", "model", "outcome"},
	)

	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "Generative model call duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation", "model"},
	)

	chatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Chat turns by reply source and rendered directive",
		},
		[]string{"source", "directive"},
	)

	bookingsConfirmed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_confirmed_total",
			Help: "Completed booking flows",
		},
		[]string{"kind"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		path := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Hijack is needed by the websocket upgrader.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	return h.Hijack()
}

// routePattern uses the matched chi pattern so ids don't blow up label
// cardinality.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// --- Business metric helpers ---

func RecordReport(source, risk string) {
	reportsGenerated.WithLabelValues(source, risk).Inc()
}

func RecordExtractionFailure(reason string) {
	extractionFailures.WithLabelValues(reason).Inc()
}

func RecordAIRequest(operation, model, outcome string, duration time.Duration) {
	aiRequestsTotal.WithLabelValues(operation, model, outcome).Inc()
	aiRequestDuration.WithLabelValues(operation, model).Observe(duration.Seconds())
}

func RecordChatTurn(source, directive string) {
	chatTurnsTotal.WithLabelValues(source, directive).Inc()
}

func RecordBooking(kind string) {
	bookingsConfirmed.WithLabelValues(kind).Inc()
}
