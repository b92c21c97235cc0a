package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Propagation outcomes used as the result label.
const (
	ResultOK               = "ok"
	ResultDomainError      = "domain_error"
	ResultConvergenceError = "convergence_error"
	ResultError            = "error"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbit_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbit_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	propagationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbit_propagations_total",
			Help: "Single-instant propagations by result.",
		},
		[]string{"result"},
	)

	propagationDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orbit_propagation_duration_seconds",
			Help:    "Duration of a single-instant propagation.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)

	keplerIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orbit_kepler_iterations",
			Help:    "Newton-Raphson iterations needed to solve Kepler's equation.",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 8, 13, 21, 50, 100},
		},
	)

	groundTrackSamplesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbit_groundtrack_samples_total",
			Help: "Ground-track samples by result.",
		},
		[]string{"result"},
	)

	catalogRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbit_catalog_records",
			Help: "Number of element sets in the loaded catalog.",
		},
	)

	catalogAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbit_catalog_age_seconds",
			Help: "Seconds since the loaded catalog was fetched.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(propagationsTotal)
	prometheus.MustRegister(propagationDurationSeconds)
	prometheus.MustRegister(keplerIterations)
	prometheus.MustRegister(groundTrackSamplesTotal)
	prometheus.MustRegister(catalogRecords)
	prometheus.MustRegister(catalogAgeSeconds)
}

// RecordPropagation records one propagation. iterations is ignored unless
// result is ResultOK.
func RecordPropagation(result string, d time.Duration, iterations int) {
	propagationsTotal.WithLabelValues(result).Inc()
	propagationDurationSeconds.Observe(d.Seconds())
	if result == ResultOK {
		keplerIterations.Observe(float64(iterations))
	}
}

// RecordGroundTrack records the outcome of one ground-track batch.
func RecordGroundTrack(ok, failed int) {
	groundTrackSamplesTotal.WithLabelValues(ResultOK).Add(float64(ok))
	groundTrackSamplesTotal.WithLabelValues(ResultError).Add(float64(failed))
}

// SetCatalogSize records how many element sets the loaded catalog holds.
func SetCatalogSize(n int) {
	catalogRecords.Set(float64(n))
}

// SetCatalogAge records the age of the loaded catalog.
func SetCatalogAge(seconds float64) {
	catalogAgeSeconds.Set(seconds)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

var knownRoutes = map[string]bool{
	"/":                    true,
	"/healthz":             true,
	"/readyz":              true,
	"/metrics":             true,
	"/api/v1/tle/parse":    true,
	"/api/v1/tle/metadata": true,
	"/api/v1/propagate":    true,
	"/api/v1/groundtrack":  true,
	"/api/v1/passes":       true,
	"/api/v1/satellites":   true,
}

const propagatePrefix = "/api/v1/propagate/"

// normalizeRoute maps a request path to a bounded label set. Catalog-number
// routes collapse to one label and unknown paths become "other".
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if rest, ok := strings.CutPrefix(path, propagatePrefix); ok && rest != "" && isDigits(rest) {
		return propagatePrefix + "{catalog_number}"
	}
	return "other"
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
