// Package metrics exposes Prometheus instrumentation for the HTTP server
// and the recipe domain.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recipebox"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)

	rateLimitRejects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejects_total",
			Help:      "Total number of requests rejected due to rate limiting",
		},
		[]string{"route"},
	)

	recipesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipes_created_total",
			Help:      "Total number of recipes created",
		},
	)

	attributesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attributes_created_total",
			Help:      "Total number of tags and ingredients created by nested writes",
		},
		[]string{"kind"},
	)

	imagesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_uploaded_total",
			Help:      "Total number of recipe images stored",
		},
	)

	tokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Total number of auth tokens issued",
		},
	)

	loginFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_failures_total",
			Help:      "Total number of rejected token requests",
		},
	)
)

// Middleware records RED metrics per chi route pattern. Unmatched paths
// are labelled "unmatched" to keep label cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := RoutePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RoutePattern returns the matched chi route pattern for r, or "unmatched".
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RateLimited counts a request rejected by a rate limiter.
func RateLimited(route string) { rateLimitRejects.WithLabelValues(route).Inc() }

// RecipeCreated counts a new recipe.
func RecipeCreated() { recipesCreated.Inc() }

// AttributeCreated counts a tag or ingredient created by get-or-create.
func AttributeCreated(kind string) { attributesCreated.WithLabelValues(kind).Inc() }

// ImageUploaded counts a stored recipe image.
func ImageUploaded() { imagesUploaded.Inc() }

// TokenIssued counts a successful login.
func TokenIssued() { tokensIssued.Inc() }

// LoginFailed counts a rejected login.
func LoginFailed() { loginFailures.Inc() }
