package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"

	"github.com/recipebox/recipebox-server/internal/http/response"
	"github.com/recipebox/recipebox-server/internal/metrics"
	"github.com/recipebox/recipebox-server/internal/ratelimit"
)

const msgRateLimited = "too many requests, please try again later"

// RateLimiter wraps KeyedRateLimiter for API use.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter creates a limiter allowing ratePerInterval requests per
// interval with the given burst, e.g. 20 per minute.
func NewRateLimiter(ratePerInterval int, interval time.Duration, burst int) *RateLimiter {
	return ratelimit.PerInterval(ratePerInterval, interval, burst)
}

// rateLimitOperation is a huma operation middleware that rate limits
// requests by client IP. Returns 429 Too Many Requests when the limit is
// exceeded.
func rateLimitOperation(limiter *RateLimiter, logger *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		r, w := humachi.Unwrap(ctx)
		if !allow(limiter, r, ctx.Operation().Path, logger) {
			response.TooManyRequests(w, msgRateLimited, logger)
			return
		}
		next(ctx)
	}
}

func allow(limiter *RateLimiter, r *http.Request, route string, logger *slog.Logger) bool {
	key := getClientIP(r)
	if limiter.Allow(key) {
		return true
	}
	metrics.RateLimited(route)
	if logger != nil {
		logger.Warn("Rate limit exceeded", "ip", key, "path", r.URL.Path)
	}
	return false
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
