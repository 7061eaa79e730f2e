package middleware

import (
	"encoding/json"
	"net/http"

	"flowplane/pkg/api"

	"golang.org/x/time/rate"
)

// RateLimitMiddleware admits limit requests per second across all callers,
// with bursts of up to burst requests. A limit of 0 disables limiting.
func RateLimitMiddleware(limit float64, burst int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		if burst <= 0 {
			burst = 1
		}

		limiter := rate.NewLimiter(rate.Limit(limit), burst)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(api.ErrorResponse{
					Error: "Too Many Requests",
					Code:  "429",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
