package middleware

import (
	"encoding/json"
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit applies a global token-bucket limit to the wrapped routes.
// Intended for expensive administrative endpoints such as bulk reindexing,
// where a burst of triggers would hammer both the catalog store and the
// remote index.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"code":    "RATE_LIMITED",
					"message": "too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
