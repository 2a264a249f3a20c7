package ratelimit

import (
	"net"
	"net/http"
	"strconv"
)

// DefaultRetryAfterSeconds is the value for the Retry-After header when a
// rate limit is exceeded.
const DefaultRetryAfterSeconds = 1

// ClientKeyFromRequest extracts the limiter key from a request: the remote
// IP without the ephemeral port, so one client maps to one bucket.
func ClientKeyFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware enforces per-client rate limits. A rejected request gets 429
// with Retry-After and X-RateLimit-Remaining headers; allowed requests carry
// the approximate remaining token count.
func Middleware(limiter *RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rateLimiter := limiter.GetLimiter(ClientKeyFromRequest(r))

		if !rateLimiter.Allow() {
			w.Header().Set("Retry-After", strconv.Itoa(DefaultRetryAfterSeconds))
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte("Too Many Requests"))
			return
		}

		remaining := int(rateLimiter.Tokens())
		if remaining < 0 {
			remaining = 0
		}
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		next.ServeHTTP(w, r)
	})
}
