// Package shield provides the HTTP middleware in front of the scout API:
// security headers, request tracing with a per-request logger, HEAD
// handling and per-client rate limiting.
//
//	r := chi.NewRouter()
//	for _, mw := range shield.Stack(shield.NewRateLimiter(20, time.Minute, "/healthz")) {
//	    r.Use(mw)
//	}
package shield

import "net/http"

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// Stack returns the standard middleware chain:
// HeadToGet → SecurityHeaders → TraceID → RateLimiter.
// A nil limiter is skipped.
func Stack(rl *RateLimiter) []func(http.Handler) http.Handler {
	stack := []func(http.Handler) http.Handler{
		HeadToGet,
		SecurityHeaders(DefaultHeaders()),
		TraceID,
	}
	if rl != nil {
		stack = append(stack, rl.Middleware)
	}
	return stack
}

// HeadToGet lets GET routes answer HEAD requests; net/http drops the body.
func HeadToGet(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			r.Method = http.MethodGet
		}
		next.ServeHTTP(w, r)
	})
}
