package shield

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hazyhaar/sf6scout/idgen"
	"github.com/hazyhaar/sf6scout/kit"
)

// TraceID assigns each request a request ID and a trace ID (kept from an
// incoming X-Trace-ID header when present), echoes both in response headers,
// and stores a per-request logger carrying them under LoggerKey.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-ID")
		if traceID == "" || len(traceID) > 64 {
			traceID = idgen.Trace()
		}
		requestID := idgen.Request()

		ctx := kit.WithTraceID(r.Context(), traceID)
		ctx = kit.WithRequestID(ctx, requestID)
		ctx = kit.WithTransport(ctx, kit.TransportHTTP)
		w.Header().Set("X-Trace-ID", traceID)
		w.Header().Set("X-Request-ID", requestID)

		logger := slog.Default().With(
			"trace_id", traceID,
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)
		ctx = context.WithValue(ctx, LoggerKey, logger)
		logger.Info("request")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetLogger retrieves the per-request logger from the context.
// Returns slog.Default() if no logger was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
