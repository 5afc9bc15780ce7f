package kit

import "context"

// Transports that invoke endpoints.
const (
	TransportHTTP = "http"
	TransportMCP  = "mcp"
	TransportCLI  = "cli"
)

type ctxKey int

const (
	transportKey ctxKey = iota
	requestIDKey
	traceIDKey
)

// WithTransport records which surface is calling the endpoint.
func WithTransport(ctx context.Context, transport string) context.Context {
	return context.WithValue(ctx, transportKey, transport)
}

// GetTransport returns the calling surface, TransportHTTP when unset.
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(transportKey).(string); ok && v != "" {
		return v
	}
	return TransportHTTP
}

// WithRequestID attaches the ID of one endpoint invocation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID returns the invocation ID or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithTraceID attaches a trace ID that may span several invocations.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

// GetTraceID returns the trace ID or "".
func GetTraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// NewCall tags ctx for one invocation from transport.
func NewCall(ctx context.Context, transport, requestID string) context.Context {
	return WithRequestID(WithTransport(ctx, transport), requestID)
}
