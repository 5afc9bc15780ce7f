package shield

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/sf6scout/kit"
)

func okHandler(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestTraceID(t *testing.T) {
	var gotTrace, gotReq, gotTransport string
	h := TraceID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTrace = kit.GetTraceID(r.Context())
		gotReq = kit.GetRequestID(r.Context())
		gotTransport = kit.GetTransport(r.Context())
		if GetLogger(r.Context()) == nil {
			t.Error("no logger")
		}
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	if !strings.HasPrefix(gotTrace, "trc_") || rec.Header().Get("X-Trace-ID") != gotTrace {
		t.Fatalf("trace id: ctx %q header %q", gotTrace, rec.Header().Get("X-Trace-ID"))
	}
	if !strings.HasPrefix(gotReq, "req_") || rec.Header().Get("X-Request-ID") != gotReq {
		t.Fatalf("request id: ctx %q header %q", gotReq, rec.Header().Get("X-Request-ID"))
	}
	if gotTransport != "http" {
		t.Fatalf("transport: %q", gotTransport)
	}
}

func TestTraceID_Propagated(t *testing.T) {
	h := TraceID(http.HandlerFunc(okHandler))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Trace-ID", "upstream-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Trace-ID"); got != "upstream-1" {
		t.Fatalf("X-Trace-ID = %q", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(DefaultHeaders())(http.HandlerFunc(okHandler))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing nosniff")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatal("missing X-Frame-Options")
	}
	if !strings.Contains(rec.Header().Get("Content-Security-Policy"), "img-src 'self'") {
		t.Fatal("CSP should allow same-origin images")
	}
}

func TestHeadToGet(t *testing.T) {
	var method string
	h := HeadToGet(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { method = r.Method }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodHead, "/", nil))
	if method != http.MethodGet {
		t.Fatalf("method = %s", method)
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := NewRateLimiter(2, time.Minute, "/healthz")
	rl.now = func() time.Time { return now }
	h := rl.Middleware(http.HandlerFunc(okHandler))

	do := func(path, ip string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := do("/api/stats", "10.0.0.1"); code != http.StatusOK {
			t.Fatalf("request %d: %d", i, code)
		}
	}
	if code := do("/api/stats", "10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("third request: %d, want 429", code)
	}
	if code := do("/api/stats", "10.0.0.2"); code != http.StatusOK {
		t.Fatalf("other client: %d", code)
	}
	if code := do("/healthz", "10.0.0.1"); code != http.StatusOK {
		t.Fatalf("excluded path: %d", code)
	}

	now = now.Add(2 * time.Minute)
	if code := do("/api/stats", "10.0.0.1"); code != http.StatusOK {
		t.Fatalf("after window: %d", code)
	}

	now = now.Add(2 * time.Minute)
	rl.gc()
	n := 0
	rl.buckets.Range(func(_, _ any) bool { n++; return true })
	if n != 0 {
		t.Fatalf("buckets after gc: %d", n)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		if !rl.allow("1.1.1.1", "/api/stats") {
			t.Fatal("disabled limiter blocked")
		}
	}
}

func TestExtractIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	if got := ExtractIP(req); got != "192.0.2.1" {
		t.Fatalf("untrusted peer: %q", got)
	}

	proxies, err := ParseProxies([]string{"10.0.0.0/8", "192.0.2.1"})
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-Forwarded-For", "198.51.100.9, 203.0.113.5, 10.1.2.3")
	if got := ExtractIP(req, proxies...); got != "203.0.113.5" {
		t.Fatalf("trusted peer: %q", got)
	}

	req.Header.Set("X-Forwarded-For", "10.1.2.3")
	if got := ExtractIP(req, proxies...); got != "192.0.2.1" {
		t.Fatalf("only proxies in chain: %q", got)
	}

	req.RemoteAddr = "198.51.100.7:999"
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	if got := ExtractIP(req, proxies...); got != "198.51.100.7" {
		t.Fatalf("untrusted peer with proxies: %q", got)
	}
}

func TestRateLimiter_SpoofedForwardedFor(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	h := rl.Middleware(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for _, xff := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
		req.RemoteAddr = "192.0.2.50:4000"
		req.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes: %v", codes)
	}
}

func TestTrustProxies_Invalid(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	if err := rl.TrustProxies("not-an-ip"); err == nil {
		t.Fatal("want error")
	}
	if err := rl.TrustProxies("10.0.0.0/8", " ", "::1"); err != nil {
		t.Fatal(err)
	}
	if len(rl.trusted) != 2 {
		t.Fatalf("trusted: %v", rl.trusted)
	}
}

func TestStack(t *testing.T) {
	if got := len(Stack(nil)); got != 3 {
		t.Fatalf("stack without limiter: %d", got)
	}
	if got := len(Stack(NewRateLimiter(1, time.Second))); got != 4 {
		t.Fatalf("stack with limiter: %d", got)
	}
}
