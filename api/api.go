// Package api serves the buckler operations over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/sf6scout/buckler"
	"github.com/hazyhaar/sf6scout/kit"
	"github.com/hazyhaar/sf6scout/shield"
)

// Options configures the router. Zero values disable the optional parts.
type Options struct {
	StaticDir   string                // served under /characters/
	RateLimiter *shield.RateLimiter   // applied to every route the limiter does not exclude
	MCP         *mcp.Server           // mounted at /mcp over streamable HTTP
	Health      func() map[string]any // extra fields of the /healthz body
}

// NewRouter returns the HTTP handler for e.
func NewRouter(e buckler.Endpoints, opts Options) http.Handler {
	r := chi.NewRouter()
	for _, mw := range shield.Stack(opts.RateLimiter) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{"status": "ok"}
		if opts.Health != nil {
			for k, v := range opts.Health() {
				body[k] = v
			}
		}
		writeJSON(w, http.StatusOK, body)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", handle(e.Stats, func(r *http.Request) any {
			return &buckler.StatsRequest{UserCode: r.URL.Query().Get("userCode")}
		}))
		r.Get("/matchups", handle(e.Matchups, func(r *http.Request) any {
			q := r.URL.Query()
			return &buckler.MatchupsRequest{UserCode: q.Get("userCode"), Character: q.Get("character")}
		}))
		r.Get("/search-id", handle(e.Search, func(r *http.Request) any {
			return &buckler.SearchRequest{Name: r.URL.Query().Get("name")}
		}))
	})

	if opts.StaticDir != "" {
		r.Handle("/characters/*", http.StripPrefix("/characters/", http.FileServer(http.Dir(opts.StaticDir))))
	}

	if opts.MCP != nil {
		h := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return opts.MCP }, nil)
		r.Handle("/mcp", h)
		r.Handle("/mcp/*", h)
	}
	return r
}

// handle adapts an endpoint to a GET handler. decode builds the request from
// the query string; validation belongs to the endpoint.
func handle(ep kit.Endpoint, decode func(*http.Request) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := ep(r.Context(), decode(r))
		if err != nil {
			status := buckler.StatusCode(err)
			log := shield.GetLogger(r.Context())
			if status >= http.StatusInternalServerError && r.Context().Err() == nil {
				log.Error("api: request failed", "error", err, "status", status)
			} else {
				log.Debug("api: request rejected", "error", err, "status", status)
			}
			if errors.Is(r.Context().Err(), context.Canceled) {
				// client went away
				return
			}
			writeError(w, status, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
