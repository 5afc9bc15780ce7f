package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/sf6scout/api"
	"github.com/hazyhaar/sf6scout/buckler"
	"github.com/hazyhaar/sf6scout/observability"
	"github.com/hazyhaar/sf6scout/shield"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	d, err := a.open(true)
	if err != nil {
		return err
	}
	defer d.close()

	if err := d.scout.Start(ctx); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}

	endpoints := buckler.MakeEndpoints(d.scout, a.logger)

	var mcpSrv *mcp.Server
	if a.cfg.Server.MCP {
		mcpSrv = mcp.NewServer(&mcp.Implementation{Name: appName, Version: version}, nil)
		endpoints.RegisterMCP(mcpSrv)
	}

	rl := shield.NewRateLimiter(a.cfg.Server.RateLimit, a.cfg.Server.RateWindow, "/healthz", "/characters/")
	if err := rl.TrustProxies(a.cfg.Server.TrustedProxies...); err != nil {
		return err
	}
	rl.StartGC(ctx.Done())

	if d.metrics != nil {
		go d.metrics.SampleRuntime(ctx, 30*time.Second, map[string]observability.Gauge{
			observability.MetricSessionsActive: func() float64 { return float64(d.scout.ActiveSessions()) },
		})
	}
	go d.maintain(ctx, a.logger, time.Hour, 7*24*time.Hour)

	srv := &http.Server{
		Addr: a.cfg.Server.Addr,
		Handler: api.NewRouter(endpoints, api.Options{
			StaticDir:   a.cfg.Server.StaticDir,
			RateLimiter: rl,
			MCP:         mcpSrv,
			Health: func() map[string]any {
				return map[string]any{"sessions": d.scout.ActiveSessions()}
			},
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("sf6scout: listening", "addr", srv.Addr, "mcp", mcpSrv != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("sf6scout: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
