// Command sf6scout reads Street Fighter 6 Buckler profile statistics.
//
// Usage:
//
//	sf6scout serve                          # HTTP API, /mcp when server.mcp is set
//	sf6scout stats 1415778165               # per-character stats
//	sf6scout matchups 1415778165 "J.P."     # one character's matchups
//	sf6scout search Tokido                  # profile IDs by display name
//	sf6scout metrics --since 24h            # recorded operation timings
//
// The session cookie string is read from SF6_COOKIE (or the variable named by
// credential_env), optionally through a .env file in the working directory.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/sf6scout/buckler"
	"github.com/hazyhaar/sf6scout/cache"
	"github.com/hazyhaar/sf6scout/dbopen"
	"github.com/hazyhaar/sf6scout/observability"
)

const appName = "sf6scout"

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, appName+":", err)
		os.Exit(1)
	}
}

// app holds the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	jsonOut    bool

	logger *slog.Logger
	cfg    *buckler.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           appName,
		Short:         "Street Fighter 6 Buckler profile stats",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", defaultConfigPath(), "path to the YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print JSON instead of tables")

	root.AddCommand(
		newServeCmd(a),
		newStatsCmd(a),
		newMatchupsCmd(a),
		newSearchCmd(a),
		newMetricsCmd(a),
	)
	return root
}

func defaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

func (a *app) init() error {
	// A missing .env is normal.
	_ = godotenv.Load()

	var level slog.Level
	switch a.logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	a.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)

	cfg, err := buckler.LoadConfigFile(a.configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist) && a.configPath == defaultConfigPath():
		cfg = buckler.DefaultConfig()
	case err != nil:
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Resolve()
	a.cfg = cfg
	return nil
}

// deps bundles a Scout with the stores it was built on.
type deps struct {
	scout     *buckler.Scout
	metrics   *observability.MetricsManager
	metricsDB *sql.DB
	store     *cache.Store
}

// open builds a Scout from the config. withCache enables the stats cache
// when the config asks for it.
func (a *app) open(withCache bool) (*deps, error) {
	rt := &deps{}
	opts := []buckler.Option{buckler.WithLogger(a.logger)}

	if a.cfg.MetricsDB != "" {
		db, err := dbopen.Open(a.cfg.MetricsDB, dbopen.WithMkdirAll(), dbopen.WithSchema(observability.Schema))
		if err != nil {
			return nil, fmt.Errorf("open metrics db: %w", err)
		}
		rt.metricsDB = db
		rt.metrics = observability.NewMetricsManager(db, 0, 0, a.logger)
		opts = append(opts, buckler.WithMetrics(rt.metrics))
	}

	if withCache && a.cfg.Cache.Enabled {
		copts := []cache.Option{cache.WithLogger(a.logger)}
		if a.cfg.Cache.Path != "" {
			store, err := cache.OpenStore(a.cfg.Cache.Path)
			if err != nil {
				rt.close()
				return nil, fmt.Errorf("open cache store: %w", err)
			}
			rt.store = store
			copts = append(copts, cache.WithStore(store))
		}
		opts = append(opts, buckler.WithCache(cache.New[[]buckler.CharacterStat](a.cfg.Cache.Size, a.cfg.Cache.TTL, copts...)))
	}

	rt.scout = buckler.New(a.cfg, opts...)
	return rt, nil
}

func (rt *deps) close() {
	if rt.scout != nil {
		rt.scout.Close()
	}
	if rt.metrics != nil {
		rt.metrics.Close()
	}
	if rt.metricsDB != nil {
		rt.metricsDB.Close()
	}
	if rt.store != nil {
		rt.store.Close()
	}
}

// maintain purges expired cache rows and old metrics every interval until
// ctx is done.
func (rt *deps) maintain(ctx context.Context, logger *slog.Logger, interval, retention time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
		if rt.store != nil {
			if n, err := rt.store.Purge(ctx); err != nil {
				logger.Warn("sf6scout: purge cache", "error", err)
			} else if n > 0 {
				logger.Debug("sf6scout: purged cache", "rows", n)
			}
		}
		if rt.metrics != nil {
			if _, err := rt.metrics.Cleanup(ctx, retention); err != nil {
				logger.Warn("sf6scout: cleanup metrics", "error", err)
			}
		}
	}
}
