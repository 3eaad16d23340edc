package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/animeverse/animeverse/internal/config"
	"github.com/animeverse/animeverse/internal/core"
	errwrap "github.com/animeverse/animeverse/internal/errors"
	"github.com/animeverse/animeverse/internal/metrics"
	"github.com/animeverse/animeverse/internal/observability"
	"github.com/animeverse/animeverse/internal/server"
	"github.com/animeverse/animeverse/internal/server/handlers"
)

// cacheJanitorInterval is how often serve drops stale upstream cache entries.
const cacheJanitorInterval = time.Minute

var (
	serverPort int
	serverHost string
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if !observability.MetricsEnabled() {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// identityHealthChecker validates app identity metadata
type identityHealthChecker struct {
	binaryName string
	envPrefix  string
	configName string
}

func (i identityHealthChecker) CheckHealth(ctx context.Context) error {
	switch {
	case i.binaryName == "":
		return errwrap.NewConfigInvalidError("app identity missing binary name")
	case i.envPrefix == "":
		return errwrap.NewConfigInvalidError("app identity missing env prefix")
	case i.configName == "":
		return errwrap.NewConfigInvalidError("app identity missing config name")
	}
	return nil
}

// catalogHealthChecker reports whether a catalog has been wired. It does
// not call upstream so probes never spend rate-gate budget.
type catalogHealthChecker struct {
	catalog core.Catalog
}

func (c catalogHealthChecker) CheckHealth(ctx context.Context) error {
	if c.catalog == nil {
		return errwrap.NewInternalError("catalog not configured")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server with graceful shutdown support.

The /api routes serve search, trending, recent, info, watch and the
watchlist. Health, version and metrics endpoints are mounted at the root.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Reload config file and log level`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		identity := GetAppIdentity()
		namespace := identity.TelemetryNamespace()

		cfg, err := config.Load(ctx)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "config load failed")
		}

		observability.InitServerLogger(identity.BinaryName, cfg.Logging.Level, cfg.Logging.Profile, namespace)
		logger := observability.ServerLogger

		handlers.InitHealthManager(versionInfo.Version)
		hm := handlers.GetHealthManager()

		if cfg.Metrics.Enabled {
			metricsPort := cfg.Metrics.Port
			if metricsPort == 0 {
				metricsPort = 9090
			}
			if err := observability.InitMetrics(identity.BinaryName, metricsPort, namespace); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(ctx, err, "metrics initialization failed")
			}
			hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		}

		db, err := openStore(ctx, cfg.Store)
		if err != nil {
			return errwrap.WrapDatabaseError(ctx, err, "store initialization failed")
		}

		cat, err := newCatalog(cfg)
		if err != nil {
			_ = db.Close()
			return errwrap.WrapConfigInvalid(ctx, err, "catalog initialization failed")
		}

		hm.RegisterChecker("store", db)
		hm.RegisterChecker("catalog", catalogHealthChecker{catalog: cat})
		hm.RegisterChecker("app_identity", identityHealthChecker{
			binaryName: identity.BinaryName,
			envPrefix:  identity.EnvPrefix,
			configName: identity.ConfigName,
		})

		logger.Info("Initializing server",
			zap.String("service", identity.BinaryName),
			zap.String("namespace", namespace),
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.String("store", cfg.Store.Path),
			zap.String("default_provider", cfg.Catalog.DefaultProvider),
			zap.Bool("metrics", cfg.Metrics.Enabled))

		srv := server.New(cfg.Server, &handlers.API{
			Catalog:   cat,
			Watchlist: newWatchlist(db),
		})
		handlers.SetAppIdentity(identity)
		if cfg.Client.BaseURL != "" {
			handlers.SetUpstreams(map[string]string{"animeverse": cfg.Client.BaseURL})
		} else {
			handlers.SetUpstreams(map[string]string{
				"consumet": cfg.Catalog.Consumet.BaseURL,
				"jikan":    cfg.Catalog.Jikan.BaseURL,
			})
		}

		startedAt := time.Now()
		metrics.SetServerStartTime(startedAt.Unix())

		serveCtx, cancelServe := context.WithCancel(ctx)
		defer cancelServe()

		for _, cache := range upstreamCaches(cat) {
			cache.StartJanitor(serveCtx, cacheJanitorInterval)
		}

		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-serveCtx.Done():
					return
				case <-ticker.C:
					metrics.SetServerUptime(int64(time.Since(startedAt).Seconds()))
				}
			}
		}()

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Shutdown handlers run LIFO: server, store, metrics, then logger flush.
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Flushing logger...")
			if err := logger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
			}
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			if err := observability.StopMetrics(); err != nil {
				logger.Warn("Metrics exporter stop failed", zap.Error(err))
			}
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			if err := db.Close(); err != nil {
				return errwrap.WrapDatabaseError(ctx, err, "store close failed")
			}
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			cancelServe()
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		signals.OnReload(func(ctx context.Context) error {
			logger.Info("Received SIGHUP: attempting config reload")

			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					logger.Error("Failed to reload config file",
						zap.String("file", viper.ConfigFileUsed()),
						zap.Error(err))
					return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
				}
			}

			reloaded, err := config.Load(ctx)
			if err != nil {
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}
			if reloaded.Logging.Level != cfg.Logging.Level || reloaded.Logging.Profile != cfg.Logging.Profile {
				observability.InitServerLogger(identity.BinaryName, reloaded.Logging.Level, reloaded.Logging.Profile, namespace)
				logger = observability.ServerLogger
				cfg.Logging = reloaded.Logging
			}

			// Listener, store and upstream settings apply on restart.
			logger.Info("Configuration reloaded",
				zap.String("file", viper.ConfigFileUsed()),
				zap.String("log_level", reloaded.Logging.Level))
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		errChan := make(chan error, 1)
		go func() {
			if err := srv.Start(serveCtx); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		go func() {
			if err := signals.Listen(ctx); err != nil {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(ctx, err, "server error")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8000, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
