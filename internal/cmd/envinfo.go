package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fulmenhq/gofulmen/crucible"

	"github.com/animeverse/animeverse/internal/config"
	"github.com/animeverse/animeverse/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display comprehensive environment, configuration, and version information.",
	Run: func(cmd *cobra.Command, args []string) {
		version := crucible.GetVersion()
		logger := observability.CLILogger

		logger.Info("=== AnimeVerse Environment Information ===")
		logger.Info("")

		// Application Info
		identity := GetAppIdentity()
		logger.Info("Application:")
		logger.Info("  Name:       " + identity.BinaryName)
		logger.Info("  Version:    " + versionInfo.Version)
		logger.Info("  Commit:     " + versionInfo.Commit)
		logger.Info("  Built:      " + versionInfo.BuildDate)
		logger.Info("")

		// SSOT Info
		logger.Info("SSOT:")
		logger.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		logger.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		logger.Info("")

		// Runtime Info
		logger.Info("Runtime:")
		logger.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		logger.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		logger.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		logger.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		logger.Info("")

		cfg, err := config.Load(cmd.Context())
		if err != nil {
			logger.Warn("Config load failed", zap.Error(err))
			return
		}

		// Configuration
		logger.Info("Configuration:")
		logger.Info("  Server Host:    "+cfg.Server.Host, zap.String("host", cfg.Server.Host))
		logger.Info(fmt.Sprintf("  Server Port:    %d", cfg.Server.Port), zap.Int("port", cfg.Server.Port))
		logger.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		logger.Info("  Log Profile:    "+cfg.Logging.Profile, zap.String("log_profile", cfg.Logging.Profile))
		logger.Info("  DB Driver:      "+cfg.Store.Driver, zap.String("db_driver", cfg.Store.Driver))
		if strings.TrimSpace(cfg.Store.URL) != "" {
			logger.Info("  DB URL:         "+cfg.Store.URL, zap.String("db_url", cfg.Store.URL))
		} else {
			logger.Info("  DB Path:        "+cfg.Store.Path, zap.String("db_path", cfg.Store.Path))
		}
		logger.Info(fmt.Sprintf("  Metrics Port:   %d", cfg.Metrics.Port), zap.Int("metrics_port", cfg.Metrics.Port))
		logger.Info("  Config File:    "+config.DefaultConfigPath(), zap.String("config_file", config.DefaultConfigPath()))
		logger.Info("")

		// Catalog and upstreams
		logger.Info("Catalog:")
		logger.Info("  Default Provider: "+cfg.Catalog.DefaultProvider, zap.String("default_provider", cfg.Catalog.DefaultProvider))
		logger.Info("  Backup Providers: "+strings.Join(cfg.Catalog.BackupProviders, ", "), zap.Strings("backup_providers", cfg.Catalog.BackupProviders))
		logger.Info(fmt.Sprintf("  Result Limit:     %d", cfg.Catalog.ResultLimit))
		logUpstream("consumet", cfg.Catalog.Consumet)
		logUpstream("jikan", cfg.Catalog.Jikan)
		if strings.TrimSpace(cfg.Client.BaseURL) != "" {
			logger.Info("  Remote API in use; upstreams above are not contacted")
			logUpstream("client", cfg.Client)
		}
		logger.Info("")

		logger.Info("=== End Environment Information ===")
	},
}

func logUpstream(name string, up config.UpstreamConfig) {
	observability.CLILogger.Info(fmt.Sprintf("  %s: %s (%d req/s, fresh %s, timeout %s)",
		name, up.BaseURL, up.RateLimit, up.Freshness, up.Timeout),
		zap.String("upstream", name),
		zap.Bool("dedupe_inflight", up.DedupeInflight),
		zap.Int("max_entries", up.MaxEntries))
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
