package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/animeverse/animeverse/internal/config"
	errwrap "github.com/animeverse/animeverse/internal/errors"
	"github.com/animeverse/animeverse/internal/observability"
)

type selfCheck struct {
	name string
	run  func(ctx context.Context, cfg *config.Config) error
}

var selfChecks = []selfCheck{
	{name: "store", run: func(ctx context.Context, cfg *config.Config) error {
		db, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck
		return db.CheckHealth(ctx)
	}},
	{name: "catalog", run: func(_ context.Context, cfg *config.Config) error {
		_, err := newCatalog(cfg)
		return err
	}},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Verify that configuration loads, the store opens and the catalog can be built.",
	Run: func(cmd *cobra.Command, args []string) {
		logger := observability.CLILogger
		logger.Info("Running health check...")

		if versionInfo.Version == "" {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewConfigInvalidError("Version information missing"))
			return
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		cfg, err := config.Load(ctx)
		if err != nil {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "Configuration invalid", err)
			return
		}

		lines := []string{fmt.Sprintf("version   %s", versionInfo.Version), "config    ok"}
		var failed error
		for _, check := range selfChecks {
			if err := check.run(ctx, cfg); err != nil {
				logger.Debug("Health check failed", zap.String("check", check.name), zap.Error(err))
				lines = append(lines, fmt.Sprintf("%-9s FAIL %v", check.name, err))
				failed = err
				continue
			}
			lines = append(lines, fmt.Sprintf("%-9s ok", check.name))
		}

		_, _ = fmt.Fprint(cmd.OutOrStdout(), ascii.DrawBox(strings.Join(lines, "\n"), 0))
		if failed != nil {
			ExitWithCode(logger, foundry.ExitFailure, "Health check failed", failed)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
