package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()

	// Test basic config loading with defaults
	t.Run("LoadDefaults", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", t.TempDir())

		cfg, err := Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Verify server defaults
		assert.Equal(t, "localhost", cfg.Server.Host)
		assert.Equal(t, 8000, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
		assert.Equal(t, 10.0, cfg.Server.RateLimit)
		assert.Equal(t, 20, cfg.Server.RateBurst)

		// Verify store defaults
		assert.Equal(t, "libsql", cfg.Store.Driver)
		expectedStorePath := filepath.Join(gfconfig.GetAppDataDir("animeverse"), "animeverse.db")
		assert.Equal(t, expectedStorePath, cfg.Store.Path)
		assert.Equal(t, "", cfg.Store.URL)

		// Verify catalog defaults
		assert.Equal(t, "gogoanime", cfg.Catalog.DefaultProvider)
		assert.Equal(t, []string{"zoro", "9anime", "animepahe"}, cfg.Catalog.BackupProviders)
		assert.Equal(t, 20, cfg.Catalog.ResultLimit)
		assert.Equal(t, "https://api.consumet.org", cfg.Catalog.Consumet.BaseURL)
		assert.Equal(t, 2, cfg.Catalog.Consumet.RateLimit)
		assert.Equal(t, 30*time.Minute, cfg.Catalog.Consumet.Freshness)
		assert.Equal(t, 30*time.Second, cfg.Catalog.Consumet.Timeout)
		assert.False(t, cfg.Catalog.Consumet.DedupeInflight)
		assert.Equal(t, "https://api.jikan.moe/v4", cfg.Catalog.Jikan.BaseURL)
		assert.Equal(t, 3, cfg.Catalog.Jikan.RateLimit)

		// Verify remote client defaults
		assert.Equal(t, "", cfg.Client.BaseURL)
		assert.Equal(t, 3, cfg.Client.RateLimit)
		assert.Equal(t, 30*time.Second, cfg.Client.Freshness)
		assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
		assert.Equal(t, "AnimeVerse/3.0", cfg.Client.UserAgent)

		// Verify logging defaults
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "structured", cfg.Logging.Profile)

		// Verify metrics defaults
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, 9090, cfg.Metrics.Port)

		// Verify health defaults
		assert.True(t, cfg.Health.Enabled)
	})

	// Test runtime overrides
	t.Run("RuntimeOverrides", func(t *testing.T) {
		overrides := map[string]any{
			"server": map[string]any{
				"port": 9000,
				"host": "0.0.0.0",
			},
			"catalog": map[string]any{
				"consumet": map[string]any{
					"dedupe_inflight": true,
				},
			},
		}

		cfg, err := Load(ctx, overrides)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Verify overrides were applied
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.True(t, cfg.Catalog.Consumet.DedupeInflight)

		// Verify non-overridden values remain default
		assert.Equal(t, "https://api.consumet.org", cfg.Catalog.Consumet.BaseURL)
		assert.Equal(t, 9090, cfg.Metrics.Port)
	})

	// Test environment variable overrides
	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("ANIMEVERSE_PORT", "3000")
		t.Setenv("ANIMEVERSE_LOG_LEVEL", "warn")
		t.Setenv("ANIMEVERSE_METRICS_ENABLED", "false")
		t.Setenv("ANIMEVERSE_BACKUP_PROVIDERS", "zoro,animepahe")
		t.Setenv("ANIMEVERSE_CONSUMET_TIMEOUT", "5s")
		t.Setenv("ANIMEVERSE_API_URL", "http://127.0.0.1:8000/api")
		t.Setenv("ANIMEVERSE_SERVER_RATE_LIMIT", "2.5")

		cfg, err := Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Verify env overrides were applied
		assert.Equal(t, 3000, cfg.Server.Port)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.False(t, cfg.Metrics.Enabled)
		assert.Equal(t, []string{"zoro", "animepahe"}, cfg.Catalog.BackupProviders)
		assert.Equal(t, 5*time.Second, cfg.Catalog.Consumet.Timeout)
		assert.Equal(t, "http://127.0.0.1:8000/api", cfg.Client.BaseURL)
		assert.Equal(t, 2.5, cfg.Server.RateLimit)
	})

	// Test config precedence: runtime > env > defaults
	t.Run("ConfigPrecedence", func(t *testing.T) {
		t.Setenv("ANIMEVERSE_PORT", "4000")

		overrides := map[string]any{
			"server": map[string]any{
				"port": 5000,
			},
		}

		cfg, err := Load(ctx, overrides)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Runtime override should take precedence over env var
		assert.Equal(t, 5000, cfg.Server.Port)
	})
}

func TestGetConfig(t *testing.T) {
	ctx := context.Background()

	cfg, err := Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	retrieved := GetConfig()
	assert.NotNil(t, retrieved)
	assert.Equal(t, cfg.Server.Port, retrieved.Server.Port)
	assert.Equal(t, cfg.Logging.Level, retrieved.Logging.Level)
}

func TestEnvSpecs(t *testing.T) {
	ctx := context.Background()
	_, err := Load(ctx)
	require.NoError(t, err)

	specs := getEnvSpecs()
	assert.NotEmpty(t, specs)

	envVarNames := make(map[string]bool)
	for _, spec := range specs {
		envVarNames[spec.Name] = true
	}

	assert.True(t, envVarNames["ANIMEVERSE_LOG_LEVEL"], "LOG_LEVEL env var must be mapped")
	assert.True(t, envVarNames["ANIMEVERSE_PORT"], "PORT env var must be mapped")
	assert.True(t, envVarNames["ANIMEVERSE_HOST"], "HOST env var must be mapped")
	assert.True(t, envVarNames["ANIMEVERSE_METRICS_PORT"], "METRICS_PORT env var must be mapped")
	assert.True(t, envVarNames["ANIMEVERSE_DB_PATH"], "DB_PATH env var must be mapped")
	assert.True(t, envVarNames["ANIMEVERSE_CONSUMET_URL"], "CONSUMET_URL env var must be mapped")
	assert.True(t, envVarNames["ANIMEVERSE_API_URL"], "API_URL env var must be mapped")
}

func TestDurationParsing(t *testing.T) {
	t.Setenv("ANIMEVERSE_READ_TIMEOUT", "45s")
	t.Setenv("ANIMEVERSE_SHUTDOWN_TIMEOUT", "5m")
	t.Setenv("ANIMEVERSE_JIKAN_FRESHNESS", "90s")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 90*time.Second, cfg.Catalog.Jikan.Freshness)
}

func TestConfigReload(t *testing.T) {
	ctx := context.Background()

	cfg1, err := Load(ctx)
	require.NoError(t, err)
	initialPort := cfg1.Server.Port

	overrides := map[string]any{
		"server": map[string]any{
			"port": initialPort + 1000,
		},
	}

	cfg2, err := Load(ctx, overrides)
	require.NoError(t, err)
	assert.Equal(t, initialPort+1000, cfg2.Server.Port)
	assert.Equal(t, cfg2, GetConfig())
}

func TestFlatDefaults(t *testing.T) {
	flat := FlatDefaults()

	assert.Equal(t, "https://api.consumet.org", flat["catalog.consumet.base_url"])
	assert.Equal(t, 8000, flat["server.port"])
	_, nested := flat["catalog"]
	assert.False(t, nested)
}

func TestMergeSettingsDeepMerges(t *testing.T) {
	dst := map[string]any{
		"catalog": map[string]any{
			"result_limit": 20,
			"jikan":        map[string]any{"rate_limit": 3, "timeout": "30s"},
		},
	}
	mergeSettings(dst, map[string]any{
		"Catalog": map[string]any{
			"jikan": map[string]any{"rate_limit": 1},
		},
	})

	catalog := dst["catalog"].(map[string]any)
	assert.Equal(t, 20, catalog["result_limit"])
	jikan := catalog["jikan"].(map[string]any)
	assert.Equal(t, 1, jikan["rate_limit"])
	assert.Equal(t, "30s", jikan["timeout"])
}
