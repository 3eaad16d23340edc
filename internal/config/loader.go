// Package config provides centralized configuration management for AnimeVerse.
// Settings are layered as built-in defaults, viper settings (config file and
// flags bound by the CLI), gofulmen environment overrides and runtime
// overrides, then decoded with mapstructure.
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fulmenhq/gofulmen/appidentity"
	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/animeverse/animeverse/internal/appid"
)

const (
	fallbackAppName   = "animeverse"
	fallbackEnvPrefix = "ANIMEVERSE_"
)

var (
	// appConfig holds the current application configuration
	appConfig   *Config
	configMu    sync.RWMutex
	appIdentity *appidentity.Identity
)

// EnvVarSpec defines environment variable mappings for config fields
// following the pattern: {PREFIX}{NAME} maps to config path
type EnvVarSpec = gfconfig.EnvVarSpec

// Environment variable types
const (
	EnvString = gfconfig.EnvString
	EnvInt    = gfconfig.EnvInt
	EnvBool   = gfconfig.EnvBool
)

// Defaults returns the built-in configuration as a nested settings map.
func Defaults() map[string]any {
	return map[string]any{
		"server": map[string]any{
			"host":             "localhost",
			"port":             8000,
			"read_timeout":     "30s",
			"write_timeout":    "60s",
			"idle_timeout":     "120s",
			"shutdown_timeout": "10s",
			"rate_limit":       10.0,
			"rate_burst":       20,
		},
		"store": map[string]any{
			"driver":     "libsql",
			"path":       "",
			"url":        "",
			"auth_token": "",
		},
		"catalog": map[string]any{
			"default_provider": "gogoanime",
			"backup_providers": []string{"zoro", "9anime", "animepahe"},
			"result_limit":     20,
			"consumet": map[string]any{
				"base_url":        "https://api.consumet.org",
				"user_agent":      "AnimeVerse/3.0 (https://github.com/DarrylClay2005/animeverse-app)",
				"rate_limit":      2,
				"freshness":       "30m",
				"timeout":         "30s",
				"max_entries":     1000,
				"dedupe_inflight": false,
			},
			"jikan": map[string]any{
				"base_url":        "https://api.jikan.moe/v4",
				"user_agent":      "AnimeVerse/3.0 (https://github.com/DarrylClay2005/animeverse-app)",
				"rate_limit":      3,
				"freshness":       "1h",
				"timeout":         "30s",
				"max_entries":     1000,
				"dedupe_inflight": false,
			},
		},
		"client": map[string]any{
			"base_url":        "",
			"user_agent":      "AnimeVerse/3.0",
			"rate_limit":      3,
			"freshness":       "30s",
			"timeout":         "10s",
			"max_entries":     0,
			"dedupe_inflight": false,
		},
		"logging": map[string]any{
			"level":   "info",
			"profile": "structured",
		},
		"metrics": map[string]any{
			"enabled": true,
			"port":    9090,
		},
		"health": map[string]any{
			"enabled": true,
		},
	}
}

// FlatDefaults returns Defaults keyed by dotted viper paths.
func FlatDefaults() map[string]any {
	out := make(map[string]any)
	flatten("", Defaults(), out)
	return out
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for key, value := range in {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			flatten(path, nested, out)
			continue
		}
		out[path] = value
	}
}

// Load builds the effective configuration. It is safe to call repeatedly
// (e.g., for config reload).
func Load(ctx context.Context, runtimeOverrides ...map[string]any) (*Config, error) {
	if appIdentity == nil {
		if identity, err := appid.Get(ctx); err == nil {
			appIdentity = identity
		}
	}

	merged := Defaults()
	mergeSettings(merged, viper.AllSettings())

	envOverrides, err := gfconfig.LoadEnvOverrides(getEnvSpecs())
	if err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}
	mergeSettings(merged, envOverrides)

	for _, overrides := range runtimeOverrides {
		mergeSettings(merged, overrides)
	}

	cfg, err := Decode(merged)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}

	setConfig(cfg)

	return cfg, nil
}

// Decode converts a nested settings map into a typed Config.
func Decode(settings map[string]any) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// mergeSettings deep-merges src into dst. Nested maps merge key by key;
// every other value replaces what dst held.
func mergeSettings(dst, src map[string]any) {
	for key, value := range src {
		key = strings.ToLower(key)
		srcMap, srcIsMap := asSettingsMap(value)
		if !srcIsMap {
			dst[key] = value
			continue
		}
		dstMap, dstIsMap := asSettingsMap(dst[key])
		if !dstIsMap {
			dstMap = map[string]any{}
		}
		mergeSettings(dstMap, srcMap)
		dst[key] = dstMap
	}
}

func asSettingsMap(value any) (map[string]any, bool) {
	switch typed := value.(type) {
	case map[string]any:
		return typed, true
	case map[any]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	default:
		return nil, false
	}
}

// EnvPrefix returns the environment variable prefix, always ending in "_".
func EnvPrefix() string {
	prefix := fallbackEnvPrefix
	if appIdentity != nil && strings.TrimSpace(appIdentity.EnvPrefix) != "" {
		prefix = appIdentity.EnvPrefix
	}
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	return prefix
}

// getEnvSpecs returns environment variable specifications for config mapping
// Maps {PREFIX}{NAME} environment variables to config paths
func getEnvSpecs() []EnvVarSpec {
	prefix := EnvPrefix()

	return []EnvVarSpec{
		// Server config
		{Name: prefix + "HOST", Path: []string{"server", "host"}, Type: EnvString},
		{Name: prefix + "PORT", Path: []string{"server", "port"}, Type: EnvInt},
		// Duration fields are parsed as strings and converted by mapstructure decode hook
		{Name: prefix + "READ_TIMEOUT", Path: []string{"server", "read_timeout"}, Type: EnvString},
		{Name: prefix + "WRITE_TIMEOUT", Path: []string{"server", "write_timeout"}, Type: EnvString},
		{Name: prefix + "IDLE_TIMEOUT", Path: []string{"server", "idle_timeout"}, Type: EnvString},
		{Name: prefix + "SHUTDOWN_TIMEOUT", Path: []string{"server", "shutdown_timeout"}, Type: EnvString},
		{Name: prefix + "SERVER_RATE_LIMIT", Path: []string{"server", "rate_limit"}, Type: EnvString},
		{Name: prefix + "SERVER_RATE_BURST", Path: []string{"server", "rate_burst"}, Type: EnvInt},

		{Name: prefix + "LOG_LEVEL", Path: []string{"logging", "level"}, Type: EnvString},
		{Name: prefix + "LOG_PROFILE", Path: []string{"logging", "profile"}, Type: EnvString},

		// Store config
		{Name: prefix + "DB_DRIVER", Path: []string{"store", "driver"}, Type: EnvString},
		{Name: prefix + "DB_PATH", Path: []string{"store", "path"}, Type: EnvString},
		{Name: prefix + "DB_URL", Path: []string{"store", "url"}, Type: EnvString},
		{Name: prefix + "DB_AUTH_TOKEN", Path: []string{"store", "auth_token"}, Type: EnvString},

		// Catalog config; list values are comma separated
		{Name: prefix + "DEFAULT_PROVIDER", Path: []string{"catalog", "default_provider"}, Type: EnvString},
		{Name: prefix + "BACKUP_PROVIDERS", Path: []string{"catalog", "backup_providers"}, Type: EnvString},
		{Name: prefix + "RESULT_LIMIT", Path: []string{"catalog", "result_limit"}, Type: EnvInt},

		{Name: prefix + "CONSUMET_URL", Path: []string{"catalog", "consumet", "base_url"}, Type: EnvString},
		{Name: prefix + "CONSUMET_RATE_LIMIT", Path: []string{"catalog", "consumet", "rate_limit"}, Type: EnvInt},
		{Name: prefix + "CONSUMET_FRESHNESS", Path: []string{"catalog", "consumet", "freshness"}, Type: EnvString},
		{Name: prefix + "CONSUMET_TIMEOUT", Path: []string{"catalog", "consumet", "timeout"}, Type: EnvString},
		{Name: prefix + "CONSUMET_DEDUPE_INFLIGHT", Path: []string{"catalog", "consumet", "dedupe_inflight"}, Type: EnvBool},

		{Name: prefix + "JIKAN_URL", Path: []string{"catalog", "jikan", "base_url"}, Type: EnvString},
		{Name: prefix + "JIKAN_RATE_LIMIT", Path: []string{"catalog", "jikan", "rate_limit"}, Type: EnvInt},
		{Name: prefix + "JIKAN_FRESHNESS", Path: []string{"catalog", "jikan", "freshness"}, Type: EnvString},
		{Name: prefix + "JIKAN_TIMEOUT", Path: []string{"catalog", "jikan", "timeout"}, Type: EnvString},
		{Name: prefix + "JIKAN_DEDUPE_INFLIGHT", Path: []string{"catalog", "jikan", "dedupe_inflight"}, Type: EnvBool},

		// Remote client config
		{Name: prefix + "API_URL", Path: []string{"client", "base_url"}, Type: EnvString},
		{Name: prefix + "CLIENT_RATE_LIMIT", Path: []string{"client", "rate_limit"}, Type: EnvInt},
		{Name: prefix + "CLIENT_FRESHNESS", Path: []string{"client", "freshness"}, Type: EnvString},
		{Name: prefix + "CLIENT_TIMEOUT", Path: []string{"client", "timeout"}, Type: EnvString},

		// Metrics config
		{Name: prefix + "METRICS_ENABLED", Path: []string{"metrics", "enabled"}, Type: EnvBool},
		{Name: prefix + "METRICS_PORT", Path: []string{"metrics", "port"}, Type: EnvInt},

		// Health config
		{Name: prefix + "HEALTH_ENABLED", Path: []string{"health", "enabled"}, Type: EnvBool},
	}
}

// appNamesForPaths returns the config name and binary name from app identity,
// falling back to "animeverse" if not set.
func appNamesForPaths() (configName string, binaryName string) {
	configName = fallbackAppName
	binaryName = fallbackAppName
	if appIdentity == nil {
		return configName, binaryName
	}

	if strings.TrimSpace(appIdentity.ConfigName) != "" {
		configName = appIdentity.ConfigName
	}
	if strings.TrimSpace(appIdentity.BinaryName) != "" {
		binaryName = appIdentity.BinaryName
	}
	return configName, binaryName
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configName, _ := appNamesForPaths()
	configDir := gfconfig.GetAppConfigDir(configName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// DefaultDataDir returns the XDG-compliant data directory for the app.
func DefaultDataDir() string {
	configName, _ := appNamesForPaths()
	return gfconfig.GetAppDataDir(configName)
}

// DefaultStorePath returns the XDG-compliant path to the database file.
func DefaultStorePath() string {
	configName, binaryName := appNamesForPaths()
	dataDir := gfconfig.GetAppDataDir(configName)
	if strings.TrimSpace(dataDir) == "" {
		return "./" + binaryName + ".db"
	}
	return filepath.Join(dataDir, binaryName+".db")
}
