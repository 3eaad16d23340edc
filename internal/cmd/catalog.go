package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/animeverse/animeverse/internal/client"
	"github.com/animeverse/animeverse/internal/config"
	"github.com/animeverse/animeverse/internal/core"
	"github.com/animeverse/animeverse/internal/core/catalog"
	"github.com/animeverse/animeverse/internal/core/engine"
	"github.com/animeverse/animeverse/internal/core/fetch"
	"github.com/animeverse/animeverse/internal/metrics"
	"github.com/animeverse/animeverse/internal/observability"
)

// newCatalog is swapped in tests.
var newCatalog = buildCatalog

// buildCatalog returns the remote client when a server URL is configured,
// otherwise an orchestrator over Consumet and Jikan. Each upstream gets its
// own cache and gate.
func buildCatalog(cfg *config.Config) (core.Catalog, error) {
	if cfg == nil {
		return nil, fmt.Errorf("catalog: missing configuration")
	}

	if strings.TrimSpace(cfg.Client.BaseURL) != "" {
		return client.New(newUpstreamCache("client", cfg.Client)), nil
	}

	return &engine.Orchestrator{
		Streams:         catalog.NewConsumet(newUpstreamCache("consumet", cfg.Catalog.Consumet)),
		Metadata:        catalog.NewJikan(newUpstreamCache("jikan", cfg.Catalog.Jikan)),
		DefaultProvider: cfg.Catalog.DefaultProvider,
		BackupProviders: cfg.Catalog.BackupProviders,
		ResultLimit:     cfg.Catalog.ResultLimit,
		Logger:          observability.Logger(),
	}, nil
}

// upstreamCaches returns the fetch caches behind cat, for maintenance tasks.
func upstreamCaches(cat core.Catalog) []*fetch.Cache {
	var caches []*fetch.Cache
	switch c := cat.(type) {
	case *client.Client:
		caches = append(caches, c.Cache)
	case *engine.Orchestrator:
		if consumet, ok := c.Streams.(*catalog.Consumet); ok {
			caches = append(caches, consumet.Cache)
		}
		if jikan, ok := c.Metadata.(*catalog.Jikan); ok {
			caches = append(caches, jikan.Cache)
		}
	}
	return caches
}

func newUpstreamCache(name string, up config.UpstreamConfig) *fetch.Cache {
	gate := engine.NewRateGate(up.RateLimit)
	gate.OnWait = metrics.GateWait(name)

	return &fetch.Cache{
		Name:       name,
		BaseURL:    strings.TrimRight(strings.TrimSpace(up.BaseURL), "/"),
		UserAgent:  up.UserAgent,
		Gate:       gate,
		Freshness:  up.Freshness,
		Timeout:    up.Timeout,
		MaxEntries: up.MaxEntries,
		Dedupe:     up.DedupeInflight,
		Logger:     observability.Logger(),
		Recorder:   metrics.Recorder{},
	}
}

// loadCatalog loads the effective config and builds the catalog for a
// command invocation.
func loadCatalog(ctx context.Context) (*config.Config, core.Catalog, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	cat, err := newCatalog(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, cat, nil
}
