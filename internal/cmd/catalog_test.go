package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animeverse/animeverse/internal/config"
)

func TestUpstreamCachesForOrchestrator(t *testing.T) {
	cfg := &config.Config{}
	cfg.Catalog.Consumet = config.UpstreamConfig{BaseURL: "https://consumet.example/", RateLimit: 3}
	cfg.Catalog.Jikan = config.UpstreamConfig{BaseURL: "https://jikan.example", RateLimit: 3}

	cat, err := buildCatalog(cfg)
	require.NoError(t, err)

	caches := upstreamCaches(cat)
	require.Len(t, caches, 2)
	require.Equal(t, "consumet", caches[0].Name)
	require.Equal(t, "https://consumet.example", caches[0].BaseURL)
	require.Equal(t, "jikan", caches[1].Name)
}

func TestUpstreamCachesForRemoteClient(t *testing.T) {
	cfg := &config.Config{}
	cfg.Client = config.UpstreamConfig{BaseURL: "http://127.0.0.1:8000/api", RateLimit: 3}

	cat, err := buildCatalog(cfg)
	require.NoError(t, err)

	caches := upstreamCaches(cat)
	require.Len(t, caches, 1)
	require.Equal(t, "client", caches[0].Name)
}

func TestUpstreamCachesIgnoresOtherCatalogs(t *testing.T) {
	require.Empty(t, upstreamCaches(&stubCatalog{}))
}
