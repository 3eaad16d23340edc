package cmd

import (
	"context"
	"fmt"

	"github.com/animeverse/animeverse/internal/config"
	"github.com/animeverse/animeverse/internal/core/store"
	"github.com/animeverse/animeverse/internal/core/watchlist"
	"github.com/animeverse/animeverse/internal/metrics"
	"github.com/animeverse/animeverse/internal/observability"
)

func openStore(ctx context.Context, cfg config.StoreConfig) (*store.Store, error) {
	db, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// openWatchlist opens the configured store and returns a watchlist over it.
// The caller closes the returned store.
func openWatchlist(ctx context.Context) (*watchlist.Watchlist, *store.Store, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	wl := newWatchlist(db)
	return wl, db, nil
}

func newWatchlist(kv watchlist.KV) *watchlist.Watchlist {
	wl := watchlist.New(kv)
	wl.Logger = observability.Logger()
	wl.Recorder = metrics.Recorder{}
	return wl
}
