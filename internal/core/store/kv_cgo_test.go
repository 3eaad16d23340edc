//go:build cgo

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animeverse/animeverse/internal/config"
)

func openMemoryStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	store, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestKeyValueCRUD(t *testing.T) {
	ctx := context.Background()
	store := openMemoryStore(t)

	_, ok, err := store.GetValue(ctx, "animeverse_watchlist")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.SetValue(ctx, "animeverse_watchlist", `[]`))
	require.NoError(t, store.SetValue(ctx, "animeverse_watchlist", `[{"id":"naruto"}]`))

	value, ok, err := store.GetValue(ctx, "animeverse_watchlist")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[{"id":"naruto"}]`, value)

	removed, err := store.DeleteValue(ctx, "animeverse_watchlist")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = store.DeleteValue(ctx, "animeverse_watchlist")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := openMemoryStore(t)
	require.NoError(t, store.Migrate(context.Background()))
}

func TestKeyValueRequiresKey(t *testing.T) {
	store := openMemoryStore(t)

	require.Error(t, store.SetValue(context.Background(), " ", "x"))
	_, _, err := store.GetValue(context.Background(), "")
	require.Error(t, err)
}
