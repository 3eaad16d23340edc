package watchlist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/animeverse/animeverse/internal/core"
)

type memoryKV struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: map[string]string{}}
}

func (m *memoryKV) GetValue(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *memoryKV) SetValue(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

type opRecorder struct {
	ops  []string
	errs int
}

func (r *opRecorder) WatchlistOp(op string, err error) {
	r.ops = append(r.ops, op)
	if err != nil {
		r.errs++
	}
}

func newTestWatchlist() (*Watchlist, *memoryKV) {
	kv := newMemoryKV()
	w := New(kv)
	w.Clock = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return w, kv
}

func naruto() core.Anime {
	return core.Anime{ID: "naruto", Provider: "gogoanime", Title: "Naruto", Episodes: 220}
}

func TestListEmpty(t *testing.T) {
	w, _ := newTestWatchlist()

	entries, err := w.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}

func TestTogglePersistsUnderFixedKey(t *testing.T) {
	ctx := context.Background()
	w, kv := newTestWatchlist()

	added, err := w.Toggle(ctx, naruto())
	require.NoError(t, err)
	require.True(t, added)
	require.Contains(t, kv.values[StorageKey], `"id":"naruto"`)

	entries, err := w.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, core.WatchStatusWatching, entries[0].WatchStatus)
	require.Equal(t, 220, entries[0].TotalEpisodes)
	require.True(t, w.Clock().Equal(entries[0].AddedAt))

	added, err = w.Toggle(ctx, naruto())
	require.NoError(t, err)
	require.False(t, added)

	ok, err := w.Contains(ctx, "naruto")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAddReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWatchlist()

	_, err := w.Add(ctx, core.WatchlistEntry{Anime: core.Anime{ID: "a", Title: "A"}})
	require.NoError(t, err)
	_, err = w.Add(ctx, core.WatchlistEntry{Anime: core.Anime{ID: "b", Title: "B"}})
	require.NoError(t, err)
	saved, err := w.Add(ctx, core.WatchlistEntry{
		Anime:       core.Anime{ID: "a", Title: "A renamed"},
		WatchStatus: core.WatchStatusPlanned,
	})
	require.NoError(t, err)
	require.Equal(t, core.WatchStatusPlanned, saved.WatchStatus)

	entries, err := w.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "A renamed", entries[0].Title)
	require.Equal(t, "b", entries[1].ID)
}

func TestAddRejectsIncompleteEntry(t *testing.T) {
	w, _ := newTestWatchlist()

	_, err := w.Add(context.Background(), core.WatchlistEntry{Anime: core.Anime{ID: " "}})
	require.ErrorIs(t, err, ErrInvalidEntry)
}

func TestRemoveReportsPresence(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWatchlist()

	_, err := w.Toggle(ctx, naruto())
	require.NoError(t, err)

	removed, err := w.Remove(ctx, "naruto")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = w.Remove(ctx, "naruto")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestSetProgress(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWatchlist()

	_, err := w.Add(ctx, core.WatchlistEntry{Anime: core.Anime{ID: "a", Title: "A"}, TotalEpisodes: 12})
	require.NoError(t, err)

	entry, err := w.SetProgress(ctx, "a", 5)
	require.NoError(t, err)
	require.Equal(t, 5, entry.CurrentEpisode)
	require.Equal(t, core.WatchStatusWatching, entry.WatchStatus)

	entry, err = w.SetProgress(ctx, "a", 12)
	require.NoError(t, err)
	require.Equal(t, core.WatchStatusCompleted, entry.WatchStatus)

	_, err = w.SetProgress(ctx, "missing", 1)
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = w.SetProgress(ctx, "a", -1)
	require.Error(t, err)
}

func TestCorruptValueReadsAsEmpty(t *testing.T) {
	ctx := context.Background()
	w, kv := newTestWatchlist()
	kv.values[StorageKey] = "{not json"

	entries, err := w.List(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)

	added, err := w.Toggle(ctx, naruto())
	require.NoError(t, err)
	require.True(t, added)
}

func TestRecorderSeesOperationsAndFailures(t *testing.T) {
	ctx := context.Background()
	w, kv := newTestWatchlist()
	rec := &opRecorder{}
	w.Recorder = rec

	_, err := w.Toggle(ctx, naruto())
	require.NoError(t, err)

	kv.setErr = errors.New("disk full")
	_, err = w.Remove(ctx, "naruto")
	require.ErrorContains(t, err, "disk full")

	require.Equal(t, []string{OpToggle, OpRemove}, rec.ops)
	require.Equal(t, 1, rec.errs)
}

func TestConcurrentTogglesDoNotLoseWrites(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWatchlist()

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = w.Toggle(ctx, core.Anime{ID: id, Title: id})
		}(id)
	}
	wg.Wait()

	entries, err := w.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 6)
}

type deletingKV struct {
	*memoryKV
	deleted []string
}

func (d *deletingKV) DeleteValue(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.values[key]
	delete(d.values, key)
	d.deleted = append(d.deleted, key)
	return ok, nil
}

func TestClearDeletesKeyWhenSupported(t *testing.T) {
	ctx := context.Background()
	kv := &deletingKV{memoryKV: newMemoryKV()}
	w := New(kv)

	_, err := w.Toggle(ctx, naruto())
	require.NoError(t, err)

	n, err := w.Clear(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []string{StorageKey}, kv.deleted)

	entries, err := w.List(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestClearWritesEmptyListOtherwise(t *testing.T) {
	ctx := context.Background()
	w, kv := newTestWatchlist()

	_, err := w.Toggle(ctx, naruto())
	require.NoError(t, err)

	n, err := w.Clear(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "[]", kv.values[StorageKey])
}
