// Package watchlist keeps the user's saved shows as a JSON array under a
// single key of a key-value store.
package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/animeverse/animeverse/internal/core"
)

// StorageKey is the fixed key the watchlist is persisted under.
const StorageKey = "animeverse_watchlist"

// Operation names reported to a Recorder.
const (
	OpList     = "list"
	OpAdd      = "add"
	OpRemove   = "remove"
	OpToggle   = "toggle"
	OpProgress = "progress"
	OpClear    = "clear"
)

// ErrInvalidEntry is returned when an entry lacks an id or title.
var ErrInvalidEntry = errors.New("watchlist entry requires id and title")

// KV is the persistence the watchlist needs. *store.Store satisfies it.
type KV interface {
	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
}

// Deleter is implemented by stores that can drop a key outright. Clear uses
// it when available and falls back to writing an empty list.
type Deleter interface {
	DeleteValue(ctx context.Context, key string) (bool, error)
}

// Recorder observes watchlist operations.
type Recorder interface {
	WatchlistOp(op string, err error)
}

// Watchlist serializes read-modify-write cycles against the store.
type Watchlist struct {
	KV       KV
	Clock    func() time.Time
	Logger   *logging.Logger
	Recorder Recorder

	mu sync.Mutex
}

// New returns a watchlist backed by kv.
func New(kv KV) *Watchlist {
	return &Watchlist{KV: kv}
}

// List returns the saved entries in insertion order.
func (w *Watchlist) List(ctx context.Context) ([]core.WatchlistEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	entries, err := w.load(ctx)
	w.record(OpList, err)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Contains reports whether an entry with id is saved.
func (w *Watchlist) Contains(ctx context.Context, id string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	entries, err := w.load(ctx)
	if err != nil {
		return false, err
	}
	return indexOf(entries, id) >= 0, nil
}

// Toggle removes the show if it is saved and appends it otherwise. The
// boolean reports whether the show was added.
func (w *Watchlist) Toggle(ctx context.Context, anime core.Anime) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	added, err := w.toggle(ctx, anime)
	w.record(OpToggle, err)
	return added, err
}

func (w *Watchlist) toggle(ctx context.Context, anime core.Anime) (bool, error) {
	entries, err := w.load(ctx)
	if err != nil {
		return false, err
	}

	if idx := indexOf(entries, anime.ID); idx >= 0 {
		entries = append(entries[:idx], entries[idx+1:]...)
		return false, w.save(ctx, entries)
	}

	entry, err := w.prepare(core.WatchlistEntry{Anime: anime})
	if err != nil {
		return false, err
	}
	return true, w.save(ctx, append(entries, entry))
}

// Clear drops every saved entry and returns how many there were.
func (w *Watchlist) Clear(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.clear(ctx)
	w.record(OpClear, err)
	return n, err
}

func (w *Watchlist) clear(ctx context.Context) (int, error) {
	entries, err := w.load(ctx)
	if err != nil {
		return 0, err
	}
	if d, ok := w.KV.(Deleter); ok {
		if _, err := d.DeleteValue(ctx, StorageKey); err != nil {
			return 0, fmt.Errorf("clear watchlist: %w", err)
		}
		return len(entries), nil
	}
	return len(entries), w.save(ctx, []core.WatchlistEntry{})
}

// Add inserts entry, replacing any saved entry with the same id in place.
func (w *Watchlist) Add(ctx context.Context, entry core.WatchlistEntry) (core.WatchlistEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	saved, err := w.add(ctx, entry)
	w.record(OpAdd, err)
	return saved, err
}

func (w *Watchlist) add(ctx context.Context, entry core.WatchlistEntry) (core.WatchlistEntry, error) {
	entry, err := w.prepare(entry)
	if err != nil {
		return core.WatchlistEntry{}, err
	}

	entries, err := w.load(ctx)
	if err != nil {
		return core.WatchlistEntry{}, err
	}

	if idx := indexOf(entries, entry.ID); idx >= 0 {
		entries[idx] = entry
	} else {
		entries = append(entries, entry)
	}
	if err := w.save(ctx, entries); err != nil {
		return core.WatchlistEntry{}, err
	}
	return entry, nil
}

// Remove deletes the entry with id and reports whether one existed.
func (w *Watchlist) Remove(ctx context.Context, id string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	removed, err := w.remove(ctx, id)
	w.record(OpRemove, err)
	return removed, err
}

func (w *Watchlist) remove(ctx context.Context, id string) (bool, error) {
	entries, err := w.load(ctx)
	if err != nil {
		return false, err
	}

	idx := indexOf(entries, id)
	if idx < 0 {
		return false, nil
	}
	entries = append(entries[:idx], entries[idx+1:]...)
	return true, w.save(ctx, entries)
}

// SetProgress records the episode last watched. Reaching the known episode
// count marks the entry completed.
func (w *Watchlist) SetProgress(ctx context.Context, id string, episode int) (core.WatchlistEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	entry, err := w.setProgress(ctx, id, episode)
	w.record(OpProgress, err)
	return entry, err
}

func (w *Watchlist) setProgress(ctx context.Context, id string, episode int) (core.WatchlistEntry, error) {
	if episode < 0 {
		return core.WatchlistEntry{}, fmt.Errorf("episode must be non-negative, got %d", episode)
	}

	entries, err := w.load(ctx)
	if err != nil {
		return core.WatchlistEntry{}, err
	}

	idx := indexOf(entries, id)
	if idx < 0 {
		return core.WatchlistEntry{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}

	entry := &entries[idx]
	entry.CurrentEpisode = episode
	if entry.TotalEpisodes > 0 && episode >= entry.TotalEpisodes {
		entry.WatchStatus = core.WatchStatusCompleted
	} else if entry.WatchStatus == core.WatchStatusCompleted || entry.WatchStatus == core.WatchStatusPlanned {
		entry.WatchStatus = core.WatchStatusWatching
	}

	if err := w.save(ctx, entries); err != nil {
		return core.WatchlistEntry{}, err
	}
	return *entry, nil
}

func (w *Watchlist) prepare(entry core.WatchlistEntry) (core.WatchlistEntry, error) {
	entry.ID = strings.TrimSpace(entry.ID)
	entry.Title = strings.TrimSpace(entry.Title)
	if entry.ID == "" || entry.Title == "" {
		return core.WatchlistEntry{}, ErrInvalidEntry
	}

	if entry.WatchStatus == "" {
		entry.WatchStatus = core.WatchStatusWatching
	}
	if entry.TotalEpisodes == 0 && entry.Episodes > 0 {
		entry.TotalEpisodes = entry.Episodes
	}
	if entry.AddedAt.IsZero() {
		entry.AddedAt = w.now()
	}
	return entry, nil
}

func (w *Watchlist) load(ctx context.Context) ([]core.WatchlistEntry, error) {
	if w.KV == nil {
		return nil, errors.New("watchlist store is not configured")
	}

	raw, ok, err := w.KV.GetValue(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}

	entries := []core.WatchlistEntry{}
	if !ok || strings.TrimSpace(raw) == "" {
		return entries, nil
	}

	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		// A corrupt value reads as empty so the next write repairs it.
		if w.Logger != nil {
			w.Logger.Warn("Discarding unreadable watchlist", zap.Error(err))
		}
		return []core.WatchlistEntry{}, nil
	}
	return entries, nil
}

func (w *Watchlist) save(ctx context.Context, entries []core.WatchlistEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode watchlist: %w", err)
	}
	if err := w.KV.SetValue(ctx, StorageKey, string(data)); err != nil {
		return fmt.Errorf("save watchlist: %w", err)
	}
	return nil
}

func (w *Watchlist) record(op string, err error) {
	if w.Recorder != nil {
		w.Recorder.WatchlistOp(op, err)
	}
	if err != nil && w.Logger != nil {
		w.Logger.Debug("Watchlist operation failed", zap.String("op", op), zap.Error(err))
	}
}

func (w *Watchlist) now() time.Time {
	if w.Clock != nil {
		return w.Clock().UTC()
	}
	return time.Now().UTC()
}

func indexOf(entries []core.WatchlistEntry, id string) int {
	id = strings.TrimSpace(id)
	for i := range entries {
		if entries[i].ID == id {
			return i
		}
	}
	return -1
}
