package engine

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/animeverse/animeverse/internal/core"
	"github.com/animeverse/animeverse/internal/core/catalog"
)

const (
	// DefaultResultLimit caps every result list.
	DefaultResultLimit = 20

	// backupThreshold is the result count below which backup providers are searched.
	backupThreshold = 10
)

// DefaultBackupProviders are searched after the default provider, in order.
var DefaultBackupProviders = []string{"zoro", "9anime", "animepahe"}

// StreamSource serves search, info and stream lookups per provider.
type StreamSource interface {
	Search(ctx context.Context, provider, query string) ([]core.Anime, error)
	Info(ctx context.Context, provider, id string) (*core.AnimeDetail, error)
	Watch(ctx context.Context, provider, episodeID string) (*core.StreamInfo, error)
	TopAiring(ctx context.Context) ([]core.Anime, error)
	Recent(ctx context.Context) ([]core.Anime, error)
}

// MetadataSource is the metadata-only fallback catalog.
type MetadataSource interface {
	Search(ctx context.Context, query string) ([]core.Anime, error)
	Anime(ctx context.Context, id string) (*core.AnimeDetail, error)
	SeasonNow(ctx context.Context, limit int) ([]core.Anime, error)
}

// Orchestrator fans catalog lookups out across stream providers and the
// metadata fallback.
type Orchestrator struct {
	Streams         StreamSource
	Metadata        MetadataSource
	DefaultProvider string
	BackupProviders []string
	ResultLimit     int
	Logger          *logging.Logger
}

var _ core.Catalog = (*Orchestrator)(nil)

// Search queries the default provider, tops up from backups when the result
// list is short, and falls back to the metadata source when nothing matched.
// Upstream failures only surface when every source failed.
func (o *Orchestrator) Search(ctx context.Context, query string) (*core.SearchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < core.MinQueryLength {
		return nil, core.ErrInvalidQuery
	}

	var (
		all      []core.Anime
		attempts int
		failures int
		lastErr  error
	)

	searchProvider := func(provider string) {
		attempts++
		results, err := o.Streams.Search(ctx, provider, query)
		if err != nil {
			failures++
			lastErr = err
			o.warn("Provider search failed", zap.String("provider", provider), zap.String("query", query), zap.Error(err))
			return
		}
		all = append(all, results...)
	}

	if o.Streams != nil {
		searchProvider(o.defaultProvider())
		if len(all) < backupThreshold {
			for _, provider := range o.backupProviders() {
				searchProvider(provider)
			}
		}
	}

	results := o.limit(dedupeByTitle(all))

	if len(results) == 0 && o.Metadata != nil {
		attempts++
		fallback, err := o.Metadata.Search(ctx, query)
		if err != nil {
			failures++
			lastErr = err
			o.warn("Metadata search failed", zap.String("query", query), zap.Error(err))
		} else {
			results = o.limit(fallback)
		}
	}

	if attempts > 0 && failures == attempts {
		return nil, fmt.Errorf("search %q: %w", query, lastErr)
	}

	if results == nil {
		results = []core.Anime{}
	}
	return &core.SearchResult{Query: query, Results: results, Total: len(results)}, nil
}

// Trending lists top-airing shows, falling back to the current season.
func (o *Orchestrator) Trending(ctx context.Context) ([]core.Anime, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var lastErr error
	if o.Streams != nil {
		results, err := o.Streams.TopAiring(ctx)
		if err != nil {
			lastErr = err
			o.warn("Top airing lookup failed", zap.Error(err))
		} else if len(results) > 0 {
			return o.limit(results), nil
		}
	}

	if o.Metadata != nil {
		results, err := o.Metadata.SeasonNow(ctx, o.resultLimit())
		if err != nil {
			o.warn("Season lookup failed", zap.Error(err))
			return nil, fmt.Errorf("trending: %w", err)
		}
		return o.limit(results), nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("trending: %w", lastErr)
	}
	return []core.Anime{}, nil
}

// Recent lists the latest released episodes.
func (o *Orchestrator) Recent(ctx context.Context) ([]core.Anime, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if o.Streams == nil {
		return []core.Anime{}, nil
	}

	results, err := o.Streams.Recent(ctx)
	if err != nil {
		o.warn("Recent episodes lookup failed", zap.Error(err))
		return nil, fmt.Errorf("recent: %w", err)
	}
	if results == nil {
		return []core.Anime{}, nil
	}
	return o.limit(results), nil
}

// Info returns the detail record for id. The jikan provider is served by the
// metadata source; every other provider by the stream source.
func (o *Orchestrator) Info(ctx context.Context, provider, id string) (*core.AnimeDetail, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	provider = normalizeKey(provider)
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("anime id is required")
	}

	if provider == catalog.ProviderJikan {
		if o.Metadata == nil {
			return nil, fmt.Errorf("%w: %s/%s", core.ErrNotFound, provider, id)
		}
		return o.Metadata.Anime(ctx, id)
	}

	if o.Streams == nil {
		return nil, fmt.Errorf("%w: %s/%s", core.ErrNotFound, provider, id)
	}
	if provider == "" {
		provider = o.defaultProvider()
	}
	return o.Streams.Info(ctx, provider, id)
}

// Watch returns the stream sources for an episode.
func (o *Orchestrator) Watch(ctx context.Context, provider, episodeID string) (*core.StreamInfo, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	provider = normalizeKey(provider)
	episodeID = strings.TrimSpace(episodeID)
	if episodeID == "" {
		return nil, fmt.Errorf("episode id is required")
	}
	if provider == "" {
		provider = o.defaultProvider()
	}
	if o.Streams == nil || provider == catalog.ProviderJikan {
		return nil, fmt.Errorf("%w: no streams for %s/%s", core.ErrNotFound, provider, episodeID)
	}

	info, err := o.Streams.Watch(ctx, provider, episodeID)
	if err != nil {
		return nil, err
	}
	if info == nil || len(info.Sources) == 0 {
		return nil, fmt.Errorf("%w: no streams for %s/%s", core.ErrNotFound, provider, episodeID)
	}
	return info, nil
}

// dedupeByTitle keeps the first result for each case-insensitive title.
func dedupeByTitle(items []core.Anime) []core.Anime {
	seen := make(map[string]struct{}, len(items))
	out := make([]core.Anime, 0, len(items))
	for _, item := range items {
		key := catalog.TitleKey(item.Title)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func (o *Orchestrator) limit(items []core.Anime) []core.Anime {
	limit := o.resultLimit()
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func (o *Orchestrator) resultLimit() int {
	if o.ResultLimit > 0 {
		return o.ResultLimit
	}
	return DefaultResultLimit
}

func (o *Orchestrator) defaultProvider() string {
	if p := normalizeKey(o.DefaultProvider); p != "" {
		return p
	}
	return catalog.ProviderGogoanime
}

func (o *Orchestrator) backupProviders() []string {
	source := o.BackupProviders
	if source == nil {
		source = DefaultBackupProviders
	}
	primary := o.defaultProvider()
	out := make([]string, 0, len(source))
	for _, p := range source {
		p = normalizeKey(p)
		if p == "" || p == primary {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (o *Orchestrator) warn(msg string, fields ...zap.Field) {
	if o.Logger != nil {
		o.Logger.Warn(msg, fields...)
	}
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
