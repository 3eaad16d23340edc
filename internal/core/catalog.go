package core

import (
	"context"
	"errors"
)

// MinQueryLength is the shortest accepted search query.
const MinQueryLength = 2

// ErrInvalidQuery reports a search query shorter than MinQueryLength.
var ErrInvalidQuery = errors.New("query must be at least 2 characters")

// Catalog answers discovery and playback lookups.
type Catalog interface {
	Search(ctx context.Context, query string) (*SearchResult, error)
	Trending(ctx context.Context) ([]Anime, error)
	Recent(ctx context.Context) ([]Anime, error)
	Info(ctx context.Context, provider, id string) (*AnimeDetail, error)
	Watch(ctx context.Context, provider, episodeID string) (*StreamInfo, error)
}
