// Package client reads the catalog from a running animeverse server through
// a cached, rate-gated fetch layer.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/animeverse/animeverse/internal/core"
	"github.com/animeverse/animeverse/internal/core/catalog"
	"github.com/animeverse/animeverse/internal/core/fetch"
)

// Client implements core.Catalog against the /api surface of a server.
type Client struct {
	Cache *fetch.Cache

	// DefaultProvider fills entries the server returned without a provider.
	DefaultProvider string
}

var _ core.Catalog = (*Client)(nil)

// New returns a client issuing requests through cache. cache.BaseURL must
// point at the server's API root, e.g. http://localhost:8000/api.
func New(cache *fetch.Cache) *Client {
	if cache != nil {
		cache.BaseURL = strings.TrimRight(cache.BaseURL, "/")
	}
	return &Client{Cache: cache, DefaultProvider: catalog.ProviderGogoanime}
}

// Search runs a server-side search. Queries shorter than
// core.MinQueryLength are rejected without a request.
func (c *Client) Search(ctx context.Context, query string) (*core.SearchResult, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < core.MinQueryLength {
		return nil, core.ErrInvalidQuery
	}

	list, err := c.list(ctx, "/search?q="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}
	return &core.SearchResult{Query: firstNonEmpty(list.Query, query), Results: c.fromList(list), Total: len(list.Results)}, nil
}

// Trending returns the server's trending list.
func (c *Client) Trending(ctx context.Context) ([]core.Anime, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	list, err := c.list(ctx, "/trending")
	if err != nil {
		return nil, err
	}
	return c.fromList(list), nil
}

// Recent returns the server's recent episode list.
func (c *Client) Recent(ctx context.Context) ([]core.Anime, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	list, err := c.list(ctx, "/recent")
	if err != nil {
		return nil, err
	}
	return c.fromList(list), nil
}

// Info fetches one show with its episode list.
func (c *Client) Info(ctx context.Context, provider, id string) (*core.AnimeDetail, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty anime id", core.ErrNotFound)
	}

	provider = c.provider(provider)
	var detail catalog.APIDetail
	if err := c.Cache.GetJSON(ctx, "/anime/"+pathSegment(provider)+"/"+pathSegment(id), &detail); err != nil {
		return nil, notFound(err)
	}
	return catalog.FromAPIDetail(detail, provider), nil
}

// Watch fetches stream sources for one episode.
func (c *Client) Watch(ctx context.Context, provider, episodeID string) (*core.StreamInfo, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(episodeID) == "" {
		return nil, fmt.Errorf("%w: empty episode id", core.ErrNotFound)
	}

	provider = c.provider(provider)
	var info core.StreamInfo
	if err := c.Cache.GetJSON(ctx, "/watch/"+pathSegment(provider)+"/"+pathSegment(episodeID), &info); err != nil {
		return nil, notFound(err)
	}
	if len(info.Sources) == 0 {
		return nil, fmt.Errorf("%w: no sources for %s", core.ErrNotFound, episodeID)
	}
	if info.Provider == "" {
		info.Provider = provider
	}
	if info.EpisodeID == "" {
		info.EpisodeID = episodeID
	}
	return &info, nil
}

func (c *Client) list(ctx context.Context, endpoint string) (catalog.APIList, error) {
	var list catalog.APIList
	if err := c.Cache.GetJSON(ctx, endpoint, &list); err != nil {
		return catalog.APIList{}, err
	}
	return list, nil
}

func (c *Client) fromList(list catalog.APIList) []core.Anime {
	out := make([]core.Anime, 0, len(list.Results))
	for _, item := range list.Results {
		out = append(out, catalog.FromAPI(item, c.DefaultProvider))
	}
	return out
}

func (c *Client) provider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider != "" {
		return provider
	}
	if c.DefaultProvider != "" {
		return c.DefaultProvider
	}
	return catalog.ProviderGogoanime
}

func (c *Client) check() error {
	if c == nil || c.Cache == nil {
		return errors.New("remote client is not configured")
	}
	if strings.TrimSpace(c.Cache.BaseURL) == "" {
		return errors.New("remote client requires a server base URL")
	}
	return nil
}

func pathSegment(value string) string {
	return url.PathEscape(strings.TrimSpace(value))
}

func notFound(err error) error {
	if fetch.StatusCode(err) == http.StatusNotFound {
		return fmt.Errorf("%w: %w", core.ErrNotFound, err)
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
