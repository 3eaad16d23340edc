package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/animeverse/animeverse/internal/core"
	"github.com/animeverse/animeverse/internal/core/fetch"
)

// DefaultConsumetURL is the public Consumet API.
const DefaultConsumetURL = "https://api.consumet.org"

// Consumet reads search, info and stream data from a Consumet API instance.
type Consumet struct {
	Cache *fetch.Cache
}

// NewConsumet returns a client issuing every request through cache.
func NewConsumet(cache *fetch.Cache) *Consumet {
	if cache != nil && cache.BaseURL == "" {
		cache.BaseURL = DefaultConsumetURL
	}
	return &Consumet{Cache: cache}
}

type consumetList struct {
	Results []consumetItem `json:"results"`
}

type consumetItem struct {
	ID            string     `json:"id"`
	Title         flexString `json:"title"`
	URL           string     `json:"url"`
	Image         string     `json:"image"`
	ReleaseDate   flexString `json:"releaseDate"`
	Status        string     `json:"status"`
	Type          string     `json:"type"`
	Genres        []string   `json:"genres"`
	EpisodeID     string     `json:"episodeId"`
	EpisodeNumber float64    `json:"episodeNumber"`
}

type consumetInfo struct {
	ID            string     `json:"id"`
	Title         flexString `json:"title"`
	URL           string     `json:"url"`
	Image         string     `json:"image"`
	ReleaseDate   flexString `json:"releaseDate"`
	Description   string     `json:"description"`
	Genres        []string   `json:"genres"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	Rating        flexString `json:"rating"`
	TotalEpisodes int        `json:"totalEpisodes"`
	Episodes      []struct {
		ID     string  `json:"id"`
		Number float64 `json:"number"`
		URL    string  `json:"url"`
	} `json:"episodes"`
}

type consumetWatch struct {
	Sources []struct {
		URL     string     `json:"url"`
		Quality flexString `json:"quality"`
		IsM3U8  bool       `json:"isM3U8"`
	} `json:"sources"`
	Subtitles []struct {
		URL  string `json:"url"`
		Lang string `json:"lang"`
	} `json:"subtitles"`
	Intro *core.Segment `json:"intro"`
	Outro *core.Segment `json:"outro"`
}

// Search runs a title search against one provider.
func (c *Consumet) Search(ctx context.Context, provider, query string) ([]core.Anime, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	provider = providerOrDefault(provider)
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query is required")
	}

	var payload consumetList
	endpoint := fmt.Sprintf("/anime/%s/%s", url.PathEscape(provider), url.PathEscape(query))
	if err := c.Cache.GetJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	results := make([]core.Anime, 0, len(payload.Results))
	for _, item := range payload.Results {
		title := item.Title.String()
		results = append(results, Normalize(core.Anime{
			ID:           item.ID,
			Provider:     provider,
			Title:        title,
			EnglishTitle: title,
			Type:         item.Type,
			Year:         item.ReleaseDate.String(),
			Genres:       item.Genres,
			Image:        item.Image,
			Status:       statusOrDefault(item.Status),
			URL:          fmt.Sprintf("/anime/%s/%s", provider, item.ID),
		}))
	}
	return results, nil
}

// Info returns the detail record and episode list for id.
func (c *Consumet) Info(ctx context.Context, provider, id string) (*core.AnimeDetail, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	provider = providerOrDefault(provider)
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("anime id is required")
	}

	var payload consumetInfo
	endpoint := fmt.Sprintf("/anime/%s/info/%s", url.PathEscape(provider), url.PathEscape(id))
	if err := c.Cache.GetJSON(ctx, endpoint, &payload); err != nil {
		return nil, notFound(err)
	}
	if payload.ID == "" && payload.Title == "" {
		return nil, fmt.Errorf("%w: %s/%s", core.ErrNotFound, provider, id)
	}

	detail := &core.AnimeDetail{
		Anime: Normalize(core.Anime{
			ID:           firstNonEmpty(payload.ID, id),
			Provider:     provider,
			Title:        payload.Title.String(),
			EnglishTitle: payload.Title.String(),
			Type:         payload.Type,
			Episodes:     len(payload.Episodes),
			Year:         YearOf(payload.ReleaseDate.String()),
			Score:        payload.Rating.String(),
			Synopsis:     payload.Description,
			Genres:       payload.Genres,
			Image:        payload.Image,
			Status:       statusOrDefault(payload.Status),
		}),
		TotalEpisodes: payload.TotalEpisodes,
	}
	for _, ep := range payload.Episodes {
		detail.EpisodeList = append(detail.EpisodeList, core.Episode{
			ID:     ep.ID,
			Number: int(ep.Number),
			URL:    ep.URL,
		})
	}
	return detail, nil
}

// Watch returns the stream sources for one episode.
func (c *Consumet) Watch(ctx context.Context, provider, episodeID string) (*core.StreamInfo, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	provider = providerOrDefault(provider)
	episodeID = strings.TrimSpace(episodeID)
	if episodeID == "" {
		return nil, errors.New("episode id is required")
	}

	var payload consumetWatch
	endpoint := fmt.Sprintf("/anime/%s/watch/%s", url.PathEscape(provider), url.PathEscape(episodeID))
	if err := c.Cache.GetJSON(ctx, endpoint, &payload); err != nil {
		return nil, notFound(err)
	}

	info := &core.StreamInfo{
		Provider:  provider,
		EpisodeID: episodeID,
		Sources:   make([]core.StreamSource, 0, len(payload.Sources)),
		Intro:     segmentOrNil(payload.Intro),
		Outro:     segmentOrNil(payload.Outro),
	}
	for _, source := range payload.Sources {
		if source.URL == "" {
			continue
		}
		info.Sources = append(info.Sources, core.StreamSource{
			URL:     source.URL,
			Quality: source.Quality.String(),
			IsM3U8:  source.IsM3U8,
		})
	}
	for _, sub := range payload.Subtitles {
		info.Subtitles = append(info.Subtitles, core.Subtitle{URL: sub.URL, Lang: sub.Lang})
	}
	return info, nil
}

// TopAiring lists the shows currently airing on gogoanime.
func (c *Consumet) TopAiring(ctx context.Context) ([]core.Anime, error) {
	return c.list(ctx, "/anime/gogoanime/top-airing")
}

// Recent lists the most recently released episodes on gogoanime.
func (c *Consumet) Recent(ctx context.Context) ([]core.Anime, error) {
	return c.list(ctx, "/anime/gogoanime/recent-episodes")
}

func (c *Consumet) list(ctx context.Context, endpoint string) ([]core.Anime, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	var payload consumetList
	if err := c.Cache.GetJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	results := make([]core.Anime, 0, len(payload.Results))
	for _, item := range payload.Results {
		anime := core.Anime{
			ID:       item.ID,
			Provider: ProviderGogoanime,
			Title:    item.Title.String(),
			Type:     item.Type,
			Year:     item.ReleaseDate.String(),
			Genres:   item.Genres,
			Image:    item.Image,
			Status:   statusOrDefault(item.Status),
		}
		if item.EpisodeNumber > 0 {
			anime.Episodes = int(item.EpisodeNumber)
		}
		results = append(results, Normalize(anime))
	}
	return results, nil
}

func (c *Consumet) check() error {
	if c == nil || c.Cache == nil {
		return errors.New("consumet client is not configured")
	}
	return nil
}

func providerOrDefault(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return ProviderGogoanime
	}
	return provider
}

func statusOrDefault(status string) string {
	if strings.TrimSpace(status) == "" {
		return DefaultStatus
	}
	return status
}

func segmentOrNil(segment *core.Segment) *core.Segment {
	if segment == nil || (segment.Start == 0 && segment.End == 0) {
		return nil
	}
	return segment
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// notFound folds upstream 404s into core.ErrNotFound while keeping the
// original error reachable.
func notFound(err error) error {
	if fetch.StatusCode(err) == http.StatusNotFound {
		return fmt.Errorf("%w: %w", core.ErrNotFound, err)
	}
	return err
}
