package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/animeverse/animeverse/internal/core"
	"github.com/animeverse/animeverse/internal/core/fetch"
)

// DefaultJikanURL is the public Jikan (MyAnimeList) API.
const DefaultJikanURL = "https://api.jikan.moe/v4"

// Jikan is the metadata fallback used when Consumet has nothing to offer.
type Jikan struct {
	Cache *fetch.Cache
}

// NewJikan returns a client issuing every request through cache.
func NewJikan(cache *fetch.Cache) *Jikan {
	if cache != nil && cache.BaseURL == "" {
		cache.BaseURL = DefaultJikanURL
	}
	return &Jikan{Cache: cache}
}

type jikanItem struct {
	MalID  int    `json:"mal_id"`
	URL    string `json:"url"`
	Images struct {
		JPG struct {
			ImageURL      string `json:"image_url"`
			LargeImageURL string `json:"large_image_url"`
		} `json:"jpg"`
	} `json:"images"`
	Title        string   `json:"title"`
	TitleEnglish string   `json:"title_english"`
	Type         string   `json:"type"`
	Episodes     *int     `json:"episodes"`
	Status       string   `json:"status"`
	Score        *float64 `json:"score"`
	Synopsis     string   `json:"synopsis"`
	Rating       string   `json:"rating"`
	Aired        struct {
		From string `json:"from"`
	} `json:"aired"`
	Genres []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

type jikanList struct {
	Data []jikanItem `json:"data"`
}

type jikanSingle struct {
	Data *jikanItem `json:"data"`
}

// Search returns the best-scored matches for query.
func (j *Jikan) Search(ctx context.Context, query string) ([]core.Anime, error) {
	if err := j.check(); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query is required")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "20")
	params.Set("order_by", "score")
	params.Set("sort", "desc")

	var payload jikanList
	if err := j.Cache.GetJSON(ctx, "/anime?"+params.Encode(), &payload); err != nil {
		return nil, err
	}
	return j.mapList(payload.Data, 0), nil
}

// Anime returns the detail record for a MyAnimeList id.
func (j *Jikan) Anime(ctx context.Context, id string) (*core.AnimeDetail, error) {
	if err := j.check(); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("anime id is required")
	}

	var payload jikanSingle
	if err := j.Cache.GetJSON(ctx, "/anime/"+url.PathEscape(id), &payload); err != nil {
		return nil, notFound(err)
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("%w: %s/%s", core.ErrNotFound, ProviderJikan, id)
	}

	anime := j.mapItem(*payload.Data)
	detail := &core.AnimeDetail{Anime: anime, TotalEpisodes: anime.Episodes}
	return detail, nil
}

// SeasonNow lists the shows airing this season, capped at limit when positive.
func (j *Jikan) SeasonNow(ctx context.Context, limit int) ([]core.Anime, error) {
	if err := j.check(); err != nil {
		return nil, err
	}

	var payload jikanList
	if err := j.Cache.GetJSON(ctx, "/seasons/now", &payload); err != nil {
		return nil, err
	}
	return j.mapList(payload.Data, limit), nil
}

func (j *Jikan) mapList(items []jikanItem, limit int) []core.Anime {
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	results := make([]core.Anime, 0, len(items))
	for _, item := range items {
		results = append(results, j.mapItem(item))
	}
	return results
}

func (j *Jikan) mapItem(item jikanItem) core.Anime {
	id := strconv.Itoa(item.MalID)
	anime := core.Anime{
		ID:           id,
		Provider:     ProviderJikan,
		Title:        item.Title,
		EnglishTitle: item.TitleEnglish,
		Type:         item.Type,
		Year:         YearOf(item.Aired.From),
		Synopsis:     item.Synopsis,
		Rating:       item.Rating,
		Image:        firstNonEmpty(item.Images.JPG.LargeImageURL, item.Images.JPG.ImageURL),
		Status:       statusOrDefault(item.Status),
		URL:          fmt.Sprintf("/anime/%s/%s", ProviderJikan, id),
	}
	if item.Episodes != nil {
		anime.Episodes = *item.Episodes
	}
	if item.Score != nil && *item.Score > 0 {
		anime.Score = strconv.FormatFloat(*item.Score, 'f', -1, 64)
	}
	for _, genre := range item.Genres {
		if genre.Name != "" {
			anime.Genres = append(anime.Genres, genre.Name)
		}
	}
	return Normalize(anime)
}

func (j *Jikan) check() error {
	if j == nil || j.Cache == nil {
		return errors.New("jikan client is not configured")
	}
	return nil
}
