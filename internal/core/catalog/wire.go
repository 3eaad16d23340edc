package catalog

import (
	"github.com/animeverse/animeverse/internal/core"
)

// APIAnime is the list item shape served under /api and read back by the
// remote client.
type APIAnime struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	EnglishTitle string   `json:"english_title,omitempty"`
	Image        string   `json:"image,omitempty"`
	ReleaseDate  string   `json:"releaseDate,omitempty"`
	Year         string   `json:"year,omitempty"`
	Status       string   `json:"status,omitempty"`
	Provider     string   `json:"provider,omitempty"`
	URL          string   `json:"url,omitempty"`
	Type         string   `json:"type,omitempty"`
	Episodes     int      `json:"episodes,omitempty"`
	Score        string   `json:"score,omitempty"`
	Synopsis     string   `json:"synopsis,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	Rating       string   `json:"rating,omitempty"`
}

// APIDetail is the /api/anime response.
type APIDetail struct {
	APIAnime
	TotalEpisodes int            `json:"totalEpisodes"`
	EpisodeList   []core.Episode `json:"episodes_list"`
}

// APIList is the /api/search, /api/trending and /api/recent response.
type APIList struct {
	Query   string     `json:"query,omitempty"`
	Results []APIAnime `json:"results"`
	Total   int        `json:"total"`
}

// ToAPI converts a catalog entry to its wire shape.
func ToAPI(a core.Anime) APIAnime {
	out := APIAnime{
		ID:           a.ID,
		Title:        a.Title,
		EnglishTitle: a.EnglishTitle,
		Image:        a.Image,
		Year:         a.Year,
		Status:       a.Status,
		Provider:     a.Provider,
		URL:          a.URL,
		Type:         a.Type,
		Episodes:     a.Episodes,
		Score:        a.Score,
		Synopsis:     a.Synopsis,
		Genres:       a.Genres,
		Rating:       a.Rating,
	}
	if a.Year != DefaultYear {
		out.ReleaseDate = a.Year
	}
	return out
}

// ToAPIList converts a result list, keeping results non-nil.
func ToAPIList(query string, items []core.Anime) APIList {
	out := APIList{Query: query, Results: make([]APIAnime, 0, len(items))}
	for _, item := range items {
		out.Results = append(out.Results, ToAPI(item))
	}
	out.Total = len(out.Results)
	return out
}

// ToAPIDetail converts a detail record to its wire shape.
func ToAPIDetail(d *core.AnimeDetail) APIDetail {
	if d == nil {
		return APIDetail{EpisodeList: []core.Episode{}}
	}
	out := APIDetail{
		APIAnime:      ToAPI(d.Anime),
		TotalEpisodes: d.TotalEpisodes,
		EpisodeList:   d.EpisodeList,
	}
	if out.EpisodeList == nil {
		out.EpisodeList = []core.Episode{}
	}
	return out
}

// FromAPI maps a wire item back into a catalog entry, falling back to
// defaultProvider when the server omitted one.
func FromAPI(item APIAnime, defaultProvider string) core.Anime {
	anime := core.Anime{
		ID:           item.ID,
		Provider:     firstNonEmpty(item.Provider, defaultProvider),
		Title:        item.Title,
		EnglishTitle: item.EnglishTitle,
		Type:         item.Type,
		Episodes:     item.Episodes,
		Year:         firstNonEmpty(item.ReleaseDate, item.Year),
		Score:        item.Score,
		Synopsis:     item.Synopsis,
		Genres:       item.Genres,
		Rating:       item.Rating,
		Image:        item.Image,
		URL:          item.URL,
		Status:       item.Status,
	}
	return Normalize(anime)
}

// FromAPIDetail maps a wire detail record back into a catalog detail.
func FromAPIDetail(item APIDetail, defaultProvider string) *core.AnimeDetail {
	detail := &core.AnimeDetail{
		Anime:         FromAPI(item.APIAnime, defaultProvider),
		TotalEpisodes: item.TotalEpisodes,
		EpisodeList:   item.EpisodeList,
	}
	if detail.TotalEpisodes > 0 {
		detail.Episodes = detail.TotalEpisodes
	}
	return detail
}
