package core

import (
	"errors"
	"time"
)

// ErrNotFound reports that the catalog has no record for the requested item.
var ErrNotFound = errors.New("not found")

// Anime is a catalog entry as shown in result lists.
type Anime struct {
	ID           string   `json:"id"`
	Provider     string   `json:"provider"`
	Title        string   `json:"title"`
	EnglishTitle string   `json:"englishTitle,omitempty"`
	Type         string   `json:"type,omitempty"`
	Episodes     int      `json:"episodes,omitempty"`
	Year         string   `json:"year,omitempty"`
	Score        string   `json:"score,omitempty"`
	Synopsis     string   `json:"synopsis,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	Rating       string   `json:"rating,omitempty"`
	Image        string   `json:"image,omitempty"`
	URL          string   `json:"url,omitempty"`
	Status       string   `json:"status,omitempty"`
}

// Episode identifies one playable episode of a show.
type Episode struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	URL    string `json:"url,omitempty"`
}

// AnimeDetail is the full record returned by an info lookup.
type AnimeDetail struct {
	Anime
	TotalEpisodes int       `json:"totalEpisodes,omitempty"`
	EpisodeList   []Episode `json:"episodes_list,omitempty"`
}

// StreamSource is one candidate video URL for an episode.
type StreamSource struct {
	URL     string `json:"url"`
	Quality string `json:"quality,omitempty"`
	IsM3U8  bool   `json:"isM3U8"`
}

// Subtitle is a subtitle track offered alongside a stream.
type Subtitle struct {
	URL  string `json:"url"`
	Lang string `json:"lang,omitempty"`
}

// Segment marks an intro or outro range in seconds.
type Segment struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// StreamInfo lists the sources available for one episode.
type StreamInfo struct {
	Provider  string         `json:"provider"`
	EpisodeID string         `json:"episodeId,omitempty"`
	Sources   []StreamSource `json:"sources"`
	Subtitles []Subtitle     `json:"subtitles,omitempty"`
	Intro     *Segment       `json:"intro,omitempty"`
	Outro     *Segment       `json:"outro,omitempty"`
}

// SearchResult wraps a result list with the query that produced it.
type SearchResult struct {
	Query   string  `json:"query,omitempty"`
	Results []Anime `json:"results"`
	Total   int     `json:"total"`
}

// Watchlist statuses.
const (
	WatchStatusWatching  = "watching"
	WatchStatusCompleted = "completed"
	WatchStatusPlanned   = "planned"
	WatchStatusDropped   = "dropped"
)

// WatchlistEntry is a saved show plus viewing progress.
type WatchlistEntry struct {
	Anime
	CurrentEpisode int       `json:"currentEpisode"`
	TotalEpisodes  int       `json:"totalEpisodes,omitempty"`
	WatchStatus    string    `json:"watchStatus"`
	AddedAt        time.Time `json:"addedAt"`
}
