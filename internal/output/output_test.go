package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/animeverse/animeverse/internal/core"
)

func sampleList() []core.Anime {
	return []core.Anime{
		{ID: "frieren", Provider: "gogoanime", Title: "Frieren", Type: "TV", Year: "2023", Score: "9.3", Episodes: 28},
		{ID: "mushishi", Provider: "zoro", Title: "Mushi|shi", Type: "TV", Year: "2005", Score: "8.7"},
	}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("table")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	format, err = ParseFormat("md")
	require.NoError(t, err)
	require.Equal(t, FormatMarkdown, format)

	format, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	_, err = ParseFormat("csv")
	require.Error(t, err)
}

func TestFormatList(t *testing.T) {
	tableRendered, err := NewFormatter(FormatTable).FormatList("Trending", sampleList())
	require.NoError(t, err)
	require.Contains(t, tableRendered, "TITLE")
	require.Contains(t, tableRendered, "Frieren")
	require.Contains(t, strings.ToLower(tableRendered), "2 results")

	jsonRendered, err := NewFormatter(FormatJSON).FormatList("Trending", sampleList())
	require.NoError(t, err)
	var list struct {
		Results []map[string]any `json:"results"`
		Total   int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(jsonRendered), &list))
	require.Equal(t, 2, list.Total)
	require.Equal(t, "2023", list.Results[0]["releaseDate"])

	markdownRendered, err := NewFormatter(FormatMarkdown).FormatList("Trending", sampleList())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(markdownRendered, "## Trending"))
	require.Contains(t, markdownRendered, "Mushi\\|shi")
}

func TestEmptyStates(t *testing.T) {
	rendered, err := NewFormatter(FormatTable).FormatList("Recent", nil)
	require.NoError(t, err)
	require.Contains(t, rendered, "No anime found")

	rendered, err = NewFormatter(FormatTable).FormatWatchlist(nil)
	require.NoError(t, err)
	require.Contains(t, rendered, "Your watchlist is empty")

	rendered, err = NewFormatter(FormatJSON).FormatWatchlist(nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"watchlist":[],"total":0}`, rendered)

	rendered, err = NewFormatter(FormatJSON).FormatList("", nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"results":[],"total":0}`, rendered)
}

func TestFormatDetail(t *testing.T) {
	detail := &core.AnimeDetail{
		Anime: core.Anime{
			ID: "frieren", Provider: "gogoanime", Title: "Frieren",
			Synopsis: "An elf mage   outlives her party.", Genres: []string{"Adventure", "Fantasy"},
		},
		TotalEpisodes: 2,
		EpisodeList: []core.Episode{
			{ID: "frieren-episode-1", Number: 1},
			{ID: "frieren-episode-2", Number: 2},
		},
	}

	rendered, err := NewFormatter(FormatTable).FormatDetail(detail)
	require.NoError(t, err)
	require.Contains(t, rendered, "Adventure, Fantasy")
	require.Contains(t, rendered, "Synopsis:")
	require.Contains(t, rendered, "An elf mage outlives her party.")
	require.Contains(t, rendered, "2  frieren-episode-2")

	rendered, err = NewFormatter(FormatMarkdown).FormatDetail(detail)
	require.NoError(t, err)
	require.Contains(t, rendered, "### Episodes")
	require.Contains(t, rendered, "- 1  frieren-episode-1")

	rendered, err = NewFormatter(FormatJSON).FormatDetail(detail)
	require.NoError(t, err)
	require.Contains(t, rendered, `"episodes_list"`)
}

func TestFormatStreamsBestFirst(t *testing.T) {
	info := &core.StreamInfo{
		Provider:  "gogoanime",
		EpisodeID: "frieren-episode-1",
		Sources: []core.StreamSource{
			{URL: "https://cdn.example/480.mp4", Quality: "480p"},
			{URL: "https://cdn.example/master.m3u8", Quality: "auto", IsM3U8: true},
		},
		Intro: &core.Segment{Start: 0, End: 90},
	}

	rendered, err := NewFormatter(FormatJSON).FormatStreams(info, true)
	require.NoError(t, err)
	var decoded core.StreamInfo
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	require.Len(t, decoded.Sources, 2)
	require.True(t, decoded.Sources[0].IsM3U8)
	require.Equal(t, "480p", info.Sources[0].Quality, "input order must not change")

	rendered, err = NewFormatter(FormatJSON).FormatStreams(info, false)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	require.Equal(t, "480p", decoded.Sources[0].Quality)

	rendered, err = NewFormatter(FormatTable).FormatStreams(info, true)
	require.NoError(t, err)
	require.Contains(t, rendered, "hls")
	require.Contains(t, rendered, "intro 0s-90s")
	require.Less(t, strings.Index(rendered, "master.m3u8"), strings.Index(rendered, "480.mp4"))

	rendered, err = NewFormatter(FormatTable).FormatStreams(&core.StreamInfo{}, true)
	require.NoError(t, err)
	require.Contains(t, rendered, "No sources available")
}

func TestFormatWatchlist(t *testing.T) {
	entries := []core.WatchlistEntry{
		{
			Anime:          core.Anime{ID: "frieren", Provider: "gogoanime", Title: "Frieren", Episodes: 28},
			CurrentEpisode: 3,
			WatchStatus:    core.WatchStatusWatching,
			AddedAt:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
	}

	rendered, err := NewFormatter(FormatTable).FormatWatchlist(entries)
	require.NoError(t, err)
	require.Contains(t, rendered, "3/28")
	require.Contains(t, rendered, "2026-01-02")
	require.Contains(t, strings.ToLower(rendered), "1 shows")

	rendered, err = NewFormatter(FormatMarkdown).FormatWatchlist(entries)
	require.NoError(t, err)
	require.Contains(t, rendered, "| Frieren | gogoanime | frieren | watching | 3/28 |")
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "abcd…", truncate("abcdefghij", 5))
}
