package output

import (
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/animeverse/animeverse/internal/core"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatList renders search, trending and recent results.
func (f *TableFormatter) FormatList(title string, items []core.Anime) (string, error) {
	if len(items) == 0 {
		return emptyBox(title, "No anime found"), nil
	}

	t := newTable()
	if title != "" {
		t.SetTitle(title)
	}
	t.AppendHeader(table.Row{"#", "Title", "Provider", "ID", "Type", "Year", "Score", "Eps"})
	for i, a := range items {
		t.AppendRow(table.Row{i + 1, a.Title, a.Provider, a.ID, a.Type, a.Year, a.Score, episodesLabel(a.Episodes)})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d results", len(items))})
	return t.Render(), nil
}

// FormatDetail renders a single show with its episode list.
func (f *TableFormatter) FormatDetail(d *core.AnimeDetail) (string, error) {
	if d == nil {
		return "", nil
	}

	t := newTable()
	t.SetTitle(d.Title)
	rows := []table.Row{
		{"ID", d.ID},
		{"Provider", d.Provider},
		{"English title", d.EnglishTitle},
		{"Type", d.Type},
		{"Year", d.Year},
		{"Status", d.Status},
		{"Score", d.Score},
		{"Episodes", episodesLabel(d.TotalEpisodes)},
	}
	if len(d.Genres) > 0 {
		rows = append(rows, table.Row{"Genres", strings.Join(d.Genres, ", ")})
	}
	t.AppendRows(rows)

	return t.Render() + renderSections(detailSections(d), false), nil
}

// FormatStreams lists the sources for an episode. With best set the
// preferred source is listed first.
func (f *TableFormatter) FormatStreams(info *core.StreamInfo, best bool) (string, error) {
	if info == nil || len(info.Sources) == 0 {
		return emptyBox("Streams", "No sources available"), nil
	}

	t := newTable()
	t.SetTitle(fmt.Sprintf("%s %s", info.Provider, info.EpisodeID))
	t.AppendHeader(table.Row{"#", "Quality", "Kind", "URL"})
	for i, s := range orderedSources(info.Sources, best) {
		t.AppendRow(table.Row{i + 1, s.Quality, sourceKind(s), s.URL})
	}
	return t.Render() + renderSections(streamSections(info), false), nil
}

// FormatWatchlist renders saved shows with viewing progress.
func (f *TableFormatter) FormatWatchlist(entries []core.WatchlistEntry) (string, error) {
	if len(entries) == 0 {
		return emptyBox("Watchlist", "Your watchlist is empty"), nil
	}

	t := newTable()
	t.AppendHeader(table.Row{"Title", "Provider", "ID", "Status", "Progress", "Added"})
	for _, e := range entries {
		added := ""
		if !e.AddedAt.IsZero() {
			added = e.AddedAt.Format("2006-01-02")
		}
		t.AppendRow(table.Row{e.Title, e.Provider, e.ID, e.WatchStatus, progressLabel(e), added})
	}
	t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("%d shows", len(entries)), ""})
	return t.Render(), nil
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	return t
}

func emptyBox(title, message string) string {
	lines := []string{message}
	if title != "" {
		lines = []string{title, "", message}
	}
	return ascii.DrawBox(strings.Join(lines, "\n"), 0)
}
