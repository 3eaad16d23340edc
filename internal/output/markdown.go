package output

import (
	"fmt"
	"strings"

	"github.com/animeverse/animeverse/internal/core"
)

// MarkdownFormatter renders results as markdown tables.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) FormatList(title string, items []core.Anime) (string, error) {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdownCell(title)))
	}
	if len(items) == 0 {
		sb.WriteString("_No anime found._\n")
		return sb.String(), nil
	}

	sb.WriteString("| # | Title | Provider | ID | Type | Year | Score |\n")
	sb.WriteString("|---|-------|----------|----|------|------|-------|\n")
	for i, a := range items {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s |\n",
			i+1,
			escapeMarkdownCell(a.Title),
			escapeMarkdownCell(a.Provider),
			escapeMarkdownCell(a.ID),
			escapeMarkdownCell(a.Type),
			escapeMarkdownCell(a.Year),
			escapeMarkdownCell(a.Score),
		))
	}
	sb.WriteString(fmt.Sprintf("\n**Total**: %d\n", len(items)))
	return sb.String(), nil
}

func (f *MarkdownFormatter) FormatDetail(d *core.AnimeDetail) (string, error) {
	if d == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdownCell(d.Title)))
	sb.WriteString("| Field | Value |\n|-------|-------|\n")
	fields := [][2]string{
		{"ID", d.ID},
		{"Provider", d.Provider},
		{"English title", d.EnglishTitle},
		{"Type", d.Type},
		{"Year", d.Year},
		{"Status", d.Status},
		{"Score", d.Score},
		{"Episodes", episodesLabel(d.TotalEpisodes)},
		{"Genres", strings.Join(d.Genres, ", ")},
	}
	for _, field := range fields {
		if strings.TrimSpace(field[1]) == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", field[0], escapeMarkdownCell(field[1])))
	}
	sb.WriteString(renderSections(detailSections(d), true))
	return sb.String(), nil
}

func (f *MarkdownFormatter) FormatStreams(info *core.StreamInfo, best bool) (string, error) {
	if info == nil || len(info.Sources) == 0 {
		return "_No sources available._\n", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s %s\n\n", escapeMarkdownCell(info.Provider), escapeMarkdownCell(info.EpisodeID)))
	sb.WriteString("| # | Quality | Kind | URL |\n|---|---------|------|-----|\n")
	for i, s := range orderedSources(info.Sources, best) {
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n",
			i+1, escapeMarkdownCell(s.Quality), sourceKind(s), escapeMarkdownCell(s.URL)))
	}
	sb.WriteString(renderSections(streamSections(info), true))
	return sb.String(), nil
}

func (f *MarkdownFormatter) FormatWatchlist(entries []core.WatchlistEntry) (string, error) {
	var sb strings.Builder
	sb.WriteString("## Watchlist\n\n")
	if len(entries) == 0 {
		sb.WriteString("_Your watchlist is empty._\n")
		return sb.String(), nil
	}

	sb.WriteString("| Title | Provider | ID | Status | Progress |\n")
	sb.WriteString("|-------|----------|----|--------|----------|\n")
	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			escapeMarkdownCell(e.Title),
			escapeMarkdownCell(e.Provider),
			escapeMarkdownCell(e.ID),
			escapeMarkdownCell(e.WatchStatus),
			progressLabel(e),
		))
	}
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
