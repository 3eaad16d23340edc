package output

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/animeverse/animeverse/internal/core"
	"github.com/animeverse/animeverse/internal/core/catalog"
)

const synopsisWidth = 280

type section struct {
	Title string
	Lines []string
}

func episodesLabel(n int) string {
	if n <= 0 {
		return "?"
	}
	return fmt.Sprintf("%d", n)
}

func progressLabel(e core.WatchlistEntry) string {
	total := e.TotalEpisodes
	if total <= 0 {
		total = e.Episodes
	}
	return fmt.Sprintf("%d/%s", e.CurrentEpisode, episodesLabel(total))
}

func sourceKind(s core.StreamSource) string {
	if s.IsM3U8 {
		return "hls"
	}
	return "direct"
}

// orderedSources puts the preferred source first when best is set.
func orderedSources(sources []core.StreamSource, best bool) []core.StreamSource {
	if !best || len(sources) == 0 {
		return sources
	}
	pick, ok := catalog.BestSource(sources)
	if !ok {
		return sources
	}
	out := make([]core.StreamSource, 0, len(sources))
	out = append(out, pick)
	skipped := false
	for _, s := range sources {
		if !skipped && s == pick {
			skipped = true
			continue
		}
		out = append(out, s)
	}
	return out
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	if utf8.RuneCountInString(value) <= width {
		return value
	}
	runes := []rune(value)
	return strings.TrimSpace(string(runes[:width-1])) + "…"
}

func detailSections(d *core.AnimeDetail) []section {
	sections := make([]section, 0, 2)
	if synopsis := strings.TrimSpace(d.Synopsis); synopsis != "" {
		sections = append(sections, section{Title: "Synopsis", Lines: []string{truncate(synopsis, synopsisWidth)}})
	}
	if len(d.EpisodeList) > 0 {
		lines := make([]string, 0, len(d.EpisodeList))
		for _, ep := range d.EpisodeList {
			lines = append(lines, fmt.Sprintf("%d  %s", ep.Number, ep.ID))
		}
		sections = append(sections, section{Title: "Episodes", Lines: lines})
	}
	return sections
}

func streamSections(info *core.StreamInfo) []section {
	var lines []string
	if info.Intro != nil {
		lines = append(lines, fmt.Sprintf("intro %ds-%ds", info.Intro.Start, info.Intro.End))
	}
	if info.Outro != nil {
		lines = append(lines, fmt.Sprintf("outro %ds-%ds", info.Outro.Start, info.Outro.End))
	}
	for _, sub := range info.Subtitles {
		lines = append(lines, fmt.Sprintf("subtitle %s %s", sub.Lang, sub.URL))
	}
	if len(lines) == 0 {
		return nil
	}
	return []section{{Title: "Extras", Lines: lines}}
}

func renderSections(sections []section, markdown bool) string {
	if len(sections) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, s := range sections {
		if i > 0 {
			sb.WriteString("\n")
		}
		if markdown {
			sb.WriteString(fmt.Sprintf("\n\n### %s\n", s.Title))
			for _, line := range s.Lines {
				sb.WriteString(fmt.Sprintf("- %s\n", escapeMarkdownCell(line)))
			}
		} else {
			sb.WriteString(fmt.Sprintf("\n\n%s:\n", s.Title))
			for _, line := range s.Lines {
				sb.WriteString(fmt.Sprintf("  %s\n", line))
			}
		}
	}
	return sb.String()
}
