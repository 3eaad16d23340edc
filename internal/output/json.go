package output

import (
	"encoding/json"

	"github.com/animeverse/animeverse/internal/core"
	"github.com/animeverse/animeverse/internal/core/catalog"
)

// JSONFormatter renders results in the same shapes the HTTP API serves.
type JSONFormatter struct {
	Indent bool
}

func (f *JSONFormatter) FormatList(_ string, items []core.Anime) (string, error) {
	return f.marshal(catalog.ToAPIList("", items))
}

func (f *JSONFormatter) FormatDetail(d *core.AnimeDetail) (string, error) {
	if d == nil {
		return "", nil
	}
	return f.marshal(catalog.ToAPIDetail(d))
}

// FormatStreams emits the stream info with the preferred source first when
// best is set.
func (f *JSONFormatter) FormatStreams(info *core.StreamInfo, best bool) (string, error) {
	if info == nil {
		return "", nil
	}
	ordered := *info
	ordered.Sources = orderedSources(info.Sources, best)
	if ordered.Sources == nil {
		ordered.Sources = []core.StreamSource{}
	}
	return f.marshal(ordered)
}

func (f *JSONFormatter) FormatWatchlist(entries []core.WatchlistEntry) (string, error) {
	if entries == nil {
		entries = []core.WatchlistEntry{}
	}
	return f.marshal(map[string]any{"watchlist": entries, "total": len(entries)})
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
