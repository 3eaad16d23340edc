// Package catalog talks to the upstream anime catalogs and normalizes their
// payloads into core types.
package catalog

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/animeverse/animeverse/internal/core"
)

const (
	ProviderGogoanime = "gogoanime"
	ProviderJikan     = "jikan"

	DefaultType   = "Anime"
	DefaultYear   = "Unknown"
	DefaultScore  = "N/A"
	DefaultStatus = "Unknown"
)

var placeholderPalette = []string{"ff6b6b", "4ecdc4", "45b7d1", "96ceb4", "ffeaa7", "fd79a8", "fdcb6e"}

var m3u8Pattern = regexp.MustCompile(`(?i)m3u8`)

// Normalize fills the display defaults every surface relies on.
func Normalize(a core.Anime) core.Anime {
	a.Title = strings.TrimSpace(a.Title)
	if a.EnglishTitle == "" {
		a.EnglishTitle = a.Title
	}
	if a.Type == "" {
		a.Type = DefaultType
	}
	if a.Year == "" {
		a.Year = DefaultYear
	}
	if a.Score == "" {
		a.Score = DefaultScore
	}
	if a.Image == "" {
		a.Image = PlaceholderImage(a.Title)
	}
	if a.URL == "" && a.Provider != "" && a.ID != "" {
		a.URL = fmt.Sprintf("/anime/%s/%s", a.Provider, a.ID)
	}
	return a
}

// PlaceholderImage returns a deterministic cover URL for title. The colour is
// picked by a 32-bit string hash over UTF-16 code units.
func PlaceholderImage(title string) string {
	var hash int32
	for _, unit := range utf16.Encode([]rune(title)) {
		hash = (hash << 5) - hash + int32(unit)
	}
	index := int64(hash)
	if index < 0 {
		index = -index
	}
	color := placeholderPalette[index%int64(len(placeholderPalette))]

	label := []rune(title)
	if len(label) > 20 {
		label = label[:20]
	}
	return fmt.Sprintf("https://via.placeholder.com/400x600/%s/ffffff?text=%s", color, encodeComponent(string(label)))
}

// BestSource prefers HLS playlists, then anything whose quality label mentions
// m3u8, then the first source.
func BestSource(sources []core.StreamSource) (core.StreamSource, bool) {
	if len(sources) == 0 {
		return core.StreamSource{}, false
	}
	for _, source := range sources {
		if source.IsM3U8 {
			return source, true
		}
	}
	for _, source := range sources {
		if m3u8Pattern.MatchString(source.Quality) {
			return source, true
		}
	}
	return sources[0], true
}

// YearOf returns the leading year component of a release date.
func YearOf(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return ""
	}
	year, _, _ := strings.Cut(date, "-")
	return year
}

// TitleKey is the de-duplication key for search results.
func TitleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// uriComponentReplacer restores the characters encodeURIComponent leaves
// bare after url.QueryEscape.
var uriComponentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func encodeComponent(value string) string {
	return uriComponentReplacer.Replace(url.QueryEscape(value))
}

// flexString decodes upstream fields that arrive as strings, numbers or
// localized title objects.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch value := raw.(type) {
	case nil:
		*f = ""
	case string:
		*f = flexString(value)
	case float64:
		*f = flexString(strconv.FormatFloat(value, 'f', -1, 64))
	case bool:
		*f = flexString(strconv.FormatBool(value))
	case map[string]any:
		for _, key := range []string{"english", "romaji", "userPreferred", "native"} {
			if s, ok := value[key].(string); ok && s != "" {
				*f = flexString(s)
				return nil
			}
		}
		*f = ""
	default:
		*f = ""
	}
	return nil
}

func (f flexString) String() string {
	return string(f)
}
