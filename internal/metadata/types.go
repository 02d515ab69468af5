package metadata

import (
	"strings"

	"github.com/cinecouple/cinecouple/internal/metadata/tmdb"
)

// Scope restricts a content search to movies, series or both.
type Scope string

const (
	ScopeMovie  Scope = "movie"
	ScopeSeries Scope = "series"
	ScopeAll    Scope = "all"
)

// ParseScope accepts movie, series (or tv) and all. Anything else means all.
func ParseScope(s string) Scope {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie":
		return ScopeMovie
	case "series", "tv":
		return ScopeSeries
	default:
		return ScopeAll
	}
}

// MediaTypeForScope maps a single-type scope to the TMDB media type.
func MediaTypeForScope(s Scope) string {
	switch s {
	case ScopeMovie:
		return tmdb.MediaTypeMovie
	case ScopeSeries:
		return tmdb.MediaTypeTV
	default:
		return tmdb.MediaTypeAll
	}
}

// ParseMediaType accepts movie, tv or series and returns the TMDB media type.
func ParseMediaType(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie":
		return tmdb.MediaTypeMovie, nil
	case "tv", "series":
		return tmdb.MediaTypeTV, nil
	default:
		return "", ErrInvalidMediaType
	}
}

// Discover categories.
const (
	CategoryTrending = "trending"
	CategoryPopular  = "popular"
)

// discoverSearchLimit caps query-driven discover results.
const discoverSearchLimit = 20

// DiscoverOptions drives Discover. A non-empty Query turns discover into a
// capped search; otherwise Category picks trending (weekly) or popular lists.
type DiscoverOptions struct {
	Query    string
	Scope    Scope
	Category string
	Page     int
}

// ProviderStatus reports whether the catalog provider is usable.
type ProviderStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Reachable  bool   `json:"reachable"`
	Error      string `json:"error,omitempty"`
}
