package watchlist

import (
	"time"
)

// Platform is the streaming service a title is watched on.
type Platform string

const (
	PlatformNetflix Platform = "netflix"
	PlatformDisney  Platform = "disney"
	PlatformHBO     Platform = "hbo"
)

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformNetflix, PlatformDisney, PlatformHBO:
		return true
	}
	return false
}

// ContentType distinguishes movies from series.
type ContentType string

const (
	TypeMovie  ContentType = "movie"
	TypeSeries ContentType = "series"
)

// Valid reports whether t is a supported content type.
func (t ContentType) Valid() bool {
	return t == TypeMovie || t == TypeSeries
}

// Status is where a title sits in the couple's queue.
type Status string

const (
	StatusWatchlist Status = "watchlist"
	StatusWatched   Status = "watched"
	StatusAbandoned Status = "abandoned"
)

// Valid reports whether s is a supported status.
func (s Status) Valid() bool {
	switch s {
	case StatusWatchlist, StatusWatched, StatusAbandoned:
		return true
	}
	return false
}

// filterAll disables a filter dimension.
const filterAll = "all"

// Movie is a watchlist record. Series are stored in the same table.
type Movie struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	Title     string      `json:"title"`
	Platform  Platform    `json:"platform"`
	Type      ContentType `json:"type"`
	Status    Status      `json:"status"`
	Rating    *int        `json:"rating"`
	AddedAt   time.Time   `json:"addedAt"`
	WatchedAt *time.Time  `json:"watchedAt"`

	// TMDB enrichment
	TmdbID       *int       `json:"tmdbId"`
	PosterPath   string     `json:"posterPath,omitempty"`
	BackdropPath string     `json:"backdropPath,omitempty"`
	Overview     string     `json:"overview,omitempty"`
	TmdbRating   *float64   `json:"tmdbRating"`
	ReleaseYear  *int       `json:"releaseYear"`
	Genres       []string   `json:"genres"`
	Runtime      *int       `json:"runtime"`
	EnrichedAt   *time.Time `json:"enrichedAt"`
}

// IsEnriched reports whether TMDB data has been applied.
func (m *Movie) IsEnriched() bool {
	return m.EnrichedAt != nil
}

// CreateInput contains fields for creating a record.
type CreateInput struct {
	Title    string      `json:"title"`
	Platform Platform    `json:"platform"`
	Type     ContentType `json:"type"`
	Status   Status      `json:"status"`
	Rating   *int        `json:"rating"`

	// Set when the record is created straight from a TMDB title.
	Enrichment *Enrichment `json:"-"`
}

// UpdateInput contains fields for a partial update. Nil fields are left
// unchanged; ClearRating removes the rating.
type UpdateInput struct {
	Title       *string      `json:"title,omitempty"`
	Platform    *Platform    `json:"platform,omitempty"`
	Type        *ContentType `json:"type,omitempty"`
	Status      *Status      `json:"status,omitempty"`
	Rating      *int         `json:"rating,omitempty"`
	ClearRating bool         `json:"clearRating,omitempty"`
	WatchedAt   *time.Time   `json:"watchedAt,omitempty"`
}

// Filters narrows List and Random. Empty or "all" disables a dimension.
type Filters struct {
	Platform string `query:"platform"`
	Type     string `query:"type"`
	Status   string `query:"status"`
	Search   string `query:"search"`
}

// Stats summarizes a user's watchlist.
type Stats struct {
	Total         int              `json:"total"`
	Watched       int              `json:"watched"`
	Watchlist     int              `json:"watchlist"`
	Abandoned     int              `json:"abandoned"`
	ByPlatform    map[Platform]int `json:"byPlatform"`
	AverageRating *float64         `json:"averageRating"`
}

// Enrichment is the TMDB data applied to a record.
type Enrichment struct {
	TmdbID       int
	PosterPath   string
	BackdropPath string
	Overview     string
	TmdbRating   float64
	ReleaseYear  int
	Genres       []string
	Runtime      int
}
