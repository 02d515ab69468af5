package matching

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput       = errors.New("invalid match input")
	ErrEmptyTitle         = fmt.Errorf("%w: title is empty", ErrInvalidInput)
	ErrInvalidContentType = fmt.Errorf("%w: content type must be movie or series", ErrInvalidInput)
)

// ContentType selects which catalog search (film or episodic) a match uses.
type ContentType string

const (
	ContentTypeMovie  ContentType = "movie"
	ContentTypeSeries ContentType = "series"
)

// Valid reports whether t is one of the supported content types.
func (t ContentType) Valid() bool {
	return t == ContentTypeMovie || t == ContentTypeSeries
}

// ParseContentType parses a content type hint, case-insensitively.
func ParseContentType(s string) (ContentType, error) {
	t := ContentType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", ErrInvalidContentType
	}
	return t, nil
}

// Candidate is one catalog search result. Only the title fields and
// VoteAverage are interpreted by the matcher; the rest is passed through.
type Candidate struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"originalTitle,omitempty"`
	Overview      string  `json:"overview,omitempty"`
	PosterPath    string  `json:"posterPath,omitempty"`
	BackdropPath  string  `json:"backdropPath,omitempty"`
	ReleaseDate   string  `json:"releaseDate,omitempty"`
	VoteAverage   float64 `json:"voteAverage"`
}

// DisplayTitle returns the primary title, falling back to the alternate name.
func (c Candidate) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return c.OriginalTitle
}

// ScoredCandidate is a candidate with its blended score in [0,1].
type ScoredCandidate struct {
	Candidate
	Score float64 `json:"score"`
}

// MatchDecision is the outcome of FindBestMatch. Candidate is set only when Matched.
//
// Searched and Failed count the query variants issued and the ones whose
// catalog call errored. They do not affect Matched; callers use them to tell
// a provider outage apart from a genuine miss.
type MatchDecision struct {
	Matched     bool        `json:"matched"`
	Candidate   *Candidate  `json:"candidate,omitempty"`
	ContentType ContentType `json:"contentType"`
	Score       float64     `json:"score,omitempty"`
	Searched    int         `json:"searched"`
	Failed      int         `json:"failed"`
}

// CatalogUnavailable reports whether every search behind the decision failed.
func (d MatchDecision) CatalogUnavailable() bool {
	return d.Searched > 0 && d.Failed == d.Searched
}
