// Package enrichment applies catalog match decisions to watchlist records.
package enrichment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cinecouple/cinecouple/internal/matching"
	"github.com/cinecouple/cinecouple/internal/metadata"
	"github.com/cinecouple/cinecouple/internal/metadata/tmdb"
	"github.com/cinecouple/cinecouple/internal/progress"
	"github.com/cinecouple/cinecouple/internal/watchlist"
)

// Failure reasons reported per record.
const (
	ReasonNoMatch            = "no good match found"
	ReasonCatalogUnavailable = "catalog unavailable"
)

var ErrNoMatch = errors.New(ReasonNoMatch)

// Store is the watchlist subset enrichment needs.
type Store interface {
	Get(ctx context.Context, userID, id string) (*watchlist.Movie, error)
	GetByTMDBID(ctx context.Context, userID string, tmdbID int) (*watchlist.Movie, error)
	ListUnenriched(ctx context.Context, userID string) ([]*watchlist.Movie, error)
	ApplyEnrichment(ctx context.Context, userID, id string, e watchlist.Enrichment) (*watchlist.Movie, error)
	Create(ctx context.Context, userID string, input watchlist.CreateInput) (*watchlist.Movie, error)
}

// Matcher finds the catalog entry for a stored title.
type Matcher interface {
	FindBestMatch(ctx context.Context, title string, contentType matching.ContentType) (matching.MatchDecision, error)
}

// Details fetches full catalog records.
type Details interface {
	GetDetails(ctx context.Context, id int, mediaType string) (*tmdb.NormalizedDetails, error)
}

// Outcome is the result for one record.
type Outcome struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	TmdbID     int    `json:"tmdbId,omitempty"`
	PosterPath string `json:"posterPath,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// Report summarizes an enrichment pass.
type Report struct {
	Enriched int           `json:"enriched"`
	Failed   int           `json:"failed"`
	Details  ReportDetails `json:"details"`
}

// ReportDetails lists per-record outcomes.
type ReportDetails struct {
	Enriched []Outcome `json:"enriched"`
	Failed   []Outcome `json:"failed"`
}

func newReport() *Report {
	return &Report{Details: ReportDetails{Enriched: []Outcome{}, Failed: []Outcome{}}}
}

func (r *Report) add(o Outcome, err error) {
	if err != nil {
		r.Failed++
		r.Details.Failed = append(r.Details.Failed, o)
		return
	}
	r.Enriched++
	r.Details.Enriched = append(r.Details.Enriched, o)
}

// Service enriches watchlist records with TMDB data.
type Service struct {
	store    Store
	matcher  Matcher
	details  Details
	progress *progress.Manager
	logger   zerolog.Logger
}

// NewService creates a new enrichment service. activities may be nil.
func NewService(store Store, matcher Matcher, details Details, activities *progress.Manager, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		matcher:  matcher,
		details:  details,
		progress: activities,
		logger:   logger.With().Str("component", "enrichment").Logger(),
	}
}

// Match runs the matcher without storing anything.
func (s *Service) Match(ctx context.Context, title string, contentType matching.ContentType) (matching.MatchDecision, error) {
	return s.matcher.FindBestMatch(ctx, title, contentType)
}

// EnrichMovie matches one record by title and applies the catalog details.
// When no match is found the returned error is ErrNoMatch and the outcome
// carries the reason.
func (s *Service) EnrichMovie(ctx context.Context, userID, movieID string) (Outcome, error) {
	movie, err := s.store.Get(ctx, userID, movieID)
	if err != nil {
		return Outcome{ID: movieID, Reason: err.Error()}, err
	}
	return s.enrich(ctx, userID, movie)
}

func (s *Service) enrich(ctx context.Context, userID string, movie *watchlist.Movie) (Outcome, error) {
	outcome := Outcome{ID: movie.ID, Title: movie.Title}

	contentType := matching.ContentTypeMovie
	if movie.Type == watchlist.TypeSeries {
		contentType = matching.ContentTypeSeries
	}

	decision, err := s.matcher.FindBestMatch(ctx, movie.Title, contentType)
	if err != nil {
		outcome.Reason = err.Error()
		return outcome, err
	}
	if !decision.Matched {
		outcome.Reason = ReasonNoMatch
		if decision.CatalogUnavailable() {
			outcome.Reason = ReasonCatalogUnavailable
		}
		s.logger.Info().Str("id", movie.ID).Str("title", movie.Title).Str("reason", outcome.Reason).Msg("No match")
		return outcome, ErrNoMatch
	}

	s.logger.Debug().
		Str("title", movie.Title).
		Int("tmdbId", decision.Candidate.ID).
		Float64("score", decision.Score).
		Msg("Matched title")

	return s.apply(ctx, userID, movie, decision.Candidate.ID, metadata.MediaTypeFor(contentType))
}

// EnrichWithTMDBID applies a chosen TMDB title to a record, bypassing matching.
func (s *Service) EnrichWithTMDBID(ctx context.Context, userID, movieID string, tmdbID int, mediaType string) (Outcome, error) {
	movie, err := s.store.Get(ctx, userID, movieID)
	if err != nil {
		return Outcome{ID: movieID, Reason: err.Error()}, err
	}
	return s.apply(ctx, userID, movie, tmdbID, mediaType)
}

func (s *Service) apply(ctx context.Context, userID string, movie *watchlist.Movie, tmdbID int, mediaType string) (Outcome, error) {
	outcome := Outcome{ID: movie.ID, Title: movie.Title}

	details, err := s.details.GetDetails(ctx, tmdbID, mediaType)
	if err != nil {
		outcome.Reason = err.Error()
		return outcome, fmt.Errorf("failed to fetch details for %d: %w", tmdbID, err)
	}

	if _, err := s.store.ApplyEnrichment(ctx, userID, movie.ID, EnrichmentFrom(details)); err != nil {
		outcome.Reason = err.Error()
		return outcome, err
	}

	outcome.TmdbID = details.ID
	outcome.PosterPath = details.PosterPath
	s.logger.Info().Str("id", movie.ID).Str("title", movie.Title).Int("tmdbId", details.ID).Msg("Title enriched")
	return outcome, nil
}

// EnrichAll enriches every record without TMDB data, one at a time. A failed
// record is reported and skipped. Cancellation stops the pass and returns the
// partial report with the context error.
func (s *Service) EnrichAll(ctx context.Context, userID string) (*Report, error) {
	movies, err := s.store.ListUnenriched(ctx, userID)
	if err != nil {
		return nil, err
	}

	report := newReport()

	var tracker *progress.Tracker
	if s.progress != nil && len(movies) > 0 {
		tracker = s.progress.Start(userID, "enrich-"+uuid.NewString(), progress.ActivityTypeEnrichment, "Enriching watchlist")
	}

	for i, movie := range movies {
		if err := ctx.Err(); err != nil {
			if tracker != nil {
				tracker.Cancel()
			}
			return report, err
		}

		report.add(s.enrich(ctx, userID, movie))
		if tracker != nil {
			tracker.Step(movie.Title, i+1, len(movies))
		}
	}

	if tracker != nil {
		tracker.SetMetadata("enriched", report.Enriched)
		tracker.SetMetadata("failed", report.Failed)
		tracker.Complete(fmt.Sprintf("%d enriched, %d failed", report.Enriched, report.Failed))
	}

	s.logger.Info().Str("userId", userID).Int("enriched", report.Enriched).Int("failed", report.Failed).Msg("Enrichment pass finished")
	return report, nil
}

// AddFromTMDB creates an already-enriched watchlist record from a TMDB title.
func (s *Service) AddFromTMDB(ctx context.Context, userID string, tmdbID int, mediaType string, platform watchlist.Platform) (*watchlist.Movie, error) {
	if platform == "" {
		platform = watchlist.PlatformNetflix
	}

	if _, err := s.store.GetByTMDBID(ctx, userID, tmdbID); err == nil {
		return nil, watchlist.ErrDuplicateTMDBID
	} else if !errors.Is(err, watchlist.ErrNotFound) {
		return nil, err
	}

	details, err := s.details.GetDetails(ctx, tmdbID, mediaType)
	if err != nil {
		return nil, err
	}

	contentType := watchlist.TypeMovie
	if mediaType == tmdb.MediaTypeTV {
		contentType = watchlist.TypeSeries
	}

	enrichment := EnrichmentFrom(details)
	return s.store.Create(ctx, userID, watchlist.CreateInput{
		Title:      details.Title,
		Platform:   platform,
		Type:       contentType,
		Status:     watchlist.StatusWatchlist,
		Enrichment: &enrichment,
	})
}

// EnrichmentFrom maps catalog details onto the stored enrichment fields.
func EnrichmentFrom(d *tmdb.NormalizedDetails) watchlist.Enrichment {
	year := d.Year
	if year == 0 {
		year = tmdb.YearFromDate(d.ReleaseDate)
	}
	return watchlist.Enrichment{
		TmdbID:       d.ID,
		PosterPath:   d.PosterPath,
		BackdropPath: d.BackdropPath,
		Overview:     d.Overview,
		TmdbRating:   d.VoteAverage,
		ReleaseYear:  year,
		Genres:       d.Genres,
		Runtime:      d.Runtime,
	}
}
