package metadata

import (
	"context"

	"github.com/cinecouple/cinecouple/internal/matching"
	"github.com/cinecouple/cinecouple/internal/metadata/tmdb"
)

// Catalog exposes the service as the matcher's search collaborator.
// Searches go through the service cache.
func (s *Service) Catalog() matching.Catalog {
	return catalogAdapter{service: s}
}

type catalogAdapter struct {
	service *Service
}

func (a catalogAdapter) SearchMovies(ctx context.Context, query string) ([]matching.Candidate, error) {
	results, err := a.service.SearchMovies(ctx, query)
	if err != nil {
		return nil, err
	}
	return ToCandidates(results), nil
}

func (a catalogAdapter) SearchSeries(ctx context.Context, query string) ([]matching.Candidate, error) {
	results, err := a.service.SearchSeries(ctx, query)
	if err != nil {
		return nil, err
	}
	return ToCandidates(results), nil
}

// ToCandidates converts TMDB results into match candidates, keeping order.
func ToCandidates(results []tmdb.NormalizedResult) []matching.Candidate {
	candidates := make([]matching.Candidate, len(results))
	for i, r := range results {
		candidates[i] = matching.Candidate{
			ID:            r.ID,
			Title:         r.Title,
			OriginalTitle: r.OriginalTitle,
			Overview:      r.Overview,
			PosterPath:    r.PosterPath,
			BackdropPath:  r.BackdropPath,
			ReleaseDate:   r.ReleaseDate,
			VoteAverage:   r.VoteAverage,
		}
	}
	return candidates
}

// MediaTypeFor maps a match content type to the TMDB media type.
func MediaTypeFor(ct matching.ContentType) string {
	if ct == matching.ContentTypeSeries {
		return tmdb.MediaTypeTV
	}
	return tmdb.MediaTypeMovie
}
