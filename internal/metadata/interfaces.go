package metadata

import (
	"context"

	"github.com/cinecouple/cinecouple/internal/metadata/tmdb"
)

// TMDBClient defines the TMDB operations the service depends on.
type TMDBClient interface {
	Name() string
	IsConfigured() bool
	Test(ctx context.Context) error
	SearchMovies(ctx context.Context, query string) ([]tmdb.NormalizedResult, error)
	SearchSeries(ctx context.Context, query string) ([]tmdb.NormalizedResult, error)
	GetMovie(ctx context.Context, id int) (*tmdb.NormalizedDetails, error)
	GetSeries(ctx context.Context, id int) (*tmdb.NormalizedDetails, error)
	GetTrending(ctx context.Context, mediaType, window string) ([]tmdb.NormalizedResult, error)
	GetPopularMovies(ctx context.Context, page int) ([]tmdb.NormalizedResult, error)
	GetPopularSeries(ctx context.Context, page int) ([]tmdb.NormalizedResult, error)
	GetImageURL(path string, size string) string
}

var _ TMDBClient = (*tmdb.Client)(nil)
