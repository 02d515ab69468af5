package metadata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cinecouple/cinecouple/internal/config"
	"github.com/cinecouple/cinecouple/internal/metadata/tmdb"
)

var (
	ErrNoProvidersConfigured = errors.New("no metadata providers configured")
	ErrNotFound              = errors.New("metadata not found")
	ErrInvalidMediaType      = errors.New("media type must be movie or tv")
	ErrInvalidID             = errors.New("invalid TMDB id")
	ErrEmptyQuery            = errors.New("search query is required")
)

// Service fronts the TMDB client with a TTL cache and the listing operations
// the watchlist needs.
type Service struct {
	tmdb   TMDBClient
	cache  *Cache
	logger zerolog.Logger
}

// NewService creates a metadata service backed by a real TMDB client.
func NewService(cfg config.MetadataConfig, logger zerolog.Logger) *Service {
	return NewServiceWithClient(tmdb.NewClient(cfg.TMDB, logger), logger)
}

// NewServiceWithClient creates a metadata service with a custom client (for testing/mocking).
func NewServiceWithClient(client TMDBClient, logger zerolog.Logger) *Service {
	return &Service{
		tmdb:   client,
		cache:  NewCache(DefaultCacheConfig()),
		logger: logger.With().Str("component", "metadata").Logger(),
	}
}

// IsConfigured returns true if the TMDB provider has an API key.
func (s *Service) IsConfigured() bool {
	return s.tmdb.IsConfigured()
}

// ClearCache drops every cached response.
func (s *Service) ClearCache() {
	s.cache.Clear()
	s.logger.Info().Msg("Metadata cache cleared")
}

// Close stops the cache sweeper.
func (s *Service) Close() {
	s.cache.Close()
}

// ImageURL builds a full image URL for a TMDB image path.
func (s *Service) ImageURL(path, size string) string {
	return s.tmdb.GetImageURL(path, size)
}

// SearchMovies searches TMDB for movies, in TMDB's order.
func (s *Service) SearchMovies(ctx context.Context, query string) ([]tmdb.NormalizedResult, error) {
	return s.cachedList(ctx, "movie:search:"+query, func(ctx context.Context) ([]tmdb.NormalizedResult, error) {
		return s.tmdb.SearchMovies(ctx, query)
	})
}

// SearchSeries searches TMDB for TV series, in TMDB's order.
func (s *Service) SearchSeries(ctx context.Context, query string) ([]tmdb.NormalizedResult, error) {
	return s.cachedList(ctx, "tv:search:"+query, func(ctx context.Context) ([]tmdb.NormalizedResult, error) {
		return s.tmdb.SearchSeries(ctx, query)
	})
}

// SearchContent searches within scope. ScopeAll runs the movie and series
// searches concurrently, fails if either fails, and orders the union by
// vote average, highest first.
func (s *Service) SearchContent(ctx context.Context, query string, scope Scope) ([]tmdb.NormalizedResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	switch scope {
	case ScopeMovie:
		return s.SearchMovies(ctx, query)
	case ScopeSeries:
		return s.SearchSeries(ctx, query)
	}

	var movies, series []tmdb.NormalizedResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		movies, err = s.SearchMovies(gctx, query)
		return err
	})
	g.Go(func() error {
		var err error
		series, err = s.SearchSeries(gctx, query)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := make([]tmdb.NormalizedResult, 0, len(movies)+len(series))
	combined = append(combined, movies...)
	combined = append(combined, series...)
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].VoteAverage > combined[j].VoteAverage
	})

	return combined, nil
}

// GetDetails fetches full details for a movie or TV series.
func (s *Service) GetDetails(ctx context.Context, id int, mediaType string) (*tmdb.NormalizedDetails, error) {
	if !s.IsConfigured() {
		return nil, ErrNoProvidersConfigured
	}
	if id <= 0 {
		return nil, ErrInvalidID
	}
	if mediaType != tmdb.MediaTypeMovie && mediaType != tmdb.MediaTypeTV {
		return nil, ErrInvalidMediaType
	}

	cacheKey := fmt.Sprintf("%s:details:%d", mediaType, id)
	if details, ok := s.cache.GetDetails(cacheKey); ok {
		s.logger.Debug().Int("id", id).Str("mediaType", mediaType).Msg("Details cache hit")
		return details, nil
	}

	var (
		details *tmdb.NormalizedDetails
		err     error
	)
	if mediaType == tmdb.MediaTypeTV {
		details, err = s.tmdb.GetSeries(ctx, id)
	} else {
		details, err = s.tmdb.GetMovie(ctx, id)
	}
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			return nil, ErrNotFound
		}
		s.logger.Error().Err(err).Int("id", id).Str("mediaType", mediaType).Msg("TMDB details lookup failed")
		return nil, fmt.Errorf("details lookup failed: %w", err)
	}

	s.cache.Set(cacheKey, details)
	return details, nil
}

// Discover lists titles for browsing. With a query it is a search capped at
// 20 results; otherwise trending (weekly) or popular by page.
func (s *Service) Discover(ctx context.Context, opts DiscoverOptions) ([]tmdb.NormalizedResult, error) {
	if strings.TrimSpace(opts.Query) != "" {
		results, err := s.SearchContent(ctx, opts.Query, opts.Scope)
		if err != nil {
			return nil, err
		}
		if len(results) > discoverSearchLimit {
			results = results[:discoverSearchLimit]
		}
		return results, nil
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}

	if opts.Category == "" || opts.Category == CategoryTrending {
		mediaType := MediaTypeForScope(opts.Scope)
		return s.cachedList(ctx, "trending:"+mediaType, func(ctx context.Context) ([]tmdb.NormalizedResult, error) {
			return s.tmdb.GetTrending(ctx, mediaType, "week")
		})
	}

	if opts.Scope == ScopeSeries {
		return s.cachedList(ctx, fmt.Sprintf("tv:popular:%d", page), func(ctx context.Context) ([]tmdb.NormalizedResult, error) {
			return s.tmdb.GetPopularSeries(ctx, page)
		})
	}
	return s.cachedList(ctx, fmt.Sprintf("movie:popular:%d", page), func(ctx context.Context) ([]tmdb.NormalizedResult, error) {
		return s.tmdb.GetPopularMovies(ctx, page)
	})
}

// Status reports whether TMDB is configured and reachable.
func (s *Service) Status(ctx context.Context) ProviderStatus {
	status := ProviderStatus{
		Name:       s.tmdb.Name(),
		Configured: s.tmdb.IsConfigured(),
	}
	if !status.Configured {
		return status
	}

	if err := s.tmdb.Test(ctx); err != nil {
		status.Error = err.Error()
		return status
	}
	status.Reachable = true
	return status
}

// cachedList serves key from cache or calls fetch and caches a successful result.
func (s *Service) cachedList(ctx context.Context, key string, fetch func(context.Context) ([]tmdb.NormalizedResult, error)) ([]tmdb.NormalizedResult, error) {
	if !s.IsConfigured() {
		return nil, ErrNoProvidersConfigured
	}

	if results, ok := s.cache.GetResults(key); ok {
		s.logger.Debug().Str("key", key).Msg("Metadata cache hit")
		return results, nil
	}

	results, err := fetch(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("TMDB request failed")
		return nil, fmt.Errorf("metadata request failed: %w", err)
	}

	s.cache.Set(key, results)
	return results, nil
}
