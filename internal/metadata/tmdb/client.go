package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/cinecouple/cinecouple/internal/config"
)

var (
	ErrAPIKeyMissing = errors.New("TMDB API key is not configured")
	ErrNotFound      = errors.New("title not found")
	ErrAPIError      = errors.New("TMDB API error")
	ErrRateLimited   = errors.New("TMDB API rate limited")
)

// Client is a TMDB API client.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	config     config.TMDBConfig
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		limiter: newLimiter(cfg.RequestsPerSecond),
		config:  cfg,
		logger:  logger.With().Str("component", "tmdb").Logger(),
	}
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if the API key is set.
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Test verifies connectivity to the TMDB API by making a configuration request.
func (c *Client) Test(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrAPIKeyMissing
	}

	var result struct {
		Images struct {
			BaseURL string `json:"base_url"`
		} `json:"images"`
	}

	return c.doRequest(ctx, c.config.BaseURL+"/configuration", c.params(), &result)
}

// SearchMovies searches for movies by title. Results keep TMDB's order.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]NormalizedResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	params := c.params()
	params.Set("query", query)
	params.Set("include_adult", "false")

	var response SearchMoviesResponse
	if err := c.doRequest(ctx, c.config.BaseURL+"/search/movie", params, &response); err != nil {
		return nil, err
	}

	results := make([]NormalizedResult, len(response.Results))
	for i, movie := range response.Results {
		results[i] = toMovieResult(movie)
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("Movie search completed")

	return results, nil
}

// SearchSeries searches for TV series by title. Results keep TMDB's order.
func (c *Client) SearchSeries(ctx context.Context, query string) ([]NormalizedResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	params := c.params()
	params.Set("query", query)
	params.Set("include_adult", "false")

	var response SearchTVResponse
	if err := c.doRequest(ctx, c.config.BaseURL+"/search/tv", params, &response); err != nil {
		return nil, err
	}

	results := make([]NormalizedResult, len(response.Results))
	for i, series := range response.Results {
		results[i] = toSeriesResult(series)
	}

	c.logger.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("TV search completed")

	return results, nil
}

// GetMovie gets detailed movie info by TMDB ID.
func (c *Client) GetMovie(ctx context.Context, id int) (*NormalizedDetails, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	var details MovieDetails
	if err := c.doRequest(ctx, fmt.Sprintf("%s/movie/%d", c.config.BaseURL, id), c.params(), &details); err != nil {
		return nil, err
	}

	result := movieDetailsToResult(details)

	c.logger.Debug().
		Int("id", id).
		Str("title", result.Title).
		Msg("Got movie details")

	return &result, nil
}

// GetSeries gets detailed TV series info by TMDB ID.
func (c *Client) GetSeries(ctx context.Context, id int) (*NormalizedDetails, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	var details TVDetails
	if err := c.doRequest(ctx, fmt.Sprintf("%s/tv/%d", c.config.BaseURL, id), c.params(), &details); err != nil {
		return nil, err
	}

	result := tvDetailsToResult(details)

	c.logger.Debug().
		Int("id", id).
		Str("title", result.Title).
		Msg("Got TV series details")

	return &result, nil
}

// GetTrending returns trending titles. mediaType is movie, tv or all;
// window is day or week.
func (c *Client) GetTrending(ctx context.Context, mediaType, window string) ([]NormalizedResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	switch mediaType {
	case MediaTypeMovie, MediaTypeTV, MediaTypeAll:
	default:
		mediaType = MediaTypeAll
	}
	if window != "day" {
		window = "week"
	}

	var response TrendingResponse
	endpoint := fmt.Sprintf("%s/trending/%s/%s", c.config.BaseURL, mediaType, window)
	if err := c.doRequest(ctx, endpoint, c.params(), &response); err != nil {
		return nil, err
	}

	results := make([]NormalizedResult, 0, len(response.Results))
	for _, entry := range response.Results {
		// Trending "all" also returns people.
		if entry.MediaType != "" && entry.MediaType != MediaTypeMovie && entry.MediaType != MediaTypeTV {
			continue
		}
		results = append(results, toTrendingResult(entry, mediaType))
	}

	return results, nil
}

// GetPopularMovies returns one page of the popular movies list.
func (c *Client) GetPopularMovies(ctx context.Context, page int) ([]NormalizedResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	var response SearchMoviesResponse
	if err := c.doRequest(ctx, c.config.BaseURL+"/movie/popular", c.pageParams(page), &response); err != nil {
		return nil, err
	}

	results := make([]NormalizedResult, len(response.Results))
	for i, movie := range response.Results {
		results[i] = toMovieResult(movie)
	}
	return results, nil
}

// GetPopularSeries returns one page of the popular TV list.
func (c *Client) GetPopularSeries(ctx context.Context, page int) ([]NormalizedResult, error) {
	if !c.IsConfigured() {
		return nil, ErrAPIKeyMissing
	}

	var response SearchTVResponse
	if err := c.doRequest(ctx, c.config.BaseURL+"/tv/popular", c.pageParams(page), &response); err != nil {
		return nil, err
	}

	results := make([]NormalizedResult, len(response.Results))
	for i, series := range response.Results {
		results[i] = toSeriesResult(series)
	}
	return results, nil
}

// GetImageURL returns a full image URL for a given path and size.
// Size options: "w92", "w154", "w185", "w342", "w500", "w780", "original"
func (c *Client) GetImageURL(path string, size string) string {
	if path == "" {
		return ""
	}
	if size == "" {
		size = "w500"
	}
	return fmt.Sprintf("%s/%s%s", c.config.ImageBaseURL, size, path)
}

func (c *Client) params() url.Values {
	params := url.Values{}
	params.Set("api_key", c.config.APIKey)
	if c.config.Language != "" {
		params.Set("language", c.config.Language)
	}
	return params
}

func (c *Client) pageParams(page int) url.Values {
	params := c.params()
	if page < 1 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))
	return params
}

// doRequest performs an HTTP GET request and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	reqURL := endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: invalid API key", ErrAPIError)
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func toMovieResult(movie MovieResult) NormalizedResult {
	return NormalizedResult{
		ID:            movie.ID,
		MediaType:     MediaTypeMovie,
		Title:         movie.Title,
		OriginalTitle: movie.OriginalTitle,
		Overview:      movie.Overview,
		PosterPath:    deref(movie.PosterPath),
		BackdropPath:  deref(movie.BackdropPath),
		VoteAverage:   movie.VoteAverage,
		ReleaseDate:   movie.ReleaseDate,
		Year:          YearFromDate(movie.ReleaseDate),
	}
}

func toSeriesResult(tv TVResult) NormalizedResult {
	return NormalizedResult{
		ID:            tv.ID,
		MediaType:     MediaTypeTV,
		Title:         tv.Name,
		OriginalTitle: tv.OriginalName,
		Overview:      tv.Overview,
		PosterPath:    deref(tv.PosterPath),
		BackdropPath:  deref(tv.BackdropPath),
		VoteAverage:   tv.VoteAverage,
		ReleaseDate:   tv.FirstAirDate,
		Year:          YearFromDate(tv.FirstAirDate),
	}
}

func toTrendingResult(entry TrendingEntry, requested string) NormalizedResult {
	mediaType := entry.MediaType
	if mediaType == "" {
		mediaType = requested
	}
	if mediaType == MediaTypeAll {
		// Only series carry a first air date.
		mediaType = MediaTypeMovie
		if entry.FirstAirDate != "" {
			mediaType = MediaTypeTV
		}
	}

	result := NormalizedResult{
		ID:           entry.ID,
		MediaType:    mediaType,
		Overview:     entry.Overview,
		PosterPath:   deref(entry.PosterPath),
		BackdropPath: deref(entry.BackdropPath),
		VoteAverage:  entry.VoteAverage,
	}

	if mediaType == MediaTypeTV {
		result.Title = entry.Name
		result.OriginalTitle = entry.OriginalName
		result.ReleaseDate = entry.FirstAirDate
	} else {
		result.Title = entry.Title
		result.OriginalTitle = entry.OriginalTitle
		result.ReleaseDate = entry.ReleaseDate
	}
	result.Year = YearFromDate(result.ReleaseDate)

	return result
}

func movieDetailsToResult(details MovieDetails) NormalizedDetails {
	return NormalizedDetails{
		NormalizedResult: NormalizedResult{
			ID:            details.ID,
			MediaType:     MediaTypeMovie,
			Title:         details.Title,
			OriginalTitle: details.OriginalTitle,
			Overview:      details.Overview,
			PosterPath:    deref(details.PosterPath),
			BackdropPath:  deref(details.BackdropPath),
			VoteAverage:   details.VoteAverage,
			ReleaseDate:   details.ReleaseDate,
			Year:          YearFromDate(details.ReleaseDate),
		},
		Genres:  genreNames(details.Genres),
		Runtime: details.Runtime,
	}
}

func tvDetailsToResult(details TVDetails) NormalizedDetails {
	result := NormalizedDetails{
		NormalizedResult: NormalizedResult{
			ID:            details.ID,
			MediaType:     MediaTypeTV,
			Title:         details.Name,
			OriginalTitle: details.OriginalName,
			Overview:      details.Overview,
			PosterPath:    deref(details.PosterPath),
			BackdropPath:  deref(details.BackdropPath),
			VoteAverage:   details.VoteAverage,
			ReleaseDate:   details.FirstAirDate,
			Year:          YearFromDate(details.FirstAirDate),
		},
		Genres:          genreNames(details.Genres),
		NumberOfSeasons: details.NumberOfSeasons,
	}

	if len(details.EpisodeRunTime) > 0 {
		result.Runtime = details.EpisodeRunTime[0]
	}

	return result
}

// YearFromDate extracts the year from a TMDB YYYY-MM-DD date. Returns 0 when absent.
func YearFromDate(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

func genreNames(genres []Genre) []string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, g.Name)
	}
	return names
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
