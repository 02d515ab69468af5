// Package mock provides an in-memory TMDB client for developer mode and tests.
package mock

import (
	"context"
	"strings"

	"github.com/cinecouple/cinecouple/internal/metadata/tmdb"
)

// TMDBClient serves a fixed catalog. Searches match case-insensitive substrings
// of the title or original title and return results in catalog order.
type TMDBClient struct {
	movies []tmdb.NormalizedDetails
	series []tmdb.NormalizedDetails
}

// NewTMDBClient creates a mock client with the built-in catalog.
func NewTMDBClient() *TMDBClient {
	return &TMDBClient{movies: mockMovies, series: mockSeries}
}

func (c *TMDBClient) Name() string {
	return "tmdb-mock"
}

func (c *TMDBClient) IsConfigured() bool {
	return true
}

func (c *TMDBClient) Test(ctx context.Context) error {
	return nil
}

func (c *TMDBClient) GetImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	if size == "" {
		size = "w500"
	}
	return "https://image.tmdb.org/t/p/" + size + path
}

func (c *TMDBClient) SearchMovies(ctx context.Context, query string) ([]tmdb.NormalizedResult, error) {
	return search(c.movies, query), nil
}

func (c *TMDBClient) SearchSeries(ctx context.Context, query string) ([]tmdb.NormalizedResult, error) {
	return search(c.series, query), nil
}

func (c *TMDBClient) GetMovie(ctx context.Context, id int) (*tmdb.NormalizedDetails, error) {
	return find(c.movies, id)
}

func (c *TMDBClient) GetSeries(ctx context.Context, id int) (*tmdb.NormalizedDetails, error) {
	return find(c.series, id)
}

func (c *TMDBClient) GetTrending(ctx context.Context, mediaType, window string) ([]tmdb.NormalizedResult, error) {
	switch mediaType {
	case tmdb.MediaTypeMovie:
		return results(c.movies), nil
	case tmdb.MediaTypeTV:
		return results(c.series), nil
	default:
		return append(results(c.movies), results(c.series)...), nil
	}
}

func (c *TMDBClient) GetPopularMovies(ctx context.Context, page int) ([]tmdb.NormalizedResult, error) {
	if page > 1 {
		return []tmdb.NormalizedResult{}, nil
	}
	return results(c.movies), nil
}

func (c *TMDBClient) GetPopularSeries(ctx context.Context, page int) ([]tmdb.NormalizedResult, error) {
	if page > 1 {
		return []tmdb.NormalizedResult{}, nil
	}
	return results(c.series), nil
}

func search(catalog []tmdb.NormalizedDetails, query string) []tmdb.NormalizedResult {
	query = strings.ToLower(strings.TrimSpace(query))
	found := []tmdb.NormalizedResult{}
	if query == "" {
		return found
	}
	for i := range catalog {
		d := &catalog[i]
		if strings.Contains(strings.ToLower(d.Title), query) || strings.Contains(strings.ToLower(d.OriginalTitle), query) {
			found = append(found, d.NormalizedResult)
		}
	}
	return found
}

func find(catalog []tmdb.NormalizedDetails, id int) (*tmdb.NormalizedDetails, error) {
	for i := range catalog {
		if catalog[i].ID == id {
			d := catalog[i]
			return &d, nil
		}
	}
	return nil, tmdb.ErrNotFound
}

func results(catalog []tmdb.NormalizedDetails) []tmdb.NormalizedResult {
	out := make([]tmdb.NormalizedResult, len(catalog))
	for i := range catalog {
		out[i] = catalog[i].NormalizedResult
	}
	return out
}

func movie(id int, title, original, date string, vote float64, runtime int, genres ...string) tmdb.NormalizedDetails {
	return tmdb.NormalizedDetails{
		NormalizedResult: tmdb.NormalizedResult{
			ID:            id,
			MediaType:     tmdb.MediaTypeMovie,
			Title:         title,
			OriginalTitle: original,
			PosterPath:    "/mock-movie-poster.jpg",
			BackdropPath:  "/mock-movie-backdrop.jpg",
			VoteAverage:   vote,
			ReleaseDate:   date,
			Year:          tmdb.YearFromDate(date),
		},
		Genres:  genres,
		Runtime: runtime,
	}
}

func show(id int, title, original, date string, vote float64, seasons int, genres ...string) tmdb.NormalizedDetails {
	return tmdb.NormalizedDetails{
		NormalizedResult: tmdb.NormalizedResult{
			ID:            id,
			MediaType:     tmdb.MediaTypeTV,
			Title:         title,
			OriginalTitle: original,
			PosterPath:    "/mock-tv-poster.jpg",
			BackdropPath:  "/mock-tv-backdrop.jpg",
			VoteAverage:   vote,
			ReleaseDate:   date,
			Year:          tmdb.YearFromDate(date),
		},
		Genres:          genres,
		NumberOfSeasons: seasons,
	}
}

var mockMovies = []tmdb.NormalizedDetails{
	movie(603, "Matrix", "The Matrix", "1999-03-30", 8.2, 136, "Ação", "Ficção científica"),
	movie(604, "Matrix Reloaded", "The Matrix Reloaded", "2003-05-15", 7.0, 138, "Ação", "Ficção científica"),
	movie(671, "Harry Potter e a Pedra Filosofal", "Harry Potter and the Philosopher's Stone", "2001-11-16", 7.9, 152, "Aventura", "Fantasia"),
	movie(438631, "Duna", "Dune", "2021-09-15", 7.8, 155, "Ficção científica", "Aventura"),
	movie(693134, "Duna: Parte Dois", "Dune: Part Two", "2024-02-27", 8.2, 167, "Ficção científica", "Aventura"),
	movie(194, "O Fabuloso Destino de Amélie Poulain", "Le Fabuleux Destin d'Amélie Poulain", "2001-04-25", 7.9, 122, "Comédia", "Romance"),
	movie(862, "Toy Story", "Toy Story", "1995-10-30", 8.0, 81, "Animação", "Família"),
	movie(863, "Toy Story 2", "Toy Story 2", "1999-10-30", 7.6, 92, "Animação", "Família"),
	movie(8392, "Meu Amigo Totoro", "となりのトトロ", "1988-04-16", 8.1, 86, "Animação", "Fantasia"),
	movie(12444, "O Auto da Compadecida", "O Auto da Compadecida", "2000-09-10", 8.4, 104, "Comédia"),
}

var mockSeries = []tmdb.NormalizedDetails{
	show(1396, "Breaking Bad", "Breaking Bad", "2008-01-20", 8.9, 5, "Drama", "Crime"),
	show(60059, "Better Call Saul", "Better Call Saul", "2015-02-08", 8.7, 6, "Drama", "Crime"),
	show(66732, "Stranger Things", "Stranger Things", "2016-07-15", 8.6, 4, "Drama", "Mistério"),
	show(70523, "Dark", "Dark", "2017-12-01", 8.4, 3, "Drama", "Mistério"),
	show(94605, "Arcane", "Arcane", "2021-11-06", 8.7, 2, "Animação", "Ação"),
	show(1399, "Game of Thrones", "Game of Thrones", "2011-04-17", 8.5, 8, "Drama", "Aventura"),
	show(94997, "A Casa do Dragão", "House of the Dragon", "2022-08-21", 8.4, 2, "Drama", "Fantasia"),
	show(136315, "O Urso", "The Bear", "2022-06-23", 8.2, 3, "Comédia", "Drama"),
}
