package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinecouple/cinecouple/internal/config"
)

func newTestClient(server *httptest.Server) *Client {
	cfg := config.TMDBConfig{
		APIKey:       "test-api-key",
		BaseURL:      server.URL,
		ImageBaseURL: "https://image.tmdb.org/t/p",
		Language:     "pt-BR",
		Timeout:      5,
	}
	return NewClient(cfg, zerolog.Nop())
}

func strPtr(s string) *string {
	return &s
}

func TestClient_Name(t *testing.T) {
	client := NewClient(config.TMDBConfig{}, zerolog.Nop())
	if client.Name() != "tmdb" {
		t.Errorf("Name() = %q, want %q", client.Name(), "tmdb")
	}
}

func TestClient_IsConfigured(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		want   bool
	}{
		{"with key", "abc123", true},
		{"without key", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(config.TMDBConfig{APIKey: tt.apiKey}, zerolog.Nop())
			if got := client.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClient_SearchMovies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		q := r.URL.Query()
		if q.Get("query") != "Matrix" {
			t.Errorf("unexpected query: %s", q.Get("query"))
		}
		if q.Get("api_key") != "test-api-key" {
			t.Errorf("unexpected api_key: %s", q.Get("api_key"))
		}
		if q.Get("language") != "pt-BR" {
			t.Errorf("unexpected language: %s", q.Get("language"))
		}
		if q.Get("include_adult") != "false" {
			t.Errorf("include_adult = %q, want false", q.Get("include_adult"))
		}

		response := SearchMoviesResponse{
			Page:         1,
			TotalResults: 2,
			TotalPages:   1,
			Results: []MovieResult{
				{
					ID:          604,
					Title:       "Matrix Reloaded",
					ReleaseDate: "2003-05-15",
					VoteAverage: 7.0,
					Popularity:  90,
				},
				{
					ID:            603,
					Title:         "Matrix",
					OriginalTitle: "The Matrix",
					ReleaseDate:   "1999-03-30",
					PosterPath:    strPtr("/matrix.jpg"),
					VoteAverage:   8.2,
					Popularity:    10,
				},
			},
		}
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestClient(server)
	results, err := client.SearchMovies(context.Background(), "Matrix")
	if err != nil {
		t.Fatalf("SearchMovies() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("SearchMovies() returned %d results, want 2", len(results))
	}

	// TMDB order is preserved; ranking belongs to the matcher.
	if results[0].ID != 604 {
		t.Errorf("results[0].ID = %d, want %d", results[0].ID, 604)
	}
	if results[1].OriginalTitle != "The Matrix" {
		t.Errorf("results[1].OriginalTitle = %q, want %q", results[1].OriginalTitle, "The Matrix")
	}
	if results[1].Year != 1999 {
		t.Errorf("results[1].Year = %d, want %d", results[1].Year, 1999)
	}
	if results[1].PosterPath != "/matrix.jpg" {
		t.Errorf("results[1].PosterPath = %q, want %q", results[1].PosterPath, "/matrix.jpg")
	}
	if results[1].MediaType != MediaTypeMovie {
		t.Errorf("results[1].MediaType = %q, want %q", results[1].MediaType, MediaTypeMovie)
	}
}

func TestClient_SearchMovies_NoAPIKey(t *testing.T) {
	client := NewClient(config.TMDBConfig{}, zerolog.Nop())

	_, err := client.SearchMovies(context.Background(), "test")
	if !errors.Is(err, ErrAPIKeyMissing) {
		t.Errorf("SearchMovies() error = %v, want %v", err, ErrAPIKeyMissing)
	}
}

func TestClient_SearchSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tv" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		response := SearchTVResponse{
			Page: 1,
			Results: []TVResult{
				{
					ID:           1396,
					Name:         "Breaking Bad",
					OriginalName: "Breaking Bad",
					FirstAirDate: "2008-01-20",
					VoteAverage:  8.9,
				},
			},
		}
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestClient(server)
	results, err := client.SearchSeries(context.Background(), "Breaking Bad")
	if err != nil {
		t.Fatalf("SearchSeries() error = %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("SearchSeries() returned %d results, want 1", len(results))
	}
	if results[0].Title != "Breaking Bad" {
		t.Errorf("Title = %q, want %q", results[0].Title, "Breaking Bad")
	}
	if results[0].Year != 2008 {
		t.Errorf("Year = %d, want %d", results[0].Year, 2008)
	}
	if results[0].MediaType != MediaTypeTV {
		t.Errorf("MediaType = %q, want %q", results[0].MediaType, MediaTypeTV)
	}
}

func TestClient_GetMovie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/603" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		details := MovieDetails{
			ID:           603,
			Title:        "Matrix",
			ReleaseDate:  "1999-03-30",
			Overview:     "Um hacker descobre a verdade.",
			BackdropPath: strPtr("/backdrop.jpg"),
			VoteAverage:  8.2,
			Runtime:      136,
			Genres:       []Genre{{ID: 28, Name: "Ação"}, {ID: 878, Name: "Ficção científica"}},
		}
		json.NewEncoder(w).Encode(details)
	}))
	defer server.Close()

	client := newTestClient(server)
	result, err := client.GetMovie(context.Background(), 603)
	if err != nil {
		t.Fatalf("GetMovie() error = %v", err)
	}

	if result.Runtime != 136 {
		t.Errorf("Runtime = %d, want %d", result.Runtime, 136)
	}
	if len(result.Genres) != 2 || result.Genres[0] != "Ação" {
		t.Errorf("Genres = %v, want [Ação Ficção científica]", result.Genres)
	}
	if result.BackdropPath != "/backdrop.jpg" {
		t.Errorf("BackdropPath = %q, want %q", result.BackdropPath, "/backdrop.jpg")
	}
	if result.Year != 1999 {
		t.Errorf("Year = %d, want %d", result.Year, 1999)
	}
}

func TestClient_GetSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tv/1396" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		details := TVDetails{
			ID:              1396,
			Name:            "Breaking Bad",
			FirstAirDate:    "2008-01-20",
			VoteAverage:     8.9,
			NumberOfSeasons: 5,
			EpisodeRunTime:  []int{47, 45},
			Genres:          []Genre{{ID: 18, Name: "Drama"}},
		}
		json.NewEncoder(w).Encode(details)
	}))
	defer server.Close()

	client := newTestClient(server)
	result, err := client.GetSeries(context.Background(), 1396)
	if err != nil {
		t.Fatalf("GetSeries() error = %v", err)
	}

	if result.NumberOfSeasons != 5 {
		t.Errorf("NumberOfSeasons = %d, want %d", result.NumberOfSeasons, 5)
	}
	if result.Runtime != 47 {
		t.Errorf("Runtime = %d, want %d", result.Runtime, 47)
	}
	if result.Year != 2008 {
		t.Errorf("Year = %d, want %d", result.Year, 2008)
	}
}

func TestClient_GetTrending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trending/all/week" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		response := TrendingResponse{
			Page: 1,
			Results: []TrendingEntry{
				{ID: 1, MediaType: "movie", Title: "Duna: Parte Dois", ReleaseDate: "2024-02-27", VoteAverage: 8.2},
				{ID: 2, MediaType: "tv", Name: "Shōgun", FirstAirDate: "2024-02-27", VoteAverage: 8.6},
				{ID: 3, MediaType: "person", Name: "Zendaya"},
			},
		}
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := newTestClient(server)
	results, err := client.GetTrending(context.Background(), "bogus", "month")
	if err != nil {
		t.Fatalf("GetTrending() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("GetTrending() returned %d results, want 2", len(results))
	}
	if results[0].Title != "Duna: Parte Dois" || results[0].MediaType != MediaTypeMovie {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Title != "Shōgun" || results[1].MediaType != MediaTypeTV || results[1].Year != 2024 {
		t.Errorf("results[1] = %+v", results[1])
	}
}

func TestClient_GetPopular(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/popular":
			if r.URL.Query().Get("page") != "2" {
				t.Errorf("page = %q, want 2", r.URL.Query().Get("page"))
			}
			json.NewEncoder(w).Encode(SearchMoviesResponse{Results: []MovieResult{{ID: 10, Title: "Oppenheimer"}}})
		case "/tv/popular":
			if r.URL.Query().Get("page") != "1" {
				t.Errorf("page = %q, want 1", r.URL.Query().Get("page"))
			}
			json.NewEncoder(w).Encode(SearchTVResponse{Results: []TVResult{{ID: 20, Name: "The Bear"}}})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(server)

	movies, err := client.GetPopularMovies(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetPopularMovies() error = %v", err)
	}
	if len(movies) != 1 || movies[0].ID != 10 {
		t.Errorf("GetPopularMovies() = %+v", movies)
	}

	series, err := client.GetPopularSeries(context.Background(), 0)
	if err != nil {
		t.Fatalf("GetPopularSeries() error = %v", err)
	}
	if len(series) != 1 || series[0].MediaType != MediaTypeTV {
		t.Errorf("GetPopularSeries() = %+v", series)
	}
}

func TestClient_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, ErrAPIError},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"server error", http.StatusInternalServerError, ErrAPIError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(ErrorResponse{StatusCode: 7, StatusMessage: "nope"})
			}))
			defer server.Close()

			client := newTestClient(server)
			_, err := client.GetMovie(context.Background(), 999999)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("GetMovie() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	client := newTestClient(server)
	if _, err := client.SearchMovies(context.Background(), "x"); err == nil {
		t.Error("SearchMovies() expected decode error")
	}
}

func TestClient_Test(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/configuration" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"images":{"base_url":"http://image.tmdb.org/t/p/"}}`))
	}))
	defer server.Close()

	client := newTestClient(server)
	if err := client.Test(context.Background()); err != nil {
		t.Errorf("Test() error = %v", err)
	}
}

func TestClient_GetImageURL(t *testing.T) {
	client := NewClient(config.TMDBConfig{ImageBaseURL: "https://image.tmdb.org/t/p"}, zerolog.Nop())

	tests := []struct {
		name string
		path string
		size string
		want string
	}{
		{"with path", "/abc123.jpg", "w500", "https://image.tmdb.org/t/p/w500/abc123.jpg"},
		{"default size", "/abc123.jpg", "", "https://image.tmdb.org/t/p/w500/abc123.jpg"},
		{"original size", "/abc123.jpg", "original", "https://image.tmdb.org/t/p/original/abc123.jpg"},
		{"empty path", "", "w500", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := client.GetImageURL(tt.path, tt.size); got != tt.want {
				t.Errorf("GetImageURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestYearFromDate(t *testing.T) {
	tests := map[string]int{
		"1999-03-30": 1999,
		"2024":       2024,
		"":           0,
		"abc-01-01":  0,
	}
	for in, want := range tests {
		if got := YearFromDate(in); got != want {
			t.Errorf("YearFromDate(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestClient_RateLimiterHonoursDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SearchMoviesResponse{})
	}))
	defer server.Close()

	client := NewClient(config.TMDBConfig{
		APIKey:            "test-api-key",
		BaseURL:           server.URL,
		Timeout:           5,
		RequestsPerSecond: 0.01,
	}, zerolog.Nop())

	if _, err := client.SearchMovies(context.Background(), "first"); err != nil {
		t.Fatalf("first request error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.SearchMovies(ctx, "second")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("second request error = %v, want %v", err, ErrRateLimited)
	}
}
