package tmdb

// Media types as TMDB names them in trending results and URLs.
const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
	MediaTypeAll   = "all"
)

// SearchMoviesResponse is the response from TMDB movie search and the popular movies list.
type SearchMoviesResponse struct {
	Page         int           `json:"page"`
	Results      []MovieResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// MovieResult is a movie from TMDB search results.
type MovieResult struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date"`
	PosterPath    *string `json:"poster_path"`
	BackdropPath  *string `json:"backdrop_path"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int     `json:"vote_count"`
	Popularity    float64 `json:"popularity"`
	GenreIDs      []int   `json:"genre_ids"`
}

// MovieDetails is the detailed movie info from TMDB.
type MovieDetails struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date"`
	PosterPath    *string `json:"poster_path"`
	BackdropPath  *string `json:"backdrop_path"`
	VoteAverage   float64 `json:"vote_average"`
	Runtime       int     `json:"runtime"`
	Genres        []Genre `json:"genres"`
}

// SearchTVResponse is the response from TMDB TV search and the popular TV list.
type SearchTVResponse struct {
	Page         int        `json:"page"`
	Results      []TVResult `json:"results"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
}

// TVResult is a TV series from TMDB search results.
type TVResult struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	OriginalName string  `json:"original_name"`
	Overview     string  `json:"overview"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   *string `json:"poster_path"`
	BackdropPath *string `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
	GenreIDs     []int   `json:"genre_ids"`
}

// TVDetails is the detailed TV series info from TMDB.
type TVDetails struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	OriginalName    string  `json:"original_name"`
	Overview        string  `json:"overview"`
	FirstAirDate    string  `json:"first_air_date"`
	PosterPath      *string `json:"poster_path"`
	BackdropPath    *string `json:"backdrop_path"`
	VoteAverage     float64 `json:"vote_average"`
	Genres          []Genre `json:"genres"`
	NumberOfSeasons int     `json:"number_of_seasons"`
	EpisodeRunTime  []int   `json:"episode_run_time"`
}

// TrendingResponse is the response from /trending/{media_type}/{time_window}.
type TrendingResponse struct {
	Page    int             `json:"page"`
	Results []TrendingEntry `json:"results"`
}

// TrendingEntry is a mixed movie/TV trending entry. Movies fill Title and
// ReleaseDate, series fill Name and FirstAirDate.
type TrendingEntry struct {
	ID            int     `json:"id"`
	MediaType     string  `json:"media_type"`
	Title         string  `json:"title"`
	Name          string  `json:"name"`
	OriginalTitle string  `json:"original_title"`
	OriginalName  string  `json:"original_name"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date"`
	FirstAirDate  string  `json:"first_air_date"`
	PosterPath    *string `json:"poster_path"`
	BackdropPath  *string `json:"backdrop_path"`
	VoteAverage   float64 `json:"vote_average"`
}

// Genre represents a genre from TMDB.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ErrorResponse is the error body TMDB returns with non-200 responses.
type ErrorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       bool   `json:"success"`
}

// NormalizedResult is a search, trending or popular entry in provider-neutral form.
// Image fields hold TMDB paths; GetImageURL turns them into URLs.
type NormalizedResult struct {
	ID            int     `json:"tmdbId"`
	MediaType     string  `json:"mediaType"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"originalTitle,omitempty"`
	Overview      string  `json:"overview,omitempty"`
	PosterPath    string  `json:"posterPath,omitempty"`
	BackdropPath  string  `json:"backdropPath,omitempty"`
	VoteAverage   float64 `json:"rating"`
	ReleaseDate   string  `json:"releaseDate,omitempty"`
	Year          int     `json:"releaseYear,omitempty"`
}

// NormalizedDetails is a movie or series detail record in provider-neutral form.
type NormalizedDetails struct {
	NormalizedResult
	Genres          []string `json:"genres"`
	Runtime         int      `json:"runtime,omitempty"`
	NumberOfSeasons int      `json:"numberOfSeasons,omitempty"`
}
