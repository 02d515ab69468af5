package enrichment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinecouple/cinecouple/internal/matching"
	"github.com/cinecouple/cinecouple/internal/metadata"
	"github.com/cinecouple/cinecouple/internal/metadata/mock"
	"github.com/cinecouple/cinecouple/internal/metadata/tmdb"
	"github.com/cinecouple/cinecouple/internal/progress"
	"github.com/cinecouple/cinecouple/internal/testutil"
	"github.com/cinecouple/cinecouple/internal/watchlist"
)

type testEnv struct {
	service  *Service
	store    *watchlist.Service
	metadata *metadata.Service
	progress *progress.Manager
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tdb := testutil.NewTestDB(t)
	t.Cleanup(tdb.Close)

	meta := metadata.NewServiceWithClient(mock.NewTMDBClient(), tdb.Logger)
	t.Cleanup(meta.Close)

	store := watchlist.NewService(tdb.Conn, nil, tdb.Logger)
	activities := progress.NewManager(nil, tdb.Logger)
	matcher := matching.NewMatcher(meta.Catalog(), tdb.Logger)

	return &testEnv{
		service:  NewService(store, matcher, meta, activities, tdb.Logger),
		store:    store,
		metadata: meta,
		progress: activities,
	}
}

func (env *testEnv) add(t *testing.T, userID, title string, contentType watchlist.ContentType) *watchlist.Movie {
	t.Helper()
	movie, err := env.store.Create(context.Background(), userID, watchlist.CreateInput{
		Title: title, Platform: watchlist.PlatformNetflix, Type: contentType,
	})
	require.NoError(t, err)
	return movie
}

// stubMatcher returns a fixed decision.
type stubMatcher struct {
	decision matching.MatchDecision
	err      error
}

func (m stubMatcher) FindBestMatch(ctx context.Context, title string, ct matching.ContentType) (matching.MatchDecision, error) {
	return m.decision, m.err
}

func TestEnrichMovie(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	movie := env.add(t, "u1", "Harry Potter", watchlist.TypeMovie)

	outcome, err := env.service.EnrichMovie(ctx, "u1", movie.ID)
	require.NoError(t, err)
	assert.Equal(t, 671, outcome.TmdbID)
	assert.Equal(t, "/mock-movie-poster.jpg", outcome.PosterPath)

	got, err := env.store.Get(ctx, "u1", movie.ID)
	require.NoError(t, err)
	require.True(t, got.IsEnriched())
	assert.Equal(t, 671, *got.TmdbID)
	assert.Equal(t, 2001, *got.ReleaseYear)
	assert.Equal(t, 152, *got.Runtime)
	assert.Equal(t, []string{"Aventura", "Fantasia"}, got.Genres)
	assert.InDelta(t, 7.9, *got.TmdbRating, 1e-9)
	assert.Equal(t, "Harry Potter", got.Title, "the stored title is kept")
}

func TestEnrichMovie_Series(t *testing.T) {
	env := setupTestEnv(t)

	movie := env.add(t, "u1", "Dark", watchlist.TypeSeries)

	outcome, err := env.service.EnrichMovie(context.Background(), "u1", movie.ID)
	require.NoError(t, err)
	assert.Equal(t, 70523, outcome.TmdbID)
}

func TestEnrichMovie_NoMatch(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	movie := env.add(t, "u1", "Filme Inexistente Qualquer", watchlist.TypeMovie)

	outcome, err := env.service.EnrichMovie(ctx, "u1", movie.ID)
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.Equal(t, ReasonNoMatch, outcome.Reason)

	got, err := env.store.Get(ctx, "u1", movie.ID)
	require.NoError(t, err)
	assert.False(t, got.IsEnriched())
}

func TestEnrichMovie_CatalogUnavailable(t *testing.T) {
	env := setupTestEnv(t)
	env.service.matcher = stubMatcher{decision: matching.MatchDecision{Searched: 2, Failed: 2}}

	movie := env.add(t, "u1", "Dark", watchlist.TypeSeries)

	outcome, err := env.service.EnrichMovie(context.Background(), "u1", movie.ID)
	assert.ErrorIs(t, err, ErrNoMatch)
	assert.Equal(t, ReasonCatalogUnavailable, outcome.Reason)
}

func TestEnrichMovie_NotFound(t *testing.T) {
	env := setupTestEnv(t)
	movie := env.add(t, "u1", "Dark", watchlist.TypeSeries)

	_, err := env.service.EnrichMovie(context.Background(), "u2", movie.ID)
	assert.ErrorIs(t, err, watchlist.ErrNotFound)
}

func TestEnrichAll_ContinuesPastFailures(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	env.add(t, "u1", "Breaking Bad", watchlist.TypeSeries)
	missing := env.add(t, "u1", "Filme Inexistente Qualquer", watchlist.TypeMovie)
	env.add(t, "u1", "O Auto da Compadecida", watchlist.TypeMovie)
	env.add(t, "u2", "Dark", watchlist.TypeSeries)

	report, err := env.service.EnrichAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Enriched)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Details.Failed, 1)
	assert.Equal(t, missing.ID, report.Details.Failed[0].ID)
	assert.Equal(t, ReasonNoMatch, report.Details.Failed[0].Reason)

	ids := []int{report.Details.Enriched[0].TmdbID, report.Details.Enriched[1].TmdbID}
	assert.ElementsMatch(t, []int{1396, 12444}, ids)

	// A second pass only retries what is still unenriched.
	report, err = env.service.EnrichAll(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Enriched)
	assert.Equal(t, 1, report.Failed)

	activities := env.progress.List("u1")
	require.Len(t, activities, 2)
	assert.Equal(t, progress.StatusCompleted, activities[0].Status)
	assert.Equal(t, 2, activities[0].Metadata["enriched"])
	assert.Empty(t, env.progress.List("u2"))
}

func TestEnrichAll_Empty(t *testing.T) {
	env := setupTestEnv(t)

	report, err := env.service.EnrichAll(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, report.Enriched)
	assert.Zero(t, report.Failed)
	assert.NotNil(t, report.Details.Enriched)
	assert.NotNil(t, report.Details.Failed)
	assert.Empty(t, env.progress.List("u1"), "no activity for an empty pass")
}

func TestEnrichAll_Cancelled(t *testing.T) {
	env := setupTestEnv(t)
	env.add(t, "u1", "Dark", watchlist.TypeSeries)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.service.EnrichAll(ctx, "u1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnrichWithTMDBID(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	movie := env.add(t, "u1", "Duna 2", watchlist.TypeMovie)

	outcome, err := env.service.EnrichWithTMDBID(ctx, "u1", movie.ID, 693134, tmdb.MediaTypeMovie)
	require.NoError(t, err)
	assert.Equal(t, 693134, outcome.TmdbID)

	_, err = env.service.EnrichWithTMDBID(ctx, "u1", movie.ID, 999999, tmdb.MediaTypeMovie)
	assert.ErrorIs(t, err, metadata.ErrNotFound)

	_, err = env.service.EnrichWithTMDBID(ctx, "u1", "missing", 603, tmdb.MediaTypeMovie)
	assert.ErrorIs(t, err, watchlist.ErrNotFound)
}

func TestAddFromTMDB(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	movie, err := env.service.AddFromTMDB(ctx, "u1", 94605, tmdb.MediaTypeTV, "")
	require.NoError(t, err)
	assert.Equal(t, "Arcane", movie.Title)
	assert.Equal(t, watchlist.TypeSeries, movie.Type)
	assert.Equal(t, watchlist.PlatformNetflix, movie.Platform)
	assert.Equal(t, watchlist.StatusWatchlist, movie.Status)
	assert.True(t, movie.IsEnriched())
	assert.Equal(t, 2021, *movie.ReleaseYear)

	_, err = env.service.AddFromTMDB(ctx, "u1", 94605, tmdb.MediaTypeTV, watchlist.PlatformHBO)
	assert.ErrorIs(t, err, watchlist.ErrDuplicateTMDBID)

	other, err := env.service.AddFromTMDB(ctx, "u1", 603, tmdb.MediaTypeMovie, watchlist.PlatformHBO)
	require.NoError(t, err)
	assert.Equal(t, watchlist.PlatformHBO, other.Platform)
	assert.Equal(t, watchlist.TypeMovie, other.Type)

	_, err = env.service.AddFromTMDB(ctx, "u1", 424242, tmdb.MediaTypeMovie, "")
	assert.ErrorIs(t, err, metadata.ErrNotFound)
}

func TestEnrichmentFrom_FallsBackToDateYear(t *testing.T) {
	e := EnrichmentFrom(&tmdb.NormalizedDetails{
		NormalizedResult: tmdb.NormalizedResult{ID: 1, ReleaseDate: "2019-05-30", VoteAverage: 8.5},
		Genres:           []string{"Drama"},
	})
	assert.Equal(t, 2019, e.ReleaseYear)
	assert.Equal(t, 1, e.TmdbID)
	assert.Equal(t, []string{"Drama"}, e.Genres)
}
