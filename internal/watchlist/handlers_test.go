package watchlist

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinecouple/cinecouple/internal/auth"
)

type handlerEnv struct {
	handlers *Handlers
	service  *Service
}

func setupTestHandlers(t *testing.T, devMode bool) *handlerEnv {
	t.Helper()
	svc, _ := setupTestService(t)
	return &handlerEnv{handlers: NewHandlers(svc, devMode), service: svc}
}

func newContext(method, target, body, userID string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(auth.UserKey, &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID}})
	if len(params) == 2 {
		c.SetParamNames(params[0])
		c.SetParamValues(params[1])
	}
	return c, rec
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected HTTP error, got %v", err)
	return he.Code
}

func TestHandlers_CreateListGet(t *testing.T) {
	env := setupTestHandlers(t, false)

	c, rec := newContext(http.MethodPost, "/api/v1/movies", `{"title":"Dark","platform":"netflix","type":"series"}`, "u1")
	require.NoError(t, env.handlers.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created Movie
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Dark", created.Title)
	assert.Equal(t, StatusWatchlist, created.Status)

	c, rec = newContext(http.MethodGet, "/api/v1/movies?platform=netflix&type=all", "", "u1")
	require.NoError(t, env.handlers.List(c))
	var listed []Movie
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	c, rec = newContext(http.MethodGet, "/api/v1/movies?platform=hbo", "", "u1")
	require.NoError(t, env.handlers.List(c))
	assert.JSONEq(t, `[]`, rec.Body.String())

	c, rec = newContext(http.MethodGet, "/api/v1/movies/"+created.ID, "", "u1", "id", created.ID)
	require.NoError(t, env.handlers.Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, _ = newContext(http.MethodGet, "/api/v1/movies/"+created.ID, "", "u2", "id", created.ID)
	assert.Equal(t, http.StatusNotFound, httpCode(t, env.handlers.Get(c)))
}

func TestHandlers_CreateInvalid(t *testing.T) {
	env := setupTestHandlers(t, false)

	c, _ := newContext(http.MethodPost, "/api/v1/movies", `{"title":"Dark","platform":"prime","type":"series"}`, "u1")
	assert.Equal(t, http.StatusBadRequest, httpCode(t, env.handlers.Create(c)))

	c, _ = newContext(http.MethodPost, "/api/v1/movies", `{not json`, "u1")
	assert.Equal(t, http.StatusBadRequest, httpCode(t, env.handlers.Create(c)))
}

func TestHandlers_UpdateAndDelete(t *testing.T) {
	env := setupTestHandlers(t, false)
	movie := mustCreate(t, env.service, "u1", CreateInput{Title: "Dark", Platform: PlatformNetflix, Type: TypeSeries})

	c, rec := newContext(http.MethodPut, "/api/v1/movies/"+movie.ID, `{"status":"watched","rating":5}`, "u1", "id", movie.ID)
	require.NoError(t, env.handlers.Update(c))

	var updated Movie
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, StatusWatched, updated.Status)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 5, *updated.Rating)
	assert.NotNil(t, updated.WatchedAt)

	c, rec = newContext(http.MethodDelete, "/api/v1/movies/"+movie.ID, "", "u1", "id", movie.ID)
	require.NoError(t, env.handlers.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c, _ = newContext(http.MethodDelete, "/api/v1/movies/"+movie.ID, "", "u1", "id", movie.ID)
	assert.Equal(t, http.StatusNotFound, httpCode(t, env.handlers.Delete(c)))
}

func TestHandlers_StatsAndRandom(t *testing.T) {
	env := setupTestHandlers(t, false)

	c, _ := newContext(http.MethodGet, "/api/v1/movies/random", "", "u1")
	assert.Equal(t, http.StatusNotFound, httpCode(t, env.handlers.Random(c)))

	movie := mustCreate(t, env.service, "u1", CreateInput{Title: "Loki", Platform: PlatformDisney, Type: TypeSeries})

	c, rec := newContext(http.MethodGet, "/api/v1/movies/random?type=series", "", "u1")
	require.NoError(t, env.handlers.Random(c))
	var picked Movie
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &picked))
	assert.Equal(t, movie.ID, picked.ID)

	c, rec = newContext(http.MethodGet, "/api/v1/stats", "", "u1")
	require.NoError(t, env.handlers.Stats(c))
	assert.JSONEq(t, `{
		"total": 1, "watched": 0, "watchlist": 1, "abandoned": 0,
		"byPlatform": {"netflix": 0, "disney": 1, "hbo": 0},
		"averageRating": null
	}`, rec.Body.String())
}

func TestHandlers_SeedRequiresDevMode(t *testing.T) {
	env := setupTestHandlers(t, false)

	c, _ := newContext(http.MethodPost, "/api/v1/seed", "", "u1")
	assert.Equal(t, http.StatusForbidden, httpCode(t, env.handlers.Seed(c)))
}

func TestHandlers_SeedAndReset(t *testing.T) {
	env := setupTestHandlers(t, true)

	c, rec := newContext(http.MethodPost, "/api/v1/seed", "", "u1")
	require.NoError(t, env.handlers.Seed(c))

	var seeded struct {
		Success  bool `json:"success"`
		Imported int  `json:"imported"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seeded))
	assert.True(t, seeded.Success)

	total := 0
	for _, g := range DefaultSeed() {
		total += len(g.List)
	}
	assert.Equal(t, total, seeded.Imported)

	c, _ = newContext(http.MethodPost, "/api/v1/seed", "", "u1")
	assert.Equal(t, http.StatusBadRequest, httpCode(t, env.handlers.Seed(c)))

	c, rec = newContext(http.MethodPost, "/api/v1/seed/reset", "", "u1")
	require.NoError(t, env.handlers.Reset(c))
	assert.JSONEq(t, `{"success": true, "deleted": `+jsonInt(total)+`}`, rec.Body.String())
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestHandlers_RegisterRoutes(t *testing.T) {
	env := setupTestHandlers(t, false)

	e := echo.New()
	env.handlers.RegisterRoutes(e.Group("/api/v1"))

	routes := map[string]bool{}
	for _, r := range e.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"GET /api/v1/movies",
		"POST /api/v1/movies",
		"GET /api/v1/movies/random",
		"GET /api/v1/movies/:id",
		"PUT /api/v1/movies/:id",
		"DELETE /api/v1/movies/:id",
		"GET /api/v1/stats",
		"POST /api/v1/seed",
		"POST /api/v1/seed/reset",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}
}
