package watchlist

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cinecouple/cinecouple/internal/auth"
)

// Handlers provides HTTP handlers for watchlist operations.
type Handlers struct {
	service *Service
	devMode bool
}

// NewHandlers creates new watchlist handlers. Seeding is only served in dev mode.
func NewHandlers(service *Service, devMode bool) *Handlers {
	return &Handlers{service: service, devMode: devMode}
}

// RegisterRoutes registers the watchlist routes on the API group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/movies", h.List)
	g.POST("/movies", h.Create)
	g.GET("/movies/random", h.Random)
	g.GET("/movies/:id", h.Get)
	g.PUT("/movies/:id", h.Update)
	g.PATCH("/movies/:id", h.Update)
	g.DELETE("/movies/:id", h.Delete)

	g.GET("/stats", h.Stats)

	g.POST("/seed", h.Seed)
	g.POST("/seed/reset", h.Reset)
}

// List returns the user's titles with optional filtering.
// GET /api/v1/movies?platform=&type=&status=&search=
func (h *Handlers) List(c echo.Context) error {
	var filters Filters
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &filters); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	movies, err := h.service.List(c.Request().Context(), auth.UserID(c), filters)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, movies)
}

// Get returns a single title.
// GET /api/v1/movies/:id
func (h *Handlers) Get(c echo.Context) error {
	movie, err := h.service.Get(c.Request().Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, movie)
}

// Create adds a title.
// POST /api/v1/movies
func (h *Handlers) Create(c echo.Context) error {
	var input CreateInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	movie, err := h.service.Create(c.Request().Context(), auth.UserID(c), input)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, movie)
}

// Update changes a title.
// PUT /api/v1/movies/:id
func (h *Handlers) Update(c echo.Context) error {
	var input UpdateInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	movie, err := h.service.Update(c.Request().Context(), auth.UserID(c), c.Param("id"), input)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, movie)
}

// Delete removes a title.
// DELETE /api/v1/movies/:id
func (h *Handlers) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), auth.UserID(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Random picks a title to watch.
// GET /api/v1/movies/random?platform=&type=&status=
func (h *Handlers) Random(c echo.Context) error {
	var filters Filters
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &filters); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	movie, err := h.service.Random(c.Request().Context(), auth.UserID(c), filters)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, movie)
}

// Stats returns watchlist statistics.
// GET /api/v1/stats
func (h *Handlers) Stats(c echo.Context) error {
	stats, err := h.service.Stats(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

// Seed imports the starter watchlist.
// POST /api/v1/seed
func (h *Handlers) Seed(c echo.Context) error {
	if !h.devMode {
		return echo.NewHTTPError(http.StatusForbidden, "seeding is disabled outside dev mode")
	}

	count, err := h.service.Seed(c.Request().Context(), auth.UserID(c), DefaultSeed())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "imported": count})
}

// Reset deletes every title of the user.
// POST /api/v1/seed/reset
func (h *Handlers) Reset(c echo.Context) error {
	count, err := h.service.DeleteAll(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "deleted": count})
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNothingToPick):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidMovie), errors.Is(err, ErrAlreadySeeded):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDuplicateTMDBID):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
