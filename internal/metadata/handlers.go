package metadata

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/cinecouple/cinecouple/internal/metadata/tmdb"
)

// Handlers provides HTTP handlers for catalog browsing.
type Handlers struct {
	service *Service
}

// NewHandlers creates new metadata handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the catalog routes.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/search", h.Search)
	g.GET("/discover", h.Discover)

	// Cache management
	g.DELETE("/cache", h.ClearCache)

	// Provider status
	g.GET("/status", h.GetStatus)
}

// ContentResult is a catalog entry with resolved image URLs.
type ContentResult struct {
	tmdb.NormalizedResult
	PosterURL   string `json:"posterUrl,omitempty"`
	BackdropURL string `json:"backdropUrl,omitempty"`
}

type resultsResponse struct {
	Results []ContentResult `json:"results"`
}

// Search searches movies, series or both.
// GET /api/v1/tmdb/search?q=...&type=movie|series|all
func (h *Handlers) Search(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter 'q' is required")
	}

	results, err := h.service.SearchContent(c.Request().Context(), query, ParseScope(c.QueryParam("type")))
	if err != nil {
		return HTTPError(err)
	}

	return c.JSON(http.StatusOK, h.respond(results))
}

// Discover lists trending or popular titles, or searches when q is set.
// GET /api/v1/tmdb/discover?type=movie|tv|all&category=trending|popular&q=...&page=N
func (h *Handlers) Discover(c echo.Context) error {
	opts := DiscoverOptions{
		Query:    c.QueryParam("q"),
		Scope:    ParseScope(c.QueryParam("type")),
		Category: c.QueryParam("category"),
		Page:     1,
	}
	if p := c.QueryParam("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil || page < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid page")
		}
		opts.Page = page
	}

	results, err := h.service.Discover(c.Request().Context(), opts)
	if err != nil {
		return HTTPError(err)
	}

	return c.JSON(http.StatusOK, h.respond(results))
}

// ClearCache clears the metadata cache.
// DELETE /api/v1/tmdb/cache
func (h *Handlers) ClearCache(c echo.Context) error {
	h.service.ClearCache()
	return c.NoContent(http.StatusNoContent)
}

// GetStatus returns the status of the TMDB provider.
// GET /api/v1/tmdb/status
func (h *Handlers) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Status(c.Request().Context()))
}

func (h *Handlers) respond(results []tmdb.NormalizedResult) resultsResponse {
	out := make([]ContentResult, len(results))
	for i, r := range results {
		out[i] = ContentResult{
			NormalizedResult: r,
			PosterURL:        h.service.ImageURL(r.PosterPath, "w500"),
			BackdropURL:      h.service.ImageURL(r.BackdropPath, "w780"),
		}
	}
	return resultsResponse{Results: out}
}

// HTTPError maps metadata errors to HTTP errors.
func HTTPError(err error) error {
	switch {
	case errors.Is(err, ErrEmptyQuery), errors.Is(err, ErrInvalidMediaType), errors.Is(err, ErrInvalidID):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNoProvidersConfigured):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "no metadata providers configured")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "title not found")
	case errors.Is(err, tmdb.ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, "metadata provider rate limited")
	default:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
}
