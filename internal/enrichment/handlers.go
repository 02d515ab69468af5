package enrichment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/cinecouple/cinecouple/internal/auth"
	"github.com/cinecouple/cinecouple/internal/matching"
	"github.com/cinecouple/cinecouple/internal/metadata"
	"github.com/cinecouple/cinecouple/internal/watchlist"
)

// Handlers provides HTTP handlers for enrichment.
type Handlers struct {
	service *Service
}

// NewHandlers creates new enrichment handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the enrichment routes on the API group.
func (h *Handlers) RegisterRoutes(g *echo.Group) {
	g.GET("/tmdb/enrich", h.Enrich)
	g.POST("/tmdb/enrich/:id", h.EnrichWithTMDBID)
	g.POST("/tmdb/match", h.Match)
	g.POST("/movies/add-from-tmdb", h.AddFromTMDB)
}

// TMDBRequest identifies a TMDB title.
type TMDBRequest struct {
	TmdbID    int                `json:"tmdbId"`
	MediaType string             `json:"mediaType"`
	Platform  watchlist.Platform `json:"platform,omitempty"`
}

// MatchRequest is a title to match.
type MatchRequest struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Enrich enriches one record, or every record without TMDB data.
// GET /api/v1/tmdb/enrich[?id=<uuid>]
func (h *Handlers) Enrich(c echo.Context) error {
	ctx := c.Request().Context()
	userID := auth.UserID(c)

	id := c.QueryParam("id")
	if id == "" {
		report, err := h.service.EnrichAll(ctx, userID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, report)
	}

	if _, err := uuid.Parse(id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid movie id (must be a UUID)")
	}

	outcome, err := h.service.EnrichMovie(ctx, userID, id)
	if errors.Is(err, watchlist.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	report := newReport()
	report.add(outcome, err)
	return c.JSON(http.StatusOK, report)
}

// EnrichWithTMDBID applies a chosen TMDB title to a record.
// POST /api/v1/tmdb/enrich/:id
func (h *Handlers) EnrichWithTMDBID(c echo.Context) error {
	var req TMDBRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	mediaType, err := validateTMDBRequest(req)
	if err != nil {
		return err
	}

	outcome, err := h.service.EnrichWithTMDBID(c.Request().Context(), auth.UserID(c), c.Param("id"), req.TmdbID, mediaType)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "movie": outcome})
}

// AddFromTMDB adds a TMDB title to the watchlist.
// POST /api/v1/movies/add-from-tmdb
func (h *Handlers) AddFromTMDB(c echo.Context) error {
	var req TMDBRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	mediaType, err := validateTMDBRequest(req)
	if err != nil {
		return err
	}
	if req.Platform != "" && !req.Platform.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown platform")
	}

	movie, err := h.service.AddFromTMDB(c.Request().Context(), auth.UserID(c), req.TmdbID, mediaType, req.Platform)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"success": true, "movie": movie})
}

// Match returns the match decision for a title without storing anything.
// POST /api/v1/tmdb/match
func (h *Handlers) Match(c echo.Context) error {
	var req MatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	contentType, err := matching.ParseContentType(req.Type)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	decision, err := h.service.Match(c.Request().Context(), req.Title, contentType)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, decision)
}

func validateTMDBRequest(req TMDBRequest) (string, error) {
	if req.TmdbID <= 0 || req.MediaType == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "tmdbId and mediaType are required")
	}
	mediaType, err := metadata.ParseMediaType(req.MediaType)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return mediaType, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, watchlist.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, watchlist.ErrDuplicateTMDBID):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, watchlist.ErrInvalidMovie), errors.Is(err, matching.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return metadata.HTTPError(err)
	}
}
