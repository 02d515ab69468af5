package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinecouple/cinecouple/internal/config"
)

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// getStatus reports build and runtime information. It needs no token.
func (s *Server) getStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"version":        config.Version,
		"startTime":      s.startTime.Format(time.RFC3339),
		"developerMode":  s.cfg.Server.DevMode,
		"tmdbConfigured": s.metadataService.IsConfigured(),
		"requiresAuth":   true,
		"tasks":          s.scheduler.ListTasks(),
	})
}
