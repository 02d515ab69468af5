package api

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	apimw "github.com/cinecouple/cinecouple/internal/api/middleware"
	"github.com/cinecouple/cinecouple/internal/auth"
	"github.com/cinecouple/cinecouple/internal/enrichment"
	"github.com/cinecouple/cinecouple/internal/metadata"
	"github.com/cinecouple/cinecouple/internal/watchlist"
)

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.echo.Use(middleware.Recover())

	// Request ID
	s.echo.Use(middleware.RequestID())

	// Security headers
	s.echo.Use(apimw.SecurityHeaders())

	// Request body size limit (2MB)
	s.echo.Use(middleware.BodyLimit("2M"))

	s.echo.Use(apimw.CORS(s.cfg.Server.AllowedOrigins))

	// Request logging
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Str("method", v.Method).
					Str("uri", v.URI).
					Str("requestId", v.RequestID).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Err(v.Error).
					Msg("request error")
			} else {
				s.logger.Info().
					Str("method", v.Method).
					Str("uri", v.URI).
					Str("requestId", v.RequestID).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Msg("request")
			}
			return nil
		},
	}))

	// Gzip compression
	s.echo.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Upgrade") == "websocket"
		},
	}))
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)

	if s.hub != nil {
		s.echo.GET("/ws", s.hub.HandleWebSocket, s.verifier.QueryTokenMiddleware())
	}

	api := s.echo.Group("/api/v1")
	api.GET("/status", s.getStatus)

	protected := api.Group("")
	protected.Use(s.verifier.Middleware())
	protected.Use(s.limiter.Middleware(auth.UserID))

	watchlist.NewHandlers(s.watchlistService, s.cfg.Server.DevMode).RegisterRoutes(protected)
	enrichment.NewHandlers(s.enrichmentService).RegisterRoutes(protected)
	metadata.NewHandlers(s.metadataService).RegisterRoutes(protected.Group("/tmdb"))
	s.progressManager.RegisterRoutes(protected)
	s.healthService.RegisterRoutes(protected)
}
