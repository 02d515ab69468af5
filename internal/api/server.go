package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cinecouple/cinecouple/internal/api/ratelimit"
	"github.com/cinecouple/cinecouple/internal/auth"
	"github.com/cinecouple/cinecouple/internal/config"
	"github.com/cinecouple/cinecouple/internal/enrichment"
	"github.com/cinecouple/cinecouple/internal/health"
	"github.com/cinecouple/cinecouple/internal/matching"
	"github.com/cinecouple/cinecouple/internal/metadata"
	"github.com/cinecouple/cinecouple/internal/metadata/mock"
	"github.com/cinecouple/cinecouple/internal/progress"
	"github.com/cinecouple/cinecouple/internal/scheduler"
	"github.com/cinecouple/cinecouple/internal/watchlist"
	"github.com/cinecouple/cinecouple/internal/websocket"
)

var (
	_ watchlist.Broadcaster = (*websocket.Hub)(nil)
	_ progress.Broadcaster  = (*websocket.Hub)(nil)
	_ enrichment.Store      = (*watchlist.Service)(nil)
	_ enrichment.Matcher    = (*matching.Matcher)(nil)
	_ enrichment.Details    = (*metadata.Service)(nil)
)

// Server handles HTTP requests for the CineCouple API.
type Server struct {
	echo      *echo.Echo
	db        *sql.DB
	hub       *websocket.Hub
	logger    zerolog.Logger
	cfg       *config.Config
	startTime time.Time

	verifier *auth.Verifier
	limiter  *ratelimit.Limiter

	// Services
	watchlistService  *watchlist.Service
	metadataService   *metadata.Service
	matcher           *matching.Matcher
	progressManager   *progress.Manager
	enrichmentService *enrichment.Service
	healthService     *health.Service
	scheduler         *scheduler.Scheduler
}

// NewServer wires every service and registers the routes. hub may be nil, in
// which case nothing is pushed to clients and /ws is not served.
func NewServer(db *sql.DB, hub *websocket.Hub, cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to configure auth: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		db:        db,
		hub:       hub,
		logger:    logger,
		cfg:       cfg,
		startTime: time.Now(),
		verifier:  verifier,
		limiter:   ratelimit.New(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
	}

	// A nil *Hub stored in an interface is not nil, so pass a true nil.
	var broadcaster watchlist.Broadcaster
	if hub != nil {
		broadcaster = hub
	}

	s.watchlistService = watchlist.NewService(db, broadcaster, logger)

	if cfg.Server.DevMode && cfg.Metadata.TMDB.APIKey == "" {
		logger.Warn().Msg("No TMDB API key in developer mode, using the mock catalog")
		s.metadataService = metadata.NewServiceWithClient(mock.NewTMDBClient(), logger)
	} else {
		s.metadataService = metadata.NewService(cfg.Metadata, logger)
	}

	s.matcher = matching.NewMatcher(s.metadataService.Catalog(), logger)
	s.progressManager = progress.NewManager(broadcaster, logger)
	s.enrichmentService = enrichment.NewService(s.watchlistService, s.matcher, s.metadataService, s.progressManager, logger)

	s.healthService = health.NewService(logger)
	s.healthService.RegisterItem(health.CategoryDatabase, "sqlite", "SQLite", db.PingContext)
	s.healthService.RegisterItem(health.CategoryMetadata, "tmdb", "TMDB", s.checkMetadata)

	if err := s.setupScheduler(); err != nil {
		s.metadataService.Close()
		return nil, err
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// checkMetadata reports a missing API key as degraded and an unreachable API as failed.
func (s *Server) checkMetadata(ctx context.Context) error {
	status := s.metadataService.Status(ctx)
	if !status.Configured {
		return &health.Warning{Message: "TMDB API key not configured"}
	}
	if !status.Reachable {
		return errors.New(status.Error)
	}
	return nil
}

// CheckCatalog probes the catalog provider once.
func (s *Server) CheckCatalog(ctx context.Context) error {
	return s.checkMetadata(ctx)
}

// Start starts the background tasks and the HTTP server.
func (s *Server) Start(address string) error {
	s.scheduler.Start()

	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server and its background tasks.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	defer s.metadataService.Close()

	if err := s.scheduler.Stop(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to stop scheduler")
	}
	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
