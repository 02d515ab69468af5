package api

import (
	"fmt"

	"github.com/cinecouple/cinecouple/internal/scheduler"
	"github.com/cinecouple/cinecouple/internal/scheduler/tasks"
)

// setupScheduler registers the background tasks with a configured schedule.
func (s *Server) setupScheduler() error {
	sched, err := scheduler.New(s.logger)
	if err != nil {
		return err
	}

	cfg := s.cfg.Scheduler
	if cfg.EnrichmentCron != "" {
		sweep := tasks.NewEnrichmentSweepTask(s.watchlistService, s.enrichmentService, s.logger)
		if err := sched.RegisterTask(scheduler.TaskConfig{
			ID:          "enrichment-sweep",
			Name:        "Enrichment sweep",
			Description: "Retries TMDB enrichment for titles that have none",
			Cron:        cfg.EnrichmentCron,
			Func:        sweep.Run,
		}); err != nil {
			_ = sched.Stop()
			return fmt.Errorf("invalid scheduler.enrichment_cron: %w", err)
		}
	}

	if cfg.HealthCheckCron != "" {
		check := tasks.NewHealthCheckTask(s.healthService)
		if err := sched.RegisterTask(scheduler.TaskConfig{
			ID:          "health-check",
			Name:        "Health check",
			Description: "Probes the database and the TMDB API",
			Cron:        cfg.HealthCheckCron,
			Func:        check.Run,
			RunOnStart:  true,
		}); err != nil {
			_ = sched.Stop()
			return fmt.Errorf("invalid scheduler.health_check_cron: %w", err)
		}
	}

	s.scheduler = sched
	return nil
}
