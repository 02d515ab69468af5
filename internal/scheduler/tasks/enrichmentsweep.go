// Package tasks holds the scheduled jobs.
package tasks

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/cinecouple/cinecouple/internal/enrichment"
)

// PendingUsers lists users that still have unenriched titles.
type PendingUsers interface {
	UsersWithUnenriched(ctx context.Context) ([]string, error)
}

// Enricher enriches every pending title of a user.
type Enricher interface {
	EnrichAll(ctx context.Context, userID string) (*enrichment.Report, error)
}

// EnrichmentSweepTask retries enrichment for titles that were added while the
// catalog was unavailable or that never matched.
type EnrichmentSweepTask struct {
	users    PendingUsers
	enricher Enricher
	logger   zerolog.Logger
}

// NewEnrichmentSweepTask creates a new enrichment sweep task.
func NewEnrichmentSweepTask(users PendingUsers, enricher Enricher, logger zerolog.Logger) *EnrichmentSweepTask {
	return &EnrichmentSweepTask{
		users:    users,
		enricher: enricher,
		logger:   logger.With().Str("task", "enrichment-sweep").Logger(),
	}
}

// Run enriches each pending user in turn. A failing user does not stop the sweep.
func (t *EnrichmentSweepTask) Run(ctx context.Context) error {
	users, err := t.users.UsersWithUnenriched(ctx)
	if err != nil {
		return err
	}

	var errs []error
	enriched, failed := 0, 0
	for _, userID := range users {
		report, err := t.enricher.EnrichAll(ctx, userID)
		if report != nil {
			enriched += report.Enriched
			failed += report.Failed
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.logger.Warn().Err(err).Str("userId", userID).Msg("Enrichment sweep failed for user")
			errs = append(errs, err)
		}
	}

	t.logger.Info().
		Int("users", len(users)).
		Int("enriched", enriched).
		Int("failed", failed).
		Msg("Enrichment sweep completed")

	return errors.Join(errs...)
}
