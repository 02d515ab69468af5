package tasks

import (
	"context"
	"fmt"

	"github.com/cinecouple/cinecouple/internal/health"
)

// HealthCheckTask refreshes the health of the database and the catalog.
type HealthCheckTask struct {
	health *health.Service
}

// NewHealthCheckTask creates a new health check task.
func NewHealthCheckTask(h *health.Service) *HealthCheckTask {
	return &HealthCheckTask{health: h}
}

// Run probes every registered item and fails when any item is in error.
func (t *HealthCheckTask) Run(ctx context.Context) error {
	resp := t.health.Check(ctx)
	if resp.Status != health.StatusError {
		return nil
	}

	for _, item := range resp.Items {
		if item.Status == health.StatusError {
			return fmt.Errorf("%s unhealthy: %s", item.Name, item.Message)
		}
	}
	return nil
}
