package jobs

import (
	"context"
	"fmt"

	"github.com/moonwatch/backend/internal/engine"
	"github.com/moonwatch/backend/pkg/logger"
)

// MaintenanceJob force-classifies overdue signals as STALE and prunes
// retired signals from the active book.
type MaintenanceJob struct {
	schedule string
	eng      *engine.Engine
	logger   *logger.Logger
}

// NewMaintenanceJob creates the maintenance sweep job.
func NewMaintenanceJob(schedule string, eng *engine.Engine, log *logger.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		schedule: schedule,
		eng:      eng,
		logger:   log.WithField("job", "maintenance"),
	}
}

func (j *MaintenanceJob) Name() string     { return "maintenance" }
func (j *MaintenanceJob) Schedule() string { return j.schedule }

// Run sweeps the book.
func (j *MaintenanceJob) Run(ctx context.Context) error {
	expired, err := j.eng.ExpireOverdue(ctx)
	if err != nil {
		return fmt.Errorf("maintenance sweep: %w", err)
	}
	if expired > 0 {
		j.logger.WithField("expired", expired).Info("overdue signals retired")
	}
	return nil
}
