// Package jobs holds the scheduled job implementations.
package jobs

import (
	"context"
	"fmt"

	"github.com/moonwatch/backend/internal/engine"
	"github.com/moonwatch/backend/pkg/logger"
)

// ScanJob runs one scoring cycle over the configured universe. The system
// on/off switch is consulted here, before any work starts; the engine
// itself stays stateless with respect to the flag.
type ScanJob struct {
	name     string
	schedule string
	eng      *engine.Engine
	state    *engine.SystemState
	universe []string
	logger   *logger.Logger
}

// NewScanJob creates a scan job. Two instances with different schedules
// cover market hours and off hours.
func NewScanJob(name, schedule string, eng *engine.Engine, state *engine.SystemState, universe []string, log *logger.Logger) *ScanJob {
	return &ScanJob{
		name:     name,
		schedule: schedule,
		eng:      eng,
		state:    state,
		universe: universe,
		logger:   log.WithField("job", name),
	}
}

func (j *ScanJob) Name() string     { return j.name }
func (j *ScanJob) Schedule() string { return j.schedule }

// Run executes one cycle unless the system is switched off.
func (j *ScanJob) Run(ctx context.Context) error {
	if !j.state.Enabled() {
		j.logger.Debug("system disabled, cycle skipped")
		return nil
	}

	result, err := j.eng.RunCycle(ctx, j.universe)
	if err != nil {
		return fmt.Errorf("scan cycle: %w", err)
	}
	if result.Failed > 0 {
		j.logger.WithField("failed", result.Failed).Warn("cycle finished with failed tickers")
	}
	return nil
}
