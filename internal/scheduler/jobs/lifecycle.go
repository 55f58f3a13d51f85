package jobs

import (
	"context"
	"fmt"

	"github.com/moonwatch/backend/internal/engine"
	"github.com/moonwatch/backend/internal/pricefeed"
	"github.com/moonwatch/backend/pkg/logger"
)

// LifecycleJob refreshes prices and advances signal lifecycles.
type LifecycleJob struct {
	schedule string
	eng      *engine.Engine
	poller   *pricefeed.Poller
	universe []string
	logger   *logger.Logger
}

// NewLifecycleJob creates the price-refresh-and-evaluate job.
func NewLifecycleJob(schedule string, eng *engine.Engine, poller *pricefeed.Poller, universe []string, log *logger.Logger) *LifecycleJob {
	return &LifecycleJob{
		schedule: schedule,
		eng:      eng,
		poller:   poller,
		universe: universe,
		logger:   log.WithField("job", "lifecycle"),
	}
}

func (j *LifecycleJob) Name() string     { return "lifecycle" }
func (j *LifecycleJob) Schedule() string { return j.schedule }

// Run polls fresh quotes, then evaluates every active signal against them.
// A failed poll still evaluates: the tracker skips signals whose cached
// price is past the freshness bound.
func (j *LifecycleJob) Run(ctx context.Context) error {
	if j.poller != nil {
		if _, err := j.poller.Poll(ctx, j.universe); err != nil {
			j.logger.WithError(err).Warn("price poll failed, evaluating on cached prices")
		}
	}

	result, err := j.eng.EvaluateLifecycles(ctx)
	if err != nil {
		return fmt.Errorf("lifecycle evaluation: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"evaluated":     result.Evaluated,
		"retired":       result.Retired,
		"skipped_stale": result.SkippedStale,
	}).Debug("lifecycle pass completed")

	return nil
}
