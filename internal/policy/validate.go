package policy

import (
	"fmt"
	"math"

	"github.com/moonwatch/backend/internal/contracts"
)

// weightTolerance is the floating-point tolerance for the sum-to-one check.
const weightTolerance = 1e-6

// ValidationError reports a policy field that failed validation.
// Validation failures abort the process; they are never silently defaulted.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required policy constraints. A weight vector that does
// not sum to 1.0 within tolerance is reported as ErrInvalidWeightConfig.
func Validate(p *Policy) error {
	if p.Meta.PolicyID == "" {
		return ValidationError{"meta.policy_id", "required"}
	}

	for field, w := range map[string]float64{
		"weights.technical": p.Weights.Technical,
		"weights.sentiment": p.Weights.Sentiment,
		"weights.social":    p.Weights.Social,
		"weights.earnings":  p.Weights.Earnings,
	} {
		if w < 0 || w > 1 {
			return ValidationError{field, "must be in [0, 1]"}
		}
	}
	if diff := math.Abs(p.Weights.Sum() - 1.0); diff > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.8f, want 1.0", contracts.ErrInvalidWeightConfig, p.Weights.Sum())
	}

	if p.Votes.UpDelta < 0 {
		return ValidationError{"votes.up_delta", "must be >= 0"}
	}
	if p.Votes.DownDelta > 0 {
		return ValidationError{"votes.down_delta", "must be <= 0"}
	}

	if p.Lifecycle.ObservationWindow <= 0 {
		return ValidationError{"lifecycle.observation_window", "must be > 0"}
	}
	if p.Lifecycle.GracePeriod < 0 {
		return ValidationError{"lifecycle.grace_period", "must be >= 0"}
	}
	if p.Lifecycle.GracePeriod >= p.Lifecycle.ObservationWindow {
		return ValidationError{"lifecycle.grace_period", "must be shorter than observation_window"}
	}
	if p.Lifecycle.PriceFreshness <= 0 {
		return ValidationError{"lifecycle.price_freshness", "must be > 0"}
	}
	if p.Lifecycle.MinFavorableMovePct <= 0 {
		return ValidationError{"lifecycle.min_favorable_move_pct", "must be > 0"}
	}
	if p.Lifecycle.TargetMovePct <= 0 {
		return ValidationError{"lifecycle.target_move_pct", "must be > 0"}
	}
	if p.Lifecycle.StopMovePct <= 0 {
		return ValidationError{"lifecycle.stop_move_pct", "must be > 0"}
	}
	if p.Lifecycle.MinFavorableMovePct >= p.Lifecycle.TargetMovePct {
		return ValidationError{"lifecycle.min_favorable_move_pct", "must be below target_move_pct"}
	}

	if p.View.MinConfidence < 0 || p.View.MinConfidence >= 100 {
		return ValidationError{"view.min_confidence", "must be in [0, 100)"}
	}

	return nil
}
