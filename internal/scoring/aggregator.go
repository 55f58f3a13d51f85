// Package scoring implements the weighted confidence aggregator and the
// user-feedback adjustment step.
package scoring

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/moonwatch/backend/internal/contracts"
	"github.com/moonwatch/backend/internal/policy"
)

// Aggregator combines category sub-scores into a composite confidence and a
// directional call. Pure with respect to its inputs; safe for concurrent use.
type Aggregator struct {
	weights policy.Weights
	log     zerolog.Logger
}

// NewAggregator creates an aggregator for a validated weight vector.
// Weight validation happens at startup via policy.Validate; the aggregator
// assumes the vector already sums to 1.0.
func NewAggregator(weights policy.Weights, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		weights: weights,
		log:     log.With().Str("component", "scoring.aggregator").Logger(),
	}
}

// Score computes the direction and raw confidence for a complete score set.
// Sub-scores are signed in [-1, 1]; the weighted composite's sign picks the
// direction and its magnitude, scaled to 0-100 and clamped, is the raw
// confidence. A missing category fails with ErrIncompleteScoreSet.
func (a *Aggregator) Score(scores contracts.ScoreSet) (contracts.Direction, float64, error) {
	if missing := scores.Missing(); len(missing) > 0 {
		return "", 0, fmt.Errorf("%w: missing %v", contracts.ErrIncompleteScoreSet, missing)
	}

	composite := a.weights.Technical*normalize(scores[contracts.CategoryTechnical]) +
		a.weights.Sentiment*normalize(scores[contracts.CategorySentiment]) +
		a.weights.Social*normalize(scores[contracts.CategorySocial]) +
		a.weights.Earnings*normalize(scores[contracts.CategoryEarnings])

	direction := contracts.DirectionMoon
	if composite < 0 {
		direction = contracts.DirectionRug
		composite = -composite
	}

	confidence := Clamp(composite*100, 0, 100)

	a.log.Debug().
		Str("direction", string(direction)).
		Float64("confidence", confidence).
		Msg("score set aggregated")

	return direction, confidence, nil
}

// normalize clamps a provider sub-score into its documented [-1, 1] range.
func normalize(score float64) float64 {
	return Clamp(score, -1, 1)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
