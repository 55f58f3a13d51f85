// Package policy holds the deployment scoring policy: category weights,
// vote deltas, lifecycle windows and view thresholds. Loaded from YAML at
// startup and validated before anything else runs.
package policy

import "time"

// Policy is the full scoring policy for a deployment.
type Policy struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Weights   Weights   `yaml:"weights" json:"weights"`
	Votes     Votes     `yaml:"votes" json:"votes"`
	Lifecycle Lifecycle `yaml:"lifecycle" json:"lifecycle"`
	View      View      `yaml:"view" json:"view"`
}

// Meta identifies the policy document.
type Meta struct {
	PolicyID string `yaml:"policy_id" json:"policy_id"`
	Version  string `yaml:"version" json:"version"`
}

// Weights is the fixed category weight vector. Must sum to 1.0.
type Weights struct {
	Technical float64 `yaml:"technical" json:"technical"`
	Sentiment float64 `yaml:"sentiment" json:"sentiment"`
	Social    float64 `yaml:"social" json:"social"`
	Earnings  float64 `yaml:"earnings" json:"earnings"`
}

// Sum returns the total of all four weights.
func (w Weights) Sum() float64 {
	return w.Technical + w.Sentiment + w.Social + w.Earnings
}

// Votes holds the confidence deltas applied per gut vote. Asymmetric:
// disagreement costs more than agreement rewards, since a false positive is
// costlier than a missed confirmation.
type Votes struct {
	UpDelta   float64 `yaml:"up_delta" json:"up_delta"`
	DownDelta float64 `yaml:"down_delta" json:"down_delta"`
	PassDelta float64 `yaml:"pass_delta" json:"pass_delta"`
}

// Lifecycle holds the observation and promotion windows for the state machine.
type Lifecycle struct {
	// ObservationWindow bounds how long a signal is watched before it is
	// force-classified STALE.
	ObservationWindow time.Duration `yaml:"observation_window" json:"observation_window"`

	// GracePeriod is how long a reviewed STRONG/MODERATE signal waits before
	// self-promoting to WATCHING without an explicit user action.
	GracePeriod time.Duration `yaml:"grace_period" json:"grace_period"`

	// PriceFreshness bounds how old a price tick may be before lifecycle
	// evaluation is skipped for that signal.
	PriceFreshness time.Duration `yaml:"price_freshness" json:"price_freshness"`

	// MinFavorableMovePct is the minimum favorable move (percent) required
	// for a PARTIAL outcome at window expiry.
	MinFavorableMovePct float64 `yaml:"min_favorable_move_pct" json:"min_favorable_move_pct"`

	// TargetMovePct and StopMovePct derive the target range from the entry
	// price at issuance.
	TargetMovePct float64 `yaml:"target_move_pct" json:"target_move_pct"`
	StopMovePct   float64 `yaml:"stop_move_pct" json:"stop_move_pct"`
}

// View holds presentation-layer thresholds.
type View struct {
	// MinConfidence is the default minimum final confidence for alert views.
	MinConfidence float64 `yaml:"min_confidence" json:"min_confidence"`
}

// Default returns the reference policy.
func Default() *Policy {
	return &Policy{
		Meta: Meta{
			PolicyID: "moonwatch_reference",
			Version:  "1",
		},
		Weights: Weights{
			Technical: 0.40,
			Sentiment: 0.30,
			Social:    0.20,
			Earnings:  0.10,
		},
		Votes: Votes{
			UpDelta:   3,
			DownDelta: -2,
			PassDelta: 0,
		},
		Lifecycle: Lifecycle{
			ObservationWindow:   72 * time.Hour,
			GracePeriod:         4 * time.Hour,
			PriceFreshness:      10 * time.Minute,
			MinFavorableMovePct: 5.0,
			TargetMovePct:       8.0,
			StopMovePct:         4.0,
		},
		View: View{
			MinConfidence: 48,
		},
	}
}
