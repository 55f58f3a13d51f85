// Package contracts defines the shared domain types: signals, votes,
// lifecycle states, watchlist entries, price ticks and the typed errors
// every layer matches on.
package contracts

import "time"

// Direction is the directional call a signal makes.
type Direction string

const (
	DirectionMoon Direction = "MOON" // upward call
	DirectionRug  Direction = "RUG"  // downward call
)

// Category names a scoring category.
type Category string

const (
	CategoryTechnical Category = "technical"
	CategorySentiment Category = "sentiment"
	CategorySocial    Category = "social"
	CategoryEarnings  Category = "earnings"
)

// Categories returns all scoring categories in a fixed order.
func Categories() []Category {
	return []Category{CategoryTechnical, CategorySentiment, CategorySocial, CategoryEarnings}
}

// ScoreSet maps each category to its signed sub-score in [-1, 1].
type ScoreSet map[Category]float64

// Missing returns the categories absent from the set.
func (s ScoreSet) Missing() []Category {
	var missing []Category
	for _, c := range Categories() {
		if _, ok := s[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// Complete reports whether every category has a score.
func (s ScoreSet) Complete() bool {
	return len(s.Missing()) == 0
}

// Tier is the confidence classification of a signal.
type Tier string

const (
	TierStrong   Tier = "STRONG"
	TierModerate Tier = "MODERATE"
	TierWeak     Tier = "WEAK"
	TierNone     Tier = "NONE"
)

// TierFor classifies a confidence value. Boundaries are inclusive on the
// lower edge: 90 is STRONG, 70 is MODERATE, 50 is WEAK.
func TierFor(confidence float64) Tier {
	switch {
	case confidence >= 90:
		return TierStrong
	case confidence >= 70:
		return TierModerate
	case confidence >= 50:
		return TierWeak
	default:
		return TierNone
	}
}

// Actionable reports whether the tier appears in default alert views.
func (t Tier) Actionable() bool {
	return t != TierNone
}

// Vote is a user's gut call on a signal.
type Vote string

const (
	VoteUp   Vote = "UP"
	VoteDown Vote = "DOWN"
	VotePass Vote = "PASS"
)

// Valid reports whether the vote is one of the three known values.
func (v Vote) Valid() bool {
	return v == VoteUp || v == VoteDown || v == VotePass
}

// LifecycleState is a signal's position in its review/monitor/outcome
// state machine.
type LifecycleState string

const (
	StateNew      LifecycleState = "NEW"
	StateReviewed LifecycleState = "REVIEWED"
	StateWatching LifecycleState = "WATCHING"
	StateWin      LifecycleState = "WIN"
	StatePartial  LifecycleState = "PARTIAL"
	StateLoss     LifecycleState = "LOSS"
	StateStale    LifecycleState = "STALE"
)

// Terminal reports whether the state is an outcome. Terminal signals
// reject all further mutation.
func (s LifecycleState) Terminal() bool {
	switch s {
	case StateWin, StatePartial, StateLoss, StateStale:
		return true
	}
	return false
}

// Signal is one directional call on a ticker.
type Signal struct {
	ID             string              `json:"id"`
	Ticker         string              `json:"ticker"`
	Direction      Direction           `json:"direction"`
	CategoryScores ScoreSet            `json:"category_scores"`
	Reasons        map[Category]string `json:"reasons,omitempty"`

	RawConfidence   float64 `json:"raw_confidence"`
	FinalConfidence float64 `json:"final_confidence"`
	Tier            Tier    `json:"tier"`

	IssuedAt     time.Time `json:"issued_at"`
	EntryPrice   float64   `json:"entry_price"`
	CurrentPrice float64   `json:"current_price"`
	TargetLow    float64   `json:"target_low"`
	TargetHigh   float64   `json:"target_high"`

	State    LifecycleState `json:"state"`
	UserVote *Vote          `json:"user_vote,omitempty"`
	VotedAt  *time.Time     `json:"voted_at,omitempty"`
}

// Voted reports whether a vote has been recorded.
func (s *Signal) Voted() bool {
	return s.UserVote != nil
}

// FavorableBound is the target-range edge in the called direction.
func (s *Signal) FavorableBound() float64 {
	if s.Direction == DirectionRug {
		return s.TargetLow
	}
	return s.TargetHigh
}

// UnfavorableBound is the target-range edge against the called direction.
func (s *Signal) UnfavorableBound() float64 {
	if s.Direction == DirectionRug {
		return s.TargetHigh
	}
	return s.TargetLow
}

// FavorableMovePct is the percentage moved from the entry price in the
// called direction; negative when the move went against the call.
func (s *Signal) FavorableMovePct(price float64) float64 {
	if s.EntryPrice == 0 {
		return 0
	}
	move := (price - s.EntryPrice) / s.EntryPrice * 100
	if s.Direction == DirectionRug {
		return -move
	}
	return move
}

// ChangePct is the raw percentage change from entry to current price.
func (s *Signal) ChangePct() float64 {
	if s.EntryPrice == 0 {
		return 0
	}
	return (s.CurrentPrice - s.EntryPrice) / s.EntryPrice * 100
}

// WindowExpired reports whether the observation window has elapsed.
func (s *Signal) WindowExpired(now time.Time, window time.Duration) bool {
	return now.Sub(s.IssuedAt) >= window
}
