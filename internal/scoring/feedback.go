package scoring

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/moonwatch/backend/internal/contracts"
	"github.com/moonwatch/backend/internal/policy"
)

// Adjuster applies a user's gut vote to a signal, producing the final
// confidence. Each signal accepts exactly one vote.
//
// The adjuster itself does not lock; callers must serialize access per
// signal (the engine's book does this).
type Adjuster struct {
	deltas policy.Votes
	log    zerolog.Logger
}

// NewAdjuster creates a feedback adjuster with the policy's vote deltas.
func NewAdjuster(deltas policy.Votes, log zerolog.Logger) *Adjuster {
	return &Adjuster{
		deltas: deltas,
		log:    log.With().Str("component", "scoring.adjuster").Logger(),
	}
}

// ApplyVote records a vote on the signal, adjusts final confidence, and
// recomputes the tier. Fails with ErrAlreadyVoted on a second vote and with
// ErrSignalRetired on terminal signals.
//
// For non-PASS votes a watchlist entry candidate is returned. The candidate
// is not stored anywhere; adding it to a watchlist is an explicit user
// action handled elsewhere.
func (a *Adjuster) ApplyVote(sig *contracts.Signal, vote contracts.Vote, userID string, now time.Time) (*contracts.WatchlistEntry, error) {
	if !vote.Valid() {
		return nil, fmt.Errorf("unknown vote %q", vote)
	}
	if sig.State.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", contracts.ErrSignalRetired, sig.ID, sig.State)
	}
	if sig.Voted() {
		return nil, fmt.Errorf("%w: %s", contracts.ErrAlreadyVoted, sig.ID)
	}

	v := vote
	sig.UserVote = &v
	sig.VotedAt = &now
	sig.FinalConfidence = Clamp(sig.RawConfidence+a.delta(vote), 0, 100)
	sig.Tier = contracts.TierFor(sig.FinalConfidence)
	if sig.State == contracts.StateNew {
		sig.State = contracts.StateReviewed
	}

	a.log.Info().
		Str("signal_id", sig.ID).
		Str("ticker", sig.Ticker).
		Str("vote", string(vote)).
		Float64("raw_confidence", sig.RawConfidence).
		Float64("final_confidence", sig.FinalConfidence).
		Str("tier", string(sig.Tier)).
		Msg("vote applied")

	if vote == contracts.VotePass {
		return nil, nil
	}

	return a.candidate(sig, userID, now), nil
}

// delta returns the confidence adjustment for a vote.
func (a *Adjuster) delta(vote contracts.Vote) float64 {
	switch vote {
	case contracts.VoteUp:
		return a.deltas.UpDelta
	case contracts.VoteDown:
		return a.deltas.DownDelta
	default:
		return a.deltas.PassDelta
	}
}

// candidate derives a watchlist entry from the voted signal. The target sits
// between the range midpoint and the favorable bound, pulled toward the
// favorable bound as final confidence rises.
func (a *Adjuster) candidate(sig *contracts.Signal, userID string, now time.Time) *contracts.WatchlistEntry {
	mid := (sig.TargetLow + sig.TargetHigh) / 2
	favorable := sig.FavorableBound()
	bias := sig.FinalConfidence / 100
	target := mid + (favorable-mid)*bias

	stop := sig.UnfavorableBound()

	return &contracts.WatchlistEntry{
		ID:             uuid.NewString(),
		UserID:         userID,
		SourceSignalID: sig.ID,
		Ticker:         sig.Ticker,
		EntryPrice:     sig.CurrentPrice,
		StopLossPrice:  &stop,
		TargetPrice:    target,
		CurrentPrice:   sig.CurrentPrice,
		Shares:         1,
		EntryDate:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
