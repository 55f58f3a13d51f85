// Package lifecycle advances signals through their review/monitor/outcome
// state machine.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/moonwatch/backend/internal/contracts"
	"github.com/moonwatch/backend/internal/policy"
)

// Tracker evaluates lifecycle transitions for signals. Callers must serialize
// evaluation per signal; the tracker reads and writes multiple signal fields
// that have to be observed consistently.
type Tracker struct {
	cfg policy.Lifecycle
	log zerolog.Logger
}

// NewTracker creates a lifecycle tracker with the policy's windows.
func NewTracker(cfg policy.Lifecycle, log zerolog.Logger) *Tracker {
	return &Tracker{
		cfg: cfg,
		log: log.With().Str("component", "lifecycle.tracker").Logger(),
	}
}

// Promote moves a reviewed signal into active monitoring. Called on explicit
// watchlist addition.
func (t *Tracker) Promote(sig *contracts.Signal) error {
	if sig.State.Terminal() {
		return fmt.Errorf("%w: %s is %s", contracts.ErrSignalRetired, sig.ID, sig.State)
	}
	if sig.State != contracts.StateReviewed {
		return fmt.Errorf("cannot promote signal %s from %s", sig.ID, sig.State)
	}
	sig.State = contracts.StateWatching
	t.log.Info().Str("signal_id", sig.ID).Str("ticker", sig.Ticker).Msg("signal promoted to watching")
	return nil
}

// Evaluate advances the signal's lifecycle against the latest price tick.
// It returns the resulting state, which may be unchanged.
//
// Outcome checks run in a fixed order: LOSS before WIN before PARTIAL before
// STALE-by-timeout. Downside takes precedence when a stop and a target would
// trigger in the same update; backtests depend on this ordering.
func (t *Tracker) Evaluate(sig *contracts.Signal, tick *contracts.PriceTick, now time.Time) (contracts.LifecycleState, error) {
	if sig.State.Terminal() {
		return sig.State, fmt.Errorf("%w: %s is %s", contracts.ErrSignalRetired, sig.ID, sig.State)
	}
	if tick == nil || tick.OlderThan(now, t.cfg.PriceFreshness) {
		return sig.State, fmt.Errorf("%w: %s", contracts.ErrStalePriceData, sig.Ticker)
	}

	sig.CurrentPrice = tick.Price

	// High-confidence reviewed signals self-promote to monitoring after the
	// grace period even without an explicit user action.
	if sig.State == contracts.StateReviewed && t.graceElapsed(sig, now) && tierSelfPromotes(sig.Tier) {
		sig.State = contracts.StateWatching
		t.log.Info().Str("signal_id", sig.ID).Str("tier", string(sig.Tier)).Msg("signal auto-promoted to watching")
	}

	if sig.State != contracts.StateWatching {
		// Unreviewed or unpromoted signals only ever expire.
		if sig.WindowExpired(now, t.cfg.ObservationWindow) {
			return t.retire(sig, contracts.StateStale), nil
		}
		return sig.State, nil
	}

	expired := sig.WindowExpired(now, t.cfg.ObservationWindow)

	switch {
	case t.stopCrossed(sig, tick.Price):
		return t.retire(sig, contracts.StateLoss), nil
	case !expired && t.targetReached(sig, tick.Price):
		return t.retire(sig, contracts.StateWin), nil
	case expired && sig.FavorableMovePct(tick.Price) >= t.cfg.MinFavorableMovePct:
		return t.retire(sig, contracts.StatePartial), nil
	case expired:
		return t.retire(sig, contracts.StateStale), nil
	}

	return sig.State, nil
}

// ForceExpire retires a non-terminal signal as STALE once its observation
// window has elapsed. Used by maintenance when no fresh price is available.
func (t *Tracker) ForceExpire(sig *contracts.Signal, now time.Time) bool {
	if sig.State.Terminal() || !sig.WindowExpired(now, t.cfg.ObservationWindow) {
		return false
	}
	t.retire(sig, contracts.StateStale)
	return true
}

func (t *Tracker) retire(sig *contracts.Signal, state contracts.LifecycleState) contracts.LifecycleState {
	sig.State = state
	t.log.Info().
		Str("signal_id", sig.ID).
		Str("ticker", sig.Ticker).
		Str("outcome", string(state)).
		Float64("change_pct", sig.ChangePct()).
		Msg("signal retired")
	return state
}

func (t *Tracker) graceElapsed(sig *contracts.Signal, now time.Time) bool {
	since := sig.IssuedAt
	if sig.VotedAt != nil {
		since = *sig.VotedAt
	}
	return now.Sub(since) >= t.cfg.GracePeriod
}

func tierSelfPromotes(tier contracts.Tier) bool {
	return tier == contracts.TierStrong || tier == contracts.TierModerate
}

// stopCrossed reports a direction-aware stop breach.
func (t *Tracker) stopCrossed(sig *contracts.Signal, price float64) bool {
	if sig.Direction == contracts.DirectionRug {
		return price >= sig.UnfavorableBound()
	}
	return price <= sig.UnfavorableBound()
}

// targetReached reports a direction-aware target hit.
func (t *Tracker) targetReached(sig *contracts.Signal, price float64) bool {
	if sig.Direction == contracts.DirectionRug {
		return price <= sig.FavorableBound()
	}
	return price >= sig.FavorableBound()
}
