package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonwatch/backend/internal/contracts"
	"github.com/moonwatch/backend/internal/policy"
)

var issuedAt = time.Date(2026, 2, 2, 9, 30, 0, 0, time.UTC)

func newTestTracker() *Tracker {
	return NewTracker(policy.Default().Lifecycle, zerolog.Nop())
}

// watchingSignal is a MOON call at 100 with target 108 and stop 96.
func watchingSignal() *contracts.Signal {
	return &contracts.Signal{
		ID:              "sig-1",
		Ticker:          "XYZ",
		Direction:       contracts.DirectionMoon,
		RawConfidence:   75,
		FinalConfidence: 75,
		Tier:            contracts.TierModerate,
		IssuedAt:        issuedAt,
		EntryPrice:      100,
		CurrentPrice:    100,
		TargetLow:       96,
		TargetHigh:      108,
		State:           contracts.StateWatching,
	}
}

func tickAt(price float64, at time.Time) *contracts.PriceTick {
	return &contracts.PriceTick{Ticker: "XYZ", Price: price, Timestamp: at}
}

func TestTracker_Evaluate_Win(t *testing.T) {
	tr := newTestTracker()
	sig := watchingSignal()
	now := issuedAt.Add(24 * time.Hour)

	state, err := tr.Evaluate(sig, tickAt(108.5, now), now)
	require.NoError(t, err)
	assert.Equal(t, contracts.StateWin, state)
	assert.Equal(t, 108.5, sig.CurrentPrice)
}

func TestTracker_Evaluate_Loss(t *testing.T) {
	tr := newTestTracker()
	sig := watchingSignal()
	now := issuedAt.Add(24 * time.Hour)

	state, err := tr.Evaluate(sig, tickAt(95.5, now), now)
	require.NoError(t, err)
	assert.Equal(t, contracts.StateLoss, state)
}

func TestTracker_Evaluate_RugDirection(t *testing.T) {
	tr := newTestTracker()
	now := issuedAt.Add(12 * time.Hour)

	rug := watchingSignal()
	rug.Direction = contracts.DirectionRug
	rug.TargetLow = 92
	rug.TargetHigh = 104

	// Price falling to the low bound is a win for a RUG call.
	state, err := tr.Evaluate(rug, tickAt(91.8, now), now)
	require.NoError(t, err)
	assert.Equal(t, contracts.StateWin, state)

	rug = watchingSignal()
	rug.Direction = contracts.DirectionRug
	rug.TargetLow = 92
	rug.TargetHigh = 104

	// Price rising through the high bound is the stop.
	state, err = tr.Evaluate(rug, tickAt(104.2, now), now)
	require.NoError(t, err)
	assert.Equal(t, contracts.StateLoss, state)
}

func TestTracker_Evaluate_LossBeatsWinOnSameTick(t *testing.T) {
	tr := newTestTracker()
	now := issuedAt.Add(time.Hour)

	// Degenerate range where one price crosses both bounds: the downside
	// check must run first.
	sig := watchingSignal()
	sig.TargetLow = 100
	sig.TargetHigh = 100

	state, err := tr.Evaluate(sig, tickAt(100, now), now)
	require.NoError(t, err)
	assert.Equal(t, contracts.StateLoss, state)
}

func TestTracker_Evaluate_PartialAtExpiry(t *testing.T) {
	tr := newTestTracker()
	sig := watchingSignal()
	expired := issuedAt.Add(73 * time.Hour)

	// +6% favorable move, above the 5% partial floor but short of target.
	state, err := tr.Evaluate(sig, tickAt(106, expired), expired)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatePartial, state)
}

func TestTracker_Evaluate_TargetMoveAtExpiryIsPartial(t *testing.T) {
	tr := newTestTracker()
	sig := watchingSignal()
	expired := issuedAt.Add(80 * time.Hour)

	// The target was only reached after the window closed; that does not
	// count as a WIN anymore.
	state, err := tr.Evaluate(sig, tickAt(110, expired), expired)
	require.NoError(t, err)
	assert.Equal(t, contracts.StatePartial, state)
}

func TestTracker_Evaluate_StaleAtExpiry(t *testing.T) {
	tr := newTestTracker()
	sig := watchingSignal()
	expired := issuedAt.Add(73 * time.Hour)

	// +2% is below the partial floor.
	state, err := tr.Evaluate(sig, tickAt(102, expired), expired)
	require.NoError(t, err)
	assert.Equal(t, contracts.StateStale, state)
}

func TestTracker_Evaluate_LossStillFiresAfterExpiry(t *testing.T) {
	tr := newTestTracker()
	sig := watchingSignal()
	expired := issuedAt.Add(73 * time.Hour)

	state, err := tr.Evaluate(sig, tickAt(94, expired), expired)
	require.NoError(t, err)
	assert.Equal(t, contracts.StateLoss, state)
}

func TestTracker_Evaluate_NoTransitionInsideWindow(t *testing.T) {
	tr := newTestTracker()
	sig := watchingSignal()
	now := issuedAt.Add(10 * time.Hour)

	state, err := tr.Evaluate(sig, tickAt(103, now), now)
	require.NoError(t, err)
	assert.Equal(t, contracts.StateWatching, state)
	assert.Equal(t, 103.0, sig.CurrentPrice)
}

func TestTracker_Evaluate_TerminalRejected(t *testing.T) {
	tr := newTestTracker()
	now := issuedAt.Add(time.Hour)

	for _, terminal := range []contracts.LifecycleState{
		contracts.StateWin, contracts.StatePartial, contracts.StateLoss, contracts.StateStale,
	} {
		sig := watchingSignal()
		sig.State = terminal

		state, err := tr.Evaluate(sig, tickAt(50, now), now)
		require.Error(t, err)
		assert.True(t, errors.Is(err, contracts.ErrSignalRetired))
		assert.Equal(t, terminal, state, "terminal state must not change")
	}
}

func TestTracker_Evaluate_StalePriceSkipped(t *testing.T) {
	tr := newTestTracker()
	sig := watchingSignal()
	now := issuedAt.Add(time.Hour)

	// Tick older than the 10m freshness bound.
	old := tickAt(108.5, now.Add(-11*time.Minute))
	state, err := tr.Evaluate(sig, old, now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrStalePriceData))
	assert.Equal(t, contracts.StateWatching, state)
	assert.Equal(t, 100.0, sig.CurrentPrice, "price must not update from a stale tick")

	_, err = tr.Evaluate(sig, nil, now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrStalePriceData))
}

func TestTracker_Evaluate_AutoPromoteAfterGrace(t *testing.T) {
	tests := []struct {
		name      string
		tier      contracts.Tier
		elapsed   time.Duration
		wantState contracts.LifecycleState
	}{
		{"strong after grace", contracts.TierStrong, 5 * time.Hour, contracts.StateWatching},
		{"moderate after grace", contracts.TierModerate, 5 * time.Hour, contracts.StateWatching},
		{"weak never self-promotes", contracts.TierWeak, 5 * time.Hour, contracts.StateReviewed},
		{"strong before grace", contracts.TierStrong, 3 * time.Hour, contracts.StateReviewed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestTracker()
			sig := watchingSignal()
			sig.State = contracts.StateReviewed
			sig.Tier = tt.tier

			now := issuedAt.Add(tt.elapsed)
			state, err := tr.Evaluate(sig, tickAt(101, now), now)
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, state)
		})
	}
}

func TestTracker_Evaluate_GraceCountsFromVote(t *testing.T) {
	tr := newTestTracker()
	sig := watchingSignal()
	sig.State = contracts.StateReviewed
	sig.Tier = contracts.TierStrong
	votedAt := issuedAt.Add(3 * time.Hour)
	sig.VotedAt = &votedAt

	// 5h after issue but only 2h after the vote: grace not yet elapsed.
	now := issuedAt.Add(5 * time.Hour)
	state, err := tr.Evaluate(sig, tickAt(101, now), now)
	require.NoError(t, err)
	assert.Equal(t, contracts.StateReviewed, state)
}

func TestTracker_Evaluate_UnpromotedSignalsOnlyExpire(t *testing.T) {
	tr := newTestTracker()
	sig := watchingSignal()
	sig.State = contracts.StateNew
	sig.Tier = contracts.TierWeak

	// Target-level price, but a NEW signal never wins; inside the window it
	// just sits there.
	now := issuedAt.Add(time.Hour)
	state, err := tr.Evaluate(sig, tickAt(110, now), now)
	require.NoError(t, err)
	assert.Equal(t, contracts.StateNew, state)

	expired := issuedAt.Add(73 * time.Hour)
	state, err = tr.Evaluate(sig, tickAt(110, expired), expired)
	require.NoError(t, err)
	assert.Equal(t, contracts.StateStale, state)
}

func TestTracker_Promote(t *testing.T) {
	tr := newTestTracker()

	sig := watchingSignal()
	sig.State = contracts.StateReviewed
	require.NoError(t, tr.Promote(sig))
	assert.Equal(t, contracts.StateWatching, sig.State)

	// NEW signals need a review first.
	sig = watchingSignal()
	sig.State = contracts.StateNew
	assert.Error(t, tr.Promote(sig))

	sig = watchingSignal()
	sig.State = contracts.StateLoss
	err := tr.Promote(sig)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrSignalRetired))
}

func TestTracker_ForceExpire(t *testing.T) {
	tr := newTestTracker()

	sig := watchingSignal()
	assert.False(t, tr.ForceExpire(sig, issuedAt.Add(time.Hour)), "inside window")
	assert.Equal(t, contracts.StateWatching, sig.State)

	assert.True(t, tr.ForceExpire(sig, issuedAt.Add(73*time.Hour)))
	assert.Equal(t, contracts.StateStale, sig.State)

	// Already terminal: nothing to do.
	assert.False(t, tr.ForceExpire(sig, issuedAt.Add(80*time.Hour)))
}
