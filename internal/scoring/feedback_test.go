package scoring

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

func newTestAdjuster() *Adjuster {
	return NewAdjuster(policy.Default().Votes, zerolog.Nop())
}

func newScoredSignal(raw float64) *contracts.Signal {
	return &contracts.Signal{
		ID:              "sig-1",
		Ticker:          "XYZ",
		Direction:       contracts.DirectionMoon,
		RawConfidence:   raw,
		FinalConfidence: raw,
		Tier:            contracts.TierFor(raw),
		IssuedAt:        time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC),
		EntryPrice:      100,
		CurrentPrice:    100,
		TargetLow:       96,
		TargetHigh:      108,
		State:           contracts.StateNew,
	}
}

func TestAdjuster_ApplyVote_Up(t *testing.T) {
	adj := newTestAdjuster()
	sig := newScoredSignal(58.5)
	now := time.Now()

	candidate, err := adj.ApplyVote(sig, contracts.VoteUp, "user-1", now)
	require.NoError(t, err)
	require.NotNil(t, candidate)

	assert.InDelta(t, 61.5, sig.FinalConfidence, 1e-9)
	assert.InDelta(t, 58.5, sig.RawConfidence, 1e-9, "raw confidence must stay untouched")
	assert.Equal(t, contracts.TierWeak, sig.Tier)
	assert.Equal(t, contracts.StateReviewed, sig.State)
	require.NotNil(t, sig.UserVote)
	assert.Equal(t, contracts.VoteUp, *sig.UserVote)
	require.NotNil(t, sig.VotedAt)
	assert.Equal(t, now, *sig.VotedAt)
}

func TestAdjuster_ApplyVote_DownCrossesTierBoundary(t *testing.T) {
	adj := newTestAdjuster()
	sig := newScoredSignal(51)

	_, err := adj.ApplyVote(sig, contracts.VoteDown, "user-1", time.Now())
	require.NoError(t, err)

	assert.InDelta(t, 49, sig.FinalConfidence, 1e-9)
	assert.Equal(t, contracts.TierNone, sig.Tier, "49 drops out of WEAK")
}

func TestAdjuster_ApplyVote_ClampsAtBounds(t *testing.T) {
	adj := newTestAdjuster()

	high := newScoredSignal(99)
	_, err := adj.ApplyVote(high, contracts.VoteUp, "user-1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 100.0, high.FinalConfidence)

	low := newScoredSignal(1)
	_, err = adj.ApplyVote(low, contracts.VoteDown, "user-1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0.0, low.FinalConfidence)
}

func TestAdjuster_ApplyVote_SecondVoteRejected(t *testing.T) {
	adj := newTestAdjuster()
	sig := newScoredSignal(58.5)

	_, err := adj.ApplyVote(sig, contracts.VoteUp, "user-1", time.Now())
	require.NoError(t, err)

	_, err = adj.ApplyVote(sig, contracts.VoteDown, "user-1", time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrAlreadyVoted))

	// First vote's effect stands.
	assert.InDelta(t, 61.5, sig.FinalConfidence, 1e-9)
}

func TestAdjuster_ApplyVote_RetiredSignalRejected(t *testing.T) {
	adj := newTestAdjuster()
	sig := newScoredSignal(58.5)
	sig.State = contracts.StateStale

	_, err := adj.ApplyVote(sig, contracts.VoteUp, "user-1", time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrSignalRetired))
	assert.Nil(t, sig.UserVote)
}

func TestAdjuster_ApplyVote_PassHasNoCandidate(t *testing.T) {
	adj := newTestAdjuster()
	sig := newScoredSignal(58.5)

	candidate, err := adj.ApplyVote(sig, contracts.VotePass, "user-1", time.Now())
	require.NoError(t, err)
	assert.Nil(t, candidate, "PASS must not suggest a watchlist entry")

	assert.InDelta(t, 58.5, sig.FinalConfidence, 1e-9)
	assert.Equal(t, contracts.StateReviewed, sig.State, "PASS still counts as review")
	assert.True(t, sig.Voted())
}

func TestAdjuster_ApplyVote_InvalidVote(t *testing.T) {
	adj := newTestAdjuster()
	sig := newScoredSignal(58.5)

	_, err := adj.ApplyVote(sig, contracts.Vote("SIDEWAYS"), "user-1", time.Now())
	assert.Error(t, err)
	assert.False(t, sig.Voted())
}

func TestAdjuster_CandidateTargetBias(t *testing.T) {
	adj := newTestAdjuster()
	sig := newScoredSignal(58.5)
	now := time.Now()

	candidate, err := adj.ApplyVote(sig, contracts.VoteUp, "user-7", now)
	require.NoError(t, err)
	require.NotNil(t, candidate)

	// mid = 102, favorable = 108, bias = 0.615
	assert.InDelta(t, 102+(108-102)*0.615, candidate.TargetPrice, 1e-9)
	require.NotNil(t, candidate.StopLossPrice)
	assert.Equal(t, 96.0, *candidate.StopLossPrice)

	assert.Equal(t, "user-7", candidate.UserID)
	assert.Equal(t, sig.ID, candidate.SourceSignalID)
	assert.Equal(t, sig.Ticker, candidate.Ticker)
	assert.Equal(t, sig.CurrentPrice, candidate.EntryPrice)
	assert.Equal(t, 1.0, candidate.Shares)
	assert.NotEmpty(t, candidate.ID)
	assert.Equal(t, now, candidate.EntryDate)
}
