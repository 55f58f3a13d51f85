package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonwatch/backend/internal/contracts"
)

var baseTime = time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)

func makeSignal(id string, confidence float64, issuedOffset time.Duration) *contracts.Signal {
	return &contracts.Signal{
		ID:              id,
		Ticker:          id,
		Direction:       contracts.DirectionMoon,
		RawConfidence:   confidence,
		FinalConfidence: confidence,
		Tier:            contracts.TierFor(confidence),
		IssuedAt:        baseTime.Add(issuedOffset),
		EntryPrice:      100,
		CurrentPrice:    100,
		State:           contracts.StateWatching,
	}
}

func TestProjectSignals_ConfidenceOrderWithTieBreak(t *testing.T) {
	older := makeSignal("OLD", 75, 0)
	newer := makeSignal("NEW", 75, time.Hour)
	highest := makeSignal("TOP", 92, -time.Hour)

	views := ProjectSignals([]*contracts.Signal{older, newer, highest}, Options{
		Key: SortByConfidence,
	})

	require.Len(t, views, 3)
	assert.Equal(t, "TOP", views[0].ID)
	assert.Equal(t, "NEW", views[1].ID, "equal confidence breaks toward the newer signal")
	assert.Equal(t, "OLD", views[2].ID)
}

func TestProjectSignals_MinConfidenceFilter(t *testing.T) {
	signals := []*contracts.Signal{
		makeSignal("A", 90, 0),
		makeSignal("B", 55, 0),
		makeSignal("C", 47.9, 0), // below the default floor and NONE tier
	}

	views := ProjectSignals(signals, Options{Key: SortByConfidence, MinConfidence: 48})
	require.Len(t, views, 2)
	assert.Equal(t, "A", views[0].ID)
	assert.Equal(t, "B", views[1].ID)
}

func TestProjectSignals_NoneTierHiddenByDefault(t *testing.T) {
	// Confidence 49 passes a floor of 48 but classifies as NONE.
	signals := []*contracts.Signal{makeSignal("A", 49, 0)}

	views := ProjectSignals(signals, Options{MinConfidence: 48})
	assert.Empty(t, views)

	views = ProjectSignals(signals, Options{MinConfidence: 48, IncludeNone: true})
	assert.Len(t, views, 1)
}

func TestProjectSignals_TerminalHiddenByDefault(t *testing.T) {
	retired := makeSignal("GONE", 80, 0)
	retired.State = contracts.StateLoss
	active := makeSignal("LIVE", 80, 0)

	views := ProjectSignals([]*contracts.Signal{retired, active}, Options{})
	require.Len(t, views, 1)
	assert.Equal(t, "LIVE", views[0].ID)

	views = ProjectSignals([]*contracts.Signal{retired, active}, Options{IncludeStale: true})
	assert.Len(t, views, 2)
}

func TestProjectSignals_DisclaimerAlwaysSet(t *testing.T) {
	signals := []*contracts.Signal{
		makeSignal("A", 95, 0),
		makeSignal("B", 60, 0),
	}

	views := ProjectSignals(signals, Options{IncludeStale: true, IncludeNone: true})
	require.NotEmpty(t, views)
	for _, v := range views {
		assert.True(t, v.DisclaimerRequired, "every outbound record carries the disclaimer marker")
	}
}

func TestProjectSignals_InputNotMutated(t *testing.T) {
	a := makeSignal("A", 60, 0)
	b := makeSignal("B", 90, time.Hour)
	input := []*contracts.Signal{a, b}

	_ = ProjectSignals(input, Options{Key: SortByConfidence})

	assert.Same(t, a, input[0], "input order must be preserved")
	assert.Same(t, b, input[1])
}

func TestSortSignals_ByChange(t *testing.T) {
	up := makeSignal("UP", 70, 0)
	up.CurrentPrice = 110
	down := makeSignal("DOWN", 70, 0)
	down.CurrentPrice = 90
	flat := makeSignal("FLAT", 70, 0)

	sorted := SortSignals([]*contracts.Signal{down, flat, up}, SortByChange, false)
	assert.Equal(t, []string{"UP", "FLAT", "DOWN"}, ids(sorted))

	sorted = SortSignals([]*contracts.Signal{down, flat, up}, SortByChange, true)
	assert.Equal(t, []string{"DOWN", "FLAT", "UP"}, ids(sorted))
}

func TestSortSignals_ByTickerAndTime(t *testing.T) {
	a := makeSignal("AAA", 70, 2*time.Hour)
	b := makeSignal("BBB", 70, time.Hour)
	c := makeSignal("CCC", 70, 3*time.Hour)

	sorted := SortSignals([]*contracts.Signal{c, a, b}, SortByTicker, false)
	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, ids(sorted))

	// Time defaults to newest first.
	sorted = SortSignals([]*contracts.Signal{a, b, c}, SortByTime, false)
	assert.Equal(t, []string{"CCC", "AAA", "BBB"}, ids(sorted))
}

func TestSortSignals_Stability(t *testing.T) {
	// All equal on the sort key: original order must survive.
	signals := []*contracts.Signal{
		makeSignal("FIRST", 70, 0),
		makeSignal("SECOND", 70, 0),
		makeSignal("THIRD", 70, 0),
	}

	sorted := SortSignals(signals, SortByChange, false)
	assert.Equal(t, []string{"FIRST", "SECOND", "THIRD"}, ids(sorted))
}

func TestPartition(t *testing.T) {
	live := makeSignal("LIVE", 70, 0)
	won := makeSignal("WON", 70, 0)
	won.State = contracts.StateWin
	stale := makeSignal("STALE", 70, 0)
	stale.State = contracts.StateStale

	fresh, retired := Partition([]*contracts.Signal{live, won, stale})
	assert.Equal(t, []string{"LIVE"}, ids(fresh))
	assert.Equal(t, []string{"WON", "STALE"}, ids(retired))
}

func TestProjectEntries(t *testing.T) {
	now := baseTime.Add(48 * time.Hour)
	stop := 95.0

	entries := []*contracts.WatchlistEntry{
		{
			ID: "flat", Ticker: "FLT", EntryPrice: 100, CurrentPrice: 100,
			Shares: 1, EntryDate: baseTime,
		},
		{
			ID: "winner", Ticker: "WIN", SourceSignalID: "sig-9",
			EntryPrice: 100, CurrentPrice: 112, StopLossPrice: &stop,
			Shares: 5, EntryDate: baseTime,
		},
	}

	views := ProjectEntries(entries, now)
	require.Len(t, views, 2)

	// Best performer first.
	assert.Equal(t, "winner", views[0].ID)
	assert.InDelta(t, 12, views[0].ReturnPercent, 1e-9)
	assert.InDelta(t, 60, views[0].ReturnDollars, 1e-9)
	assert.Equal(t, 2, views[0].DaysHeld)
	assert.Equal(t, "sig-9", views[0].SourceSignalID)
	require.NotNil(t, views[0].StopLossPrice)

	for _, v := range views {
		assert.True(t, v.DisclaimerRequired)
	}
}

func ids(signals []*contracts.Signal) []string {
	out := make([]string, len(signals))
	for i, s := range signals {
		out[i] = s.ID
	}
	return out
}
