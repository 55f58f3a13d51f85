package contracts

import (
	"testing"
	"time"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		want       Tier
	}{
		{"well below weak", 10, TierNone},
		{"just below weak", 49.999, TierNone},
		{"weak lower edge", 50, TierWeak},
		{"mid weak", 58.5, TierWeak},
		{"just below moderate", 69.999, TierWeak},
		{"moderate lower edge", 70, TierModerate},
		{"just below strong", 89.999, TierModerate},
		{"strong lower edge", 90, TierStrong},
		{"max", 100, TierStrong},
		{"zero", 0, TierNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TierFor(tt.confidence); got != tt.want {
				t.Errorf("TierFor(%v) = %v, want %v", tt.confidence, got, tt.want)
			}
		})
	}
}

func TestTier_Actionable(t *testing.T) {
	for _, tier := range []Tier{TierStrong, TierModerate, TierWeak} {
		if !tier.Actionable() {
			t.Errorf("%s should be actionable", tier)
		}
	}
	if TierNone.Actionable() {
		t.Error("NONE should not be actionable")
	}
}

func TestLifecycleState_Terminal(t *testing.T) {
	terminal := []LifecycleState{StateWin, StatePartial, StateLoss, StateStale}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}

	active := []LifecycleState{StateNew, StateReviewed, StateWatching}
	for _, s := range active {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestVote_Valid(t *testing.T) {
	for _, v := range []Vote{VoteUp, VoteDown, VotePass} {
		if !v.Valid() {
			t.Errorf("%s should be valid", v)
		}
	}
	if Vote("MAYBE").Valid() {
		t.Error("unknown vote should be invalid")
	}
	if Vote("").Valid() {
		t.Error("empty vote should be invalid")
	}
}

func TestScoreSet_Missing(t *testing.T) {
	full := ScoreSet{
		CategoryTechnical: 0.8,
		CategorySentiment: 0.6,
		CategorySocial:    0.4,
		CategoryEarnings:  0.5,
	}
	if missing := full.Missing(); len(missing) != 0 {
		t.Errorf("complete set reported missing: %v", missing)
	}
	if !full.Complete() {
		t.Error("complete set reported incomplete")
	}

	partial := ScoreSet{
		CategoryTechnical: 0.8,
		CategorySocial:    0.4,
	}
	missing := partial.Missing()
	if len(missing) != 2 {
		t.Fatalf("got %d missing categories, want 2", len(missing))
	}
	if missing[0] != CategorySentiment || missing[1] != CategoryEarnings {
		t.Errorf("missing = %v, want [sentiment earnings]", missing)
	}

	// A zero score is present, not missing.
	zeroed := ScoreSet{
		CategoryTechnical: 0,
		CategorySentiment: 0,
		CategorySocial:    0,
		CategoryEarnings:  0,
	}
	if !zeroed.Complete() {
		t.Error("zero scores should count as present")
	}
}

func TestSignal_Bounds(t *testing.T) {
	moon := &Signal{Direction: DirectionMoon, TargetLow: 96, TargetHigh: 108}
	if got := moon.FavorableBound(); got != 108 {
		t.Errorf("MOON favorable = %v, want 108", got)
	}
	if got := moon.UnfavorableBound(); got != 96 {
		t.Errorf("MOON unfavorable = %v, want 96", got)
	}

	rug := &Signal{Direction: DirectionRug, TargetLow: 92, TargetHigh: 104}
	if got := rug.FavorableBound(); got != 92 {
		t.Errorf("RUG favorable = %v, want 92", got)
	}
	if got := rug.UnfavorableBound(); got != 104 {
		t.Errorf("RUG unfavorable = %v, want 104", got)
	}
}

func TestSignal_FavorableMovePct(t *testing.T) {
	tests := []struct {
		name      string
		direction Direction
		entry     float64
		price     float64
		want      float64
	}{
		{"moon up", DirectionMoon, 100, 106, 6},
		{"moon down", DirectionMoon, 100, 95, -5},
		{"rug down", DirectionRug, 100, 94, 6},
		{"rug up", DirectionRug, 100, 103, -3},
		{"zero entry", DirectionMoon, 0, 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := &Signal{Direction: tt.direction, EntryPrice: tt.entry}
			got := sig.FavorableMovePct(tt.price)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("FavorableMovePct(%v) = %v, want %v", tt.price, got, tt.want)
			}
		})
	}
}

func TestSignal_WindowExpired(t *testing.T) {
	issued := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	sig := &Signal{IssuedAt: issued}
	window := 72 * time.Hour

	if sig.WindowExpired(issued.Add(71*time.Hour), window) {
		t.Error("window should still be open at 71h")
	}
	if !sig.WindowExpired(issued.Add(72*time.Hour), window) {
		t.Error("window should be expired exactly at 72h")
	}
	if !sig.WindowExpired(issued.Add(100*time.Hour), window) {
		t.Error("window should be expired at 100h")
	}
}

func TestSignal_Voted(t *testing.T) {
	sig := &Signal{}
	if sig.Voted() {
		t.Error("fresh signal should not be voted")
	}
	v := VoteUp
	sig.UserVote = &v
	if !sig.Voted() {
		t.Error("signal with vote should report voted")
	}
}
