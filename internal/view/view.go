// Package view produces ordered, filtered projections of signals and
// watchlist entries for the API layer. Everything here is pure: inputs are
// never mutated, outputs are fresh slices.
package view

import (
	"sort"
	"time"

	"github.com/moonwatch/backend/internal/contracts"
)

// SortKey names a supported signal ordering.
type SortKey string

const (
	SortByConfidence SortKey = "confidence"
	SortByChange     SortKey = "change"
	SortByTicker     SortKey = "ticker"
	SortByTime       SortKey = "time"
)

// Options controls a signal projection.
type Options struct {
	Key           SortKey
	Ascending     bool    // change supports both orders; others use their documented default
	MinConfidence float64 // filter on final confidence; policy default is 48
	IncludeStale  bool    // include terminal/stale signals
	IncludeNone   bool    // include NONE-tier signals (excluded from default views)
}

// SignalView is the outbound signal record. Every record carries the
// disclaimer marker; omitting it is a contract violation.
type SignalView struct {
	ID                 string                        `json:"id"`
	Ticker             string                        `json:"ticker"`
	Direction          contracts.Direction           `json:"direction"`
	RawConfidence      float64                       `json:"raw_confidence"`
	FinalConfidence    float64                       `json:"final_confidence"`
	Tier               contracts.Tier                `json:"tier"`
	Reasons            map[contracts.Category]string `json:"reasons,omitempty"`
	LifecycleState     contracts.LifecycleState      `json:"lifecycle_state"`
	EntryPrice         float64                       `json:"entry_price"`
	CurrentPrice       float64                       `json:"current_price"`
	TargetLow          float64                       `json:"target_low"`
	TargetHigh         float64                       `json:"target_high"`
	ChangePct          float64                       `json:"change_pct"`
	IssuedAt           time.Time                     `json:"issued_at"`
	VotedAt            *time.Time                    `json:"voted_at,omitempty"`
	UserVote           *contracts.Vote               `json:"user_vote,omitempty"`
	DisclaimerRequired bool                          `json:"disclaimer_required"`
}

// EntryView is the outbound watchlist record with derived return fields.
type EntryView struct {
	ID                 string    `json:"id"`
	Ticker             string    `json:"ticker"`
	SourceSignalID     string    `json:"source_signal_id"`
	EntryPrice         float64   `json:"entry_price"`
	StopLossPrice      *float64  `json:"stop_loss_price,omitempty"`
	TargetPrice        float64   `json:"target_price"`
	CurrentPrice       float64   `json:"current_price"`
	Shares             float64   `json:"shares"`
	DaysHeld           int       `json:"days_held"`
	ReturnPercent      float64   `json:"return_percent"`
	ReturnDollars      float64   `json:"return_dollars"`
	EntryDate          time.Time `json:"entry_date"`
	DisclaimerRequired bool      `json:"disclaimer_required"`
}

// ProjectSignals filters, sorts and converts signals in one pass.
func ProjectSignals(signals []*contracts.Signal, opts Options) []SignalView {
	filtered := FilterSignals(signals, opts)
	sorted := SortSignals(filtered, opts.Key, opts.Ascending)

	out := make([]SignalView, 0, len(sorted))
	for _, sig := range sorted {
		out = append(out, SignalView{
			ID:                 sig.ID,
			Ticker:             sig.Ticker,
			Direction:          sig.Direction,
			RawConfidence:      sig.RawConfidence,
			FinalConfidence:    sig.FinalConfidence,
			Tier:               sig.Tier,
			Reasons:            sig.Reasons,
			LifecycleState:     sig.State,
			EntryPrice:         sig.EntryPrice,
			CurrentPrice:       sig.CurrentPrice,
			TargetLow:          sig.TargetLow,
			TargetHigh:         sig.TargetHigh,
			ChangePct:          sig.ChangePct(),
			IssuedAt:           sig.IssuedAt,
			VotedAt:            sig.VotedAt,
			UserVote:           sig.UserVote,
			DisclaimerRequired: true,
		})
	}
	return out
}

// FilterSignals applies the confidence threshold and freshness partition.
func FilterSignals(signals []*contracts.Signal, opts Options) []*contracts.Signal {
	out := make([]*contracts.Signal, 0, len(signals))
	for _, sig := range signals {
		if sig.FinalConfidence < opts.MinConfidence {
			continue
		}
		if !opts.IncludeNone && !sig.Tier.Actionable() {
			continue
		}
		if !opts.IncludeStale && sig.State.Terminal() {
			continue
		}
		out = append(out, sig)
	}
	return out
}

// Partition splits signals into fresh (non-terminal) and stale (terminal) sets.
func Partition(signals []*contracts.Signal) (fresh, stale []*contracts.Signal) {
	for _, sig := range signals {
		if sig.State.Terminal() {
			stale = append(stale, sig)
		} else {
			fresh = append(fresh, sig)
		}
	}
	return fresh, stale
}

// SortSignals returns a new ordered slice. Sorting is stable: ties not
// covered by a documented tie-break keep their original relative order.
func SortSignals(signals []*contracts.Signal, key SortKey, ascending bool) []*contracts.Signal {
	out := make([]*contracts.Signal, len(signals))
	copy(out, signals)

	switch key {
	case SortByChange:
		sort.SliceStable(out, func(i, j int) bool {
			if ascending {
				return out[i].ChangePct() < out[j].ChangePct()
			}
			return out[i].ChangePct() > out[j].ChangePct()
		})
	case SortByTicker:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Ticker < out[j].Ticker
		})
	case SortByTime:
		// Newest first by default.
		sort.SliceStable(out, func(i, j int) bool {
			if ascending {
				return out[i].IssuedAt.Before(out[j].IssuedAt)
			}
			return out[i].IssuedAt.After(out[j].IssuedAt)
		})
	default: // SortByConfidence
		// Highest final confidence first; equal confidence breaks toward
		// the more recently issued signal.
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].FinalConfidence != out[j].FinalConfidence {
				return out[i].FinalConfidence > out[j].FinalConfidence
			}
			return out[i].IssuedAt.After(out[j].IssuedAt)
		})
	}

	return out
}

// ProjectEntries converts watchlist entries, computing derived fields as of now.
func ProjectEntries(entries []*contracts.WatchlistEntry, now time.Time) []EntryView {
	out := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryView{
			ID:                 e.ID,
			Ticker:             e.Ticker,
			SourceSignalID:     e.SourceSignalID,
			EntryPrice:         e.EntryPrice,
			StopLossPrice:      e.StopLossPrice,
			TargetPrice:        e.TargetPrice,
			CurrentPrice:       e.CurrentPrice,
			Shares:             e.Shares,
			DaysHeld:           e.DaysHeld(now),
			ReturnPercent:      e.ReturnPercent(),
			ReturnDollars:      e.ReturnDollars(),
			EntryDate:          e.EntryDate,
			DisclaimerRequired: true,
		})
	}

	// Best performers first.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReturnPercent > out[j].ReturnPercent
	})

	return out
}
