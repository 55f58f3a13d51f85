package contracts

import "time"

// WatchlistEntry is one tracked position on a user's watchlist. Return
// fields are derived on read, never stored.
type WatchlistEntry struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	SourceSignalID string `json:"source_signal_id,omitempty"`
	Ticker         string `json:"ticker"`

	EntryPrice    float64  `json:"entry_price"`
	StopLossPrice *float64 `json:"stop_loss_price,omitempty"`
	TargetPrice   float64  `json:"target_price"`
	CurrentPrice  float64  `json:"current_price"`
	Shares        float64  `json:"shares"`

	EntryDate time.Time `json:"entry_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DaysHeld is the whole number of days since entry.
func (e *WatchlistEntry) DaysHeld(now time.Time) int {
	if now.Before(e.EntryDate) {
		return 0
	}
	return int(now.Sub(e.EntryDate).Hours() / 24)
}

// ReturnPercent is the unrealized return relative to the entry price.
func (e *WatchlistEntry) ReturnPercent() float64 {
	if e.EntryPrice == 0 {
		return 0
	}
	return (e.CurrentPrice - e.EntryPrice) / e.EntryPrice * 100
}

// ReturnDollars is the unrealized return across all shares.
func (e *WatchlistEntry) ReturnDollars() float64 {
	return (e.CurrentPrice - e.EntryPrice) * e.Shares
}
