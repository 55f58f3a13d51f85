package contracts

import "time"

// PriceTick is one observed price for a ticker.
type PriceTick struct {
	Ticker    string    `json:"ticker"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source,omitempty"`
	IsStale   bool      `json:"is_stale"`
}

// OlderThan reports whether the tick is older than the freshness bound.
func (t *PriceTick) OlderThan(now time.Time, freshness time.Duration) bool {
	return now.Sub(t.Timestamp) > freshness
}
