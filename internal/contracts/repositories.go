package contracts

import (
	"context"
	"time"
)

// SignalRepository persists signals and their lifecycle transitions.
type SignalRepository interface {
	Save(ctx context.Context, sig *Signal) error
	UpdateState(ctx context.Context, id string, state LifecycleState, currentPrice float64) error
	RecordVote(ctx context.Context, id string, vote Vote, finalConfidence float64, votedAt time.Time) error
	GetActive(ctx context.Context) ([]*Signal, error)
	GetByID(ctx context.Context, id string) (*Signal, error)
}

// WatchlistRepository persists user watchlist entries.
type WatchlistRepository interface {
	Save(ctx context.Context, entry *WatchlistEntry) error
	Delete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]*WatchlistEntry, error)
}
