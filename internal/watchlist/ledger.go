// Package watchlist maintains per-user tracked positions derived from
// reviewed signals.
package watchlist

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moonwatch/backend/internal/contracts"
	"github.com/moonwatch/backend/internal/pricefeed"
	"github.com/moonwatch/backend/pkg/logger"
)

// Ledger is the in-memory watchlist store, optionally backed by a
// repository. Entries are created only through an explicit Add; nothing is
// added automatically.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]*contracts.WatchlistEntry
	prices  *pricefeed.Cache
	repo    contracts.WatchlistRepository // optional
	logger  *logger.Logger
}

// NewLedger creates a watchlist ledger. repo may be nil.
func NewLedger(prices *pricefeed.Cache, repo contracts.WatchlistRepository, log *logger.Logger) *Ledger {
	return &Ledger{
		entries: make(map[string]*contracts.WatchlistEntry),
		prices:  prices,
		repo:    repo,
		logger:  log.WithField("module", "watchlist"),
	}
}

// Add stores a new entry. Missing IDs and timestamps are filled in; the
// entry price must already be set by the caller.
func (l *Ledger) Add(ctx context.Context, entry *contracts.WatchlistEntry) (*contracts.WatchlistEntry, error) {
	if entry.UserID == "" {
		return nil, fmt.Errorf("watchlist entry requires a user id")
	}
	if entry.Ticker == "" {
		return nil, fmt.Errorf("watchlist entry requires a ticker")
	}
	if entry.EntryPrice <= 0 {
		return nil, fmt.Errorf("watchlist entry requires a positive entry price")
	}

	now := time.Now()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.EntryDate.IsZero() {
		entry.EntryDate = now
	}
	if entry.Shares <= 0 {
		entry.Shares = 1
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if entry.CurrentPrice <= 0 {
		entry.CurrentPrice = entry.EntryPrice
	}

	l.mu.Lock()
	l.entries[entry.ID] = entry
	l.mu.Unlock()

	if l.repo != nil {
		if err := l.repo.Save(ctx, entry); err != nil {
			l.logger.WithError(err).WithField("entry_id", entry.ID).Error("watchlist persist failed")
		}
	}

	l.logger.WithFields(map[string]interface{}{
		"entry_id": entry.ID,
		"user_id":  entry.UserID,
		"ticker":   entry.Ticker,
	}).Info("watchlist entry added")

	return entry, nil
}

// Update modifies the mutable fields of an entry.
func (l *Ledger) Update(ctx context.Context, id string, targetPrice *float64, stopLossPrice *float64, shares *float64) (*contracts.WatchlistEntry, error) {
	l.mu.Lock()
	entry, ok := l.entries[id]
	if !ok {
		l.mu.Unlock()
		return nil, contracts.ErrEntryNotFound
	}
	if targetPrice != nil {
		entry.TargetPrice = *targetPrice
	}
	if stopLossPrice != nil {
		entry.StopLossPrice = stopLossPrice
	}
	if shares != nil && *shares > 0 {
		entry.Shares = *shares
	}
	entry.UpdatedAt = time.Now()
	l.mu.Unlock()

	if l.repo != nil {
		if err := l.repo.Save(ctx, entry); err != nil {
			l.logger.WithError(err).WithField("entry_id", id).Error("watchlist persist failed")
		}
	}
	return entry, nil
}

// Remove deletes an entry.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	_, ok := l.entries[id]
	delete(l.entries, id)
	l.mu.Unlock()

	if !ok {
		return contracts.ErrEntryNotFound
	}
	if l.repo != nil {
		if err := l.repo.Delete(ctx, id); err != nil {
			l.logger.WithError(err).WithField("entry_id", id).Error("watchlist delete persist failed")
		}
	}
	return nil
}

// Get returns a single entry with its current price refreshed.
func (l *Ledger) Get(id string) (*contracts.WatchlistEntry, error) {
	l.mu.RLock()
	entry, ok := l.entries[id]
	l.mu.RUnlock()
	if !ok {
		return nil, contracts.ErrEntryNotFound
	}
	return l.refreshed(entry), nil
}

// ListByUser returns the user's entries with refreshed prices.
func (l *Ledger) ListByUser(userID string) []*contracts.WatchlistEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*contracts.WatchlistEntry
	for _, entry := range l.entries {
		if entry.UserID == userID {
			out = append(out, l.refreshed(entry))
		}
	}
	return out
}

// Load restores entries for a user from the repository at startup.
func (l *Ledger) Load(ctx context.Context, userID string) (int, error) {
	if l.repo == nil {
		return 0, nil
	}
	entries, err := l.repo.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load watchlist for %s: %w", userID, err)
	}
	l.mu.Lock()
	for _, entry := range entries {
		l.entries[entry.ID] = entry
	}
	l.mu.Unlock()
	return len(entries), nil
}

// refreshed returns a copy of the entry with the latest cached price.
// Return fields are derived on read, never stored.
func (l *Ledger) refreshed(entry *contracts.WatchlistEntry) *contracts.WatchlistEntry {
	out := *entry
	if l.prices != nil {
		if tick, ok := l.prices.Get(entry.Ticker); ok && !tick.IsStale {
			out.CurrentPrice = tick.Price
		}
	}
	return &out
}
