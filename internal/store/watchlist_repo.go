package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moonwatch/backend/internal/contracts"
)

// WatchlistRepository implements contracts.WatchlistRepository on pgx.
type WatchlistRepository struct {
	pool *pgxpool.Pool
}

// NewWatchlistRepository creates a watchlist repository.
func NewWatchlistRepository(pool *pgxpool.Pool) *WatchlistRepository {
	return &WatchlistRepository{pool: pool}
}

// Save upserts a watchlist entry.
func (r *WatchlistRepository) Save(ctx context.Context, entry *contracts.WatchlistEntry) error {
	query := `
		INSERT INTO watchlist.entries (
			id, user_id, source_signal_id, ticker,
			entry_price, stop_loss_price, target_price, current_price, shares,
			entry_date, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
			stop_loss_price = EXCLUDED.stop_loss_price,
			target_price    = EXCLUDED.target_price,
			current_price   = EXCLUDED.current_price,
			shares          = EXCLUDED.shares,
			updated_at      = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.UserID, entry.SourceSignalID, entry.Ticker,
		entry.EntryPrice, entry.StopLossPrice, entry.TargetPrice, entry.CurrentPrice, entry.Shares,
		entry.EntryDate, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save watchlist entry %s: %w", entry.ID, err)
	}
	return nil
}

// Delete removes an entry.
func (r *WatchlistRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM watchlist.entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete watchlist entry %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrEntryNotFound
	}
	return nil
}

// ListByUser returns all entries owned by a user.
func (r *WatchlistRepository) ListByUser(ctx context.Context, userID string) ([]*contracts.WatchlistEntry, error) {
	query := `
		SELECT id, user_id, source_signal_id, ticker,
		       entry_price, stop_loss_price, target_price, current_price, shares,
		       entry_date, created_at, updated_at
		FROM watchlist.entries
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query watchlist for %s: %w", userID, err)
	}
	defer rows.Close()

	var entries []*contracts.WatchlistEntry
	for rows.Next() {
		var e contracts.WatchlistEntry
		err := rows.Scan(
			&e.ID, &e.UserID, &e.SourceSignalID, &e.Ticker,
			&e.EntryPrice, &e.StopLossPrice, &e.TargetPrice, &e.CurrentPrice, &e.Shares,
			&e.EntryDate, &e.CreatedAt, &e.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan watchlist row: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist rows: %w", err)
	}
	return entries, nil
}
