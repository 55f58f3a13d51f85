// Package store implements the PostgreSQL repositories.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moonwatch/backend/internal/contracts"
)

// SignalRepository implements contracts.SignalRepository on pgx.
type SignalRepository struct {
	pool *pgxpool.Pool
}

// NewSignalRepository creates a signal repository.
func NewSignalRepository(pool *pgxpool.Pool) *SignalRepository {
	return &SignalRepository{pool: pool}
}

// Save upserts a signal row. Category scores and reasons are stored as JSONB.
func (r *SignalRepository) Save(ctx context.Context, sig *contracts.Signal) error {
	scores, err := json.Marshal(sig.CategoryScores)
	if err != nil {
		return fmt.Errorf("marshal category scores: %w", err)
	}
	reasons, err := json.Marshal(sig.Reasons)
	if err != nil {
		return fmt.Errorf("marshal reasons: %w", err)
	}

	query := `
		INSERT INTO signals.signals (
			id, ticker, direction, category_scores, reasons,
			raw_confidence, final_confidence, tier,
			issued_at, entry_price, current_price,
			target_low, target_high, lifecycle_state, user_vote, voted_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (id) DO UPDATE SET
			final_confidence = EXCLUDED.final_confidence,
			tier             = EXCLUDED.tier,
			current_price    = EXCLUDED.current_price,
			lifecycle_state  = EXCLUDED.lifecycle_state,
			user_vote        = EXCLUDED.user_vote,
			voted_at         = EXCLUDED.voted_at
	`

	_, err = r.pool.Exec(ctx, query,
		sig.ID, sig.Ticker, string(sig.Direction), scores, reasons,
		sig.RawConfidence, sig.FinalConfidence, string(sig.Tier),
		sig.IssuedAt, sig.EntryPrice, sig.CurrentPrice,
		sig.TargetLow, sig.TargetHigh, string(sig.State), voteValue(sig.UserVote), sig.VotedAt,
	)
	if err != nil {
		return fmt.Errorf("save signal %s: %w", sig.ID, err)
	}
	return nil
}

// UpdateState records a lifecycle transition.
func (r *SignalRepository) UpdateState(ctx context.Context, id string, state contracts.LifecycleState, currentPrice float64) error {
	query := `
		UPDATE signals.signals
		SET lifecycle_state = $2, current_price = $3
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, string(state), currentPrice)
	if err != nil {
		return fmt.Errorf("update state for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrSignalNotFound
	}
	return nil
}

// RecordVote persists the vote and the adjusted final confidence.
func (r *SignalRepository) RecordVote(ctx context.Context, id string, vote contracts.Vote, finalConfidence float64, votedAt time.Time) error {
	query := `
		UPDATE signals.signals
		SET user_vote = $2, final_confidence = $3, tier = $4, voted_at = $5,
		    lifecycle_state = CASE WHEN lifecycle_state = 'NEW' THEN 'REVIEWED' ELSE lifecycle_state END
		WHERE id = $1 AND user_vote IS NULL
	`
	tier := contracts.TierFor(finalConfidence)
	tag, err := r.pool.Exec(ctx, query, id, string(vote), finalConfidence, string(tier), votedAt)
	if err != nil {
		return fmt.Errorf("record vote for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrAlreadyVoted
	}
	return nil
}

// GetActive returns all non-terminal signals.
func (r *SignalRepository) GetActive(ctx context.Context) ([]*contracts.Signal, error) {
	query := selectColumns + `
		WHERE lifecycle_state IN ('NEW', 'REVIEWED', 'WATCHING')
		ORDER BY issued_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active signals: %w", err)
	}
	defer rows.Close()

	var signals []*contracts.Signal
	for rows.Next() {
		sig, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active signals: %w", err)
	}
	return signals, nil
}

// GetByID fetches a single signal.
func (r *SignalRepository) GetByID(ctx context.Context, id string) (*contracts.Signal, error) {
	query := selectColumns + ` WHERE id = $1`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query signal %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, contracts.ErrSignalNotFound
	}
	return scanSignal(rows)
}

const selectColumns = `
	SELECT id, ticker, direction, category_scores, reasons,
	       raw_confidence, final_confidence, tier,
	       issued_at, entry_price, current_price,
	       target_low, target_high, lifecycle_state, user_vote, voted_at
	FROM signals.signals
`

func scanSignal(rows pgx.Rows) (*contracts.Signal, error) {
	var (
		sig             contracts.Signal
		direction, tier string
		state           string
		scoresJSON      []byte
		reasonsJSON     []byte
		vote            *string
	)

	err := rows.Scan(
		&sig.ID, &sig.Ticker, &direction, &scoresJSON, &reasonsJSON,
		&sig.RawConfidence, &sig.FinalConfidence, &tier,
		&sig.IssuedAt, &sig.EntryPrice, &sig.CurrentPrice,
		&sig.TargetLow, &sig.TargetHigh, &state, &vote, &sig.VotedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan signal row: %w", err)
	}

	sig.Direction = contracts.Direction(direction)
	sig.Tier = contracts.Tier(tier)
	sig.State = contracts.LifecycleState(state)
	if vote != nil {
		v := contracts.Vote(*vote)
		sig.UserVote = &v
	}
	if len(scoresJSON) > 0 {
		if err := json.Unmarshal(scoresJSON, &sig.CategoryScores); err != nil {
			return nil, fmt.Errorf("unmarshal category scores: %w", err)
		}
	}
	if len(reasonsJSON) > 0 {
		if err := json.Unmarshal(reasonsJSON, &sig.Reasons); err != nil {
			return nil, fmt.Errorf("unmarshal reasons: %w", err)
		}
	}

	return &sig, nil
}

func voteValue(v *contracts.Vote) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
