// Package engine runs the periodic scan cycle: score tickers, issue
// signals, apply votes and advance lifecycles. It owns the active signal
// book and serializes all per-signal mutation.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/moonwatch/backend/internal/contracts"
	"github.com/moonwatch/backend/internal/lifecycle"
	"github.com/moonwatch/backend/internal/metrics"
	"github.com/moonwatch/backend/internal/policy"
	"github.com/moonwatch/backend/internal/pricefeed"
	"github.com/moonwatch/backend/internal/scoring"
	"github.com/moonwatch/backend/pkg/logger"
)

// Config holds scan cycle tuning.
type Config struct {
	Workers       int           // concurrent ticker workers per cycle
	ScorerTimeout time.Duration // per-category call budget
	ScoreWindow   time.Duration // lookback window passed to scorers
	ScoreRate     rate.Limit    // scorer calls per second across all workers
	ScoreBurst    int
}

// Engine wires the scoring pipeline together.
type Engine struct {
	providers map[contracts.Category]Provider
	agg       *scoring.Aggregator
	adjuster  *scoring.Adjuster
	tracker   *lifecycle.Tracker
	book      *Book
	prices    *pricefeed.Cache
	repo      contracts.SignalRepository // optional
	limiter   *rate.Limiter
	metrics   *metrics.Registry // optional
	pol       *policy.Policy
	cfg       Config
	logger    *logger.Logger
}

// Provider mirrors scorers.Provider; declared here so the engine package
// depends only on the capability it calls.
type Provider interface {
	Score(ctx context.Context, ticker string, window time.Duration) (float64, error)
}

// New creates a scan engine. repo and reg may be nil.
func New(
	providers map[contracts.Category]Provider,
	pol *policy.Policy,
	book *Book,
	prices *pricefeed.Cache,
	repo contracts.SignalRepository,
	reg *metrics.Registry,
	cfg Config,
	log *logger.Logger,
) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.ScorerTimeout <= 0 {
		cfg.ScorerTimeout = 10 * time.Second
	}
	if cfg.ScoreWindow <= 0 {
		cfg.ScoreWindow = 24 * time.Hour
	}
	if cfg.ScoreRate <= 0 {
		cfg.ScoreRate = 10
	}
	if cfg.ScoreBurst <= 0 {
		cfg.ScoreBurst = int(cfg.ScoreRate)
	}

	zl := log.Zerolog()

	return &Engine{
		providers: providers,
		agg:       scoring.NewAggregator(pol.Weights, zl),
		adjuster:  scoring.NewAdjuster(pol.Votes, zl),
		tracker:   lifecycle.NewTracker(pol.Lifecycle, zl),
		book:      book,
		prices:    prices,
		repo:      repo,
		limiter:   rate.NewLimiter(cfg.ScoreRate, cfg.ScoreBurst),
		metrics:   reg,
		pol:       pol,
		cfg:       cfg,
		logger:    log.WithField("module", "engine"),
	}
}

// Book exposes the active signal set for read surfaces.
func (e *Engine) Book() *Book {
	return e.book
}

// Policy returns the loaded scoring policy.
func (e *Engine) Policy() *policy.Policy {
	return e.pol
}

// CycleResult summarizes one scan cycle.
type CycleResult struct {
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Issued   int           `json:"issued"`
	Skipped  int           `json:"skipped"` // incomplete scores or open duplicate call
	Failed   int           `json:"failed"`
	Dropped  int           `json:"dropped"` // cancelled before processing
}

// RunCycle scores all tickers concurrently and issues signals. Per-ticker
// failures are isolated; cancellation drops not-yet-processed tickers and
// leaves finished signals untouched.
func (e *Engine) RunCycle(ctx context.Context, tickers []string) (*CycleResult, error) {
	start := time.Now()
	result := &CycleResult{Started: start}

	e.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"workers": e.cfg.Workers,
	}).Info("scan cycle started")

	type outcome struct {
		issued  bool
		skipped bool
		dropped bool
		err     error
	}

	tickerCh := make(chan string, len(tickers))
	resultCh := make(chan outcome, len(tickers))

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ticker := range tickerCh {
				if ctx.Err() != nil {
					resultCh <- outcome{dropped: true}
					continue
				}
				issued, err := e.scoreTicker(ctx, ticker, start)
				switch {
				case err != nil && errors.Is(err, contracts.ErrIncompleteScoreSet):
					resultCh <- outcome{skipped: true}
				case err != nil:
					resultCh <- outcome{err: err}
				case !issued:
					resultCh <- outcome{skipped: true}
				default:
					resultCh <- outcome{issued: true}
				}
			}
		}()
	}

	for _, ticker := range tickers {
		tickerCh <- strings.ToUpper(strings.TrimSpace(ticker))
	}
	close(tickerCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	for out := range resultCh {
		switch {
		case out.issued:
			result.Issued++
		case out.skipped:
			result.Skipped++
			if e.metrics != nil {
				e.metrics.SkippedTickers.Inc()
			}
		case out.dropped:
			result.Dropped++
		case out.err != nil:
			result.Failed++
			e.logger.WithError(out.err).Warn("ticker scoring failed")
		}
	}

	result.Duration = time.Since(start)
	if e.metrics != nil {
		e.metrics.CycleDuration.Observe(result.Duration.Seconds())
		e.metrics.ActiveSignals.Set(float64(e.book.Len()))
	}

	e.logger.WithFields(map[string]interface{}{
		"issued":   result.Issued,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
		"dropped":  result.Dropped,
		"duration": result.Duration,
	}).Info("scan cycle completed")

	return result, nil
}

// scoreTicker scores one ticker end to end. Returns false with a nil error
// when the ticker was skipped (duplicate open call or no usable price).
func (e *Engine) scoreTicker(ctx context.Context, ticker string, now time.Time) (bool, error) {
	if ticker == "" {
		return false, fmt.Errorf("empty ticker")
	}

	scores, err := e.collectScores(ctx, ticker)
	if err != nil {
		return false, err
	}

	direction, rawConfidence, err := e.agg.Score(scores)
	if err != nil {
		return false, fmt.Errorf("aggregate %s: %w", ticker, err)
	}

	if e.book.HasOpenCall(ticker, direction) {
		e.logger.WithFields(map[string]interface{}{
			"ticker":    ticker,
			"direction": direction,
		}).Debug("open call exists, skipping")
		return false, nil
	}

	tick, ok := e.prices.Get(ticker)
	if !ok || tick.IsStale {
		e.logger.WithField("ticker", ticker).Debug("no fresh price, signal not issued")
		return false, nil
	}

	sig := e.issue(ticker, direction, rawConfidence, scores, tick.Price, now)

	e.book.Add(sig)
	if e.repo != nil {
		if err := e.repo.Save(ctx, sig); err != nil {
			e.logger.WithError(err).WithField("ticker", ticker).Error("signal persist failed")
		}
	}
	if e.metrics != nil {
		e.metrics.SignalsIssued.WithLabelValues(string(direction), string(sig.Tier)).Inc()
	}

	return true, nil
}

// collectScores calls every category provider with a bounded timeout. A
// timed-out or failed category is treated as missing, which surfaces as
// ErrIncompleteScoreSet from the aggregator.
func (e *Engine) collectScores(ctx context.Context, ticker string) (contracts.ScoreSet, error) {
	scores := make(contracts.ScoreSet, len(e.providers))

	for _, category := range contracts.Categories() {
		provider, ok := e.providers[category]
		if !ok {
			continue
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return scores, err
		}

		callCtx, cancel := context.WithTimeout(ctx, e.cfg.ScorerTimeout)
		score, err := provider.Score(callCtx, ticker, e.cfg.ScoreWindow)
		cancel()

		if err != nil {
			if e.metrics != nil {
				e.metrics.ScorerErrors.WithLabelValues(string(category)).Inc()
			}
			e.logger.WithError(err).WithFields(map[string]interface{}{
				"ticker":   ticker,
				"category": string(category),
			}).Debug("category score missing")
			continue
		}
		scores[category] = score
	}

	return scores, nil
}

// issue builds a new signal with a target range derived from the entry price.
func (e *Engine) issue(ticker string, direction contracts.Direction, rawConfidence float64, scores contracts.ScoreSet, price float64, now time.Time) *contracts.Signal {
	targetMove := price * e.pol.Lifecycle.TargetMovePct / 100
	stopMove := price * e.pol.Lifecycle.StopMovePct / 100

	var low, high float64
	if direction == contracts.DirectionRug {
		low, high = price-targetMove, price+stopMove
	} else {
		low, high = price-stopMove, price+targetMove
	}

	return &contracts.Signal{
		ID:              uuid.NewString(),
		Ticker:          ticker,
		Direction:       direction,
		CategoryScores:  scores,
		RawConfidence:   rawConfidence,
		FinalConfidence: rawConfidence,
		Tier:            contracts.TierFor(rawConfidence),
		IssuedAt:        now,
		EntryPrice:      price,
		CurrentPrice:    price,
		TargetLow:       low,
		TargetHigh:      high,
		State:           contracts.StateNew,
	}
}

// SubmitVote applies a gut vote to a signal under its keyed lock. Returns
// the watchlist entry candidate for non-PASS votes.
func (e *Engine) SubmitVote(ctx context.Context, signalID string, vote contracts.Vote, userID string) (*contracts.WatchlistEntry, error) {
	var candidate *contracts.WatchlistEntry

	err := e.book.WithSignal(signalID, func(sig *contracts.Signal) error {
		c, err := e.adjuster.ApplyVote(sig, vote, userID, time.Now())
		if err != nil {
			return err
		}
		candidate = c

		if e.repo != nil && sig.VotedAt != nil {
			if err := e.repo.RecordVote(ctx, sig.ID, vote, sig.FinalConfidence, *sig.VotedAt); err != nil {
				e.logger.WithError(err).WithField("signal_id", sig.ID).Error("vote persist failed")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.VotesRecorded.WithLabelValues(string(vote)).Inc()
	}
	return candidate, nil
}

// Promote moves a reviewed signal to WATCHING on explicit watchlist addition.
func (e *Engine) Promote(ctx context.Context, signalID string) error {
	return e.book.WithSignal(signalID, func(sig *contracts.Signal) error {
		if err := e.tracker.Promote(sig); err != nil {
			return err
		}
		if e.repo != nil {
			if err := e.repo.UpdateState(ctx, sig.ID, sig.State, sig.CurrentPrice); err != nil {
				e.logger.WithError(err).WithField("signal_id", sig.ID).Error("state persist failed")
			}
		}
		return nil
	})
}

// EvalResult summarizes one lifecycle evaluation pass.
type EvalResult struct {
	Evaluated    int `json:"evaluated"`
	Retired      int `json:"retired"`
	SkippedStale int `json:"skipped_stale"`
}

// EvaluateLifecycles advances every active signal against the price cache.
// Signals with stale or missing prices are skipped this pass rather than
// evaluated on bad data.
func (e *Engine) EvaluateLifecycles(ctx context.Context) (*EvalResult, error) {
	now := time.Now()
	result := &EvalResult{}

	for _, active := range e.book.Active() {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		tick, _ := e.prices.Get(active.Ticker)

		err := e.book.WithSignal(active.ID, func(sig *contracts.Signal) error {
			if sig.State.Terminal() {
				return nil
			}
			state, err := e.tracker.Evaluate(sig, tick, now)
			if err != nil {
				return err
			}
			result.Evaluated++
			if state.Terminal() {
				result.Retired++
				if e.metrics != nil {
					e.metrics.Outcomes.WithLabelValues(string(state)).Inc()
				}
				if e.repo != nil {
					if perr := e.repo.UpdateState(ctx, sig.ID, state, sig.CurrentPrice); perr != nil {
						e.logger.WithError(perr).WithField("signal_id", sig.ID).Error("outcome persist failed")
					}
				}
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, contracts.ErrStalePriceData) {
				result.SkippedStale++
				continue
			}
			if errors.Is(err, contracts.ErrSignalRetired) || errors.Is(err, contracts.ErrSignalNotFound) {
				continue
			}
			e.logger.WithError(err).Warn("lifecycle evaluation failed")
		}
	}

	if e.metrics != nil {
		e.metrics.ActiveSignals.Set(float64(e.book.Len()))
	}

	return result, nil
}

// ExpireOverdue force-classifies signals past their observation window as
// STALE and prunes terminal signals from the book. Run by maintenance.
func (e *Engine) ExpireOverdue(ctx context.Context) (int, error) {
	now := time.Now()
	expired := 0

	for _, active := range e.book.Active() {
		err := e.book.WithSignal(active.ID, func(sig *contracts.Signal) error {
			if e.tracker.ForceExpire(sig, now) {
				expired++
				if e.metrics != nil {
					e.metrics.Outcomes.WithLabelValues(string(contracts.StateStale)).Inc()
				}
				if e.repo != nil {
					if perr := e.repo.UpdateState(ctx, sig.ID, sig.State, sig.CurrentPrice); perr != nil {
						e.logger.WithError(perr).WithField("signal_id", sig.ID).Error("expiry persist failed")
					}
				}
			}
			return nil
		})
		if err != nil && !errors.Is(err, contracts.ErrSignalNotFound) {
			e.logger.WithError(err).Warn("expiry sweep failed for signal")
		}
	}

	// Retired signals leave the active set once processed.
	for _, sig := range e.book.Active() {
		if sig.State.Terminal() {
			e.book.Remove(sig.ID)
		}
	}

	if e.metrics != nil {
		e.metrics.ActiveSignals.Set(float64(e.book.Len()))
	}
	return expired, nil
}

// LoadActive restores the active book from the repository at startup.
func (e *Engine) LoadActive(ctx context.Context) (int, error) {
	if e.repo == nil {
		return 0, nil
	}
	signals, err := e.repo.GetActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("load active signals: %w", err)
	}
	for _, sig := range signals {
		e.book.Add(sig)
	}
	if e.metrics != nil {
		e.metrics.ActiveSignals.Set(float64(e.book.Len()))
	}
	return len(signals), nil
}
