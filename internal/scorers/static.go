package scorers

import (
	"context"
	"sync"
	"time"
)

// StaticProvider serves fixed scores from memory. Used in tests and for
// local development without upstream scoring services.
type StaticProvider struct {
	mu     sync.RWMutex
	scores map[string]float64
	err    error
}

// NewStaticProvider creates a provider with a fixed ticker→score table.
func NewStaticProvider(scores map[string]float64) *StaticProvider {
	if scores == nil {
		scores = make(map[string]float64)
	}
	return &StaticProvider{scores: scores}
}

// Set updates the score for a ticker.
func (p *StaticProvider) Set(ticker string, score float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scores[ticker] = score
}

// Fail makes every subsequent call return err.
func (p *StaticProvider) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Score returns the configured score, or ErrScoreUnavailable for unknown tickers.
func (p *StaticProvider) Score(ctx context.Context, ticker string, window time.Duration) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.err != nil {
		return 0, p.err
	}
	score, ok := p.scores[ticker]
	if !ok {
		return 0, ErrScoreUnavailable
	}
	return score, nil
}
