// Package scorers provides the category scorer implementations. Each
// provider backs exactly one category and returns a signed sub-score in
// [-1, 1]; the aggregator is written against the Provider interface and is
// agnostic to which concrete backend serves a category.
package scorers

import (
	"context"
	"errors"
	"time"
)

// ErrScoreUnavailable means the provider could not produce a score this
// cycle (null payload, timeout, open breaker). The engine treats it as a
// missing category.
var ErrScoreUnavailable = errors.New("score unavailable")

// Provider scores one category for a ticker over a lookback window.
// Implementations must respect the context deadline; the engine calls them
// with a bounded timeout.
type Provider interface {
	Score(ctx context.Context, ticker string, window time.Duration) (float64, error)
}
