package scorers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/moonwatch/backend/internal/contracts"
	"github.com/moonwatch/backend/pkg/httputil"
	"github.com/moonwatch/backend/pkg/logger"
)

// HTTPProvider scores a category by calling an external scoring service.
// Requests run behind a circuit breaker so a flapping upstream is reported
// as a missing score instead of hammering the service every cycle.
type HTTPProvider struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	category   contracts.Category
	breaker    *gobreaker.CircuitBreaker
}

// scoreResponse is the upstream payload. A null score means the service
// declined to score the ticker this window.
type scoreResponse struct {
	Ticker string   `json:"ticker"`
	Score  *float64 `json:"score"`
	Reason string   `json:"reason,omitempty"`
}

// NewHTTPProvider creates a provider for one category against a scoring service.
func NewHTTPProvider(httpClient *httputil.Client, log *logger.Logger, baseURL string, category contracts.Category) *HTTPProvider {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    fmt.Sprintf("scorer-%s", category),
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &HTTPProvider{
		httpClient: httpClient,
		logger:     log.WithField("scorer", string(category)),
		baseURL:    baseURL,
		category:   category,
		breaker:    breaker,
	}
}

// Score fetches the sub-score for a ticker. Timeouts, non-2xx responses,
// null payloads and an open breaker all surface as ErrScoreUnavailable.
func (p *HTTPProvider) Score(ctx context.Context, ticker string, window time.Duration) (float64, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetch(ctx, ticker, window)
	})
	if err != nil {
		p.logger.WithError(err).WithField("ticker", ticker).Warn("category score unavailable")
		return 0, fmt.Errorf("%w: %s/%s: %v", ErrScoreUnavailable, p.category, ticker, err)
	}
	return result.(float64), nil
}

func (p *HTTPProvider) fetch(ctx context.Context, ticker string, window time.Duration) (float64, error) {
	params := url.Values{}
	params.Set("ticker", ticker)
	params.Set("category", string(p.category))
	params.Set("window", window.String())

	fullURL := fmt.Sprintf("%s/v1/score?%s", p.baseURL, params.Encode())

	resp, err := p.httpClient.Get(ctx, fullURL)
	if err != nil {
		return 0, fmt.Errorf("score request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}

	var payload scoreResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("malformed score payload: %w", err)
	}
	if payload.Score == nil {
		return 0, fmt.Errorf("null score for %s", ticker)
	}
	if *payload.Score < -1 || *payload.Score > 1 {
		return 0, fmt.Errorf("score %.4f outside [-1, 1]", *payload.Score)
	}

	return *payload.Score, nil
}
