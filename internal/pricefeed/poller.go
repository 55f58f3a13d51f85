package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/moonwatch/backend/internal/contracts"
	"github.com/moonwatch/backend/pkg/httputil"
	"github.com/moonwatch/backend/pkg/logger"
)

// Poller fetches quotes for a set of tickers from a REST price endpoint and
// writes them into the cache.
type Poller struct {
	httpClient *httputil.Client
	cache      *Cache
	logger     *logger.Logger
	baseURL    string
}

// quotePayload is the upstream quote shape. Non-conforming payloads are
// rejected, never partially accepted.
type quotePayload struct {
	Ticker    string   `json:"ticker"`
	Price     *float64 `json:"price"`
	Timestamp int64    `json:"timestamp"` // unix seconds
}

// NewPoller creates a REST price poller.
func NewPoller(httpClient *httputil.Client, cache *Cache, log *logger.Logger, baseURL string) *Poller {
	return &Poller{
		httpClient: httpClient,
		cache:      cache,
		logger:     log.WithField("component", "pricefeed.poller"),
		baseURL:    baseURL,
	}
}

// Poll fetches quotes for all tickers in one batch request. Per-ticker
// failures are isolated: a bad quote is skipped, the rest still update.
func (p *Poller) Poll(ctx context.Context, tickers []string) (int, error) {
	if len(tickers) == 0 {
		return 0, nil
	}

	params := url.Values{}
	params.Set("tickers", strings.Join(tickers, ","))
	fullURL := fmt.Sprintf("%s/v1/quotes?%s", p.baseURL, params.Encode())

	resp, err := p.httpClient.Get(ctx, fullURL)
	if err != nil {
		return 0, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}

	var quotes []quotePayload
	if err := json.Unmarshal(body, &quotes); err != nil {
		return 0, fmt.Errorf("malformed quote payload: %w", err)
	}

	updated := 0
	for _, q := range quotes {
		if q.Ticker == "" || q.Price == nil || *q.Price <= 0 {
			p.logger.WithField("ticker", q.Ticker).Warn("rejected non-conforming quote")
			continue
		}
		tick := &contracts.PriceTick{
			Ticker:    strings.ToUpper(q.Ticker),
			Price:     *q.Price,
			Timestamp: time.Unix(q.Timestamp, 0),
			Source:    "rest",
		}
		if p.cache.Update(tick) {
			updated++
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"requested": len(tickers),
		"updated":   updated,
	}).Debug("quote poll completed")

	return updated, nil
}

// Run polls on a fixed interval until the context is cancelled.
func (p *Poller) Run(ctx context.Context, tickers []string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("price poller stopped")
			return
		case <-ticker.C:
			if _, err := p.Poll(ctx, tickers); err != nil {
				p.logger.WithError(err).Warn("price poll failed")
			}
		}
	}
}
