package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/moonwatch/backend/internal/contracts"
	"github.com/moonwatch/backend/pkg/logger"
)

// Stream consumes a push price feed over websocket and writes ticks into
// the cache. Reconnects with exponential backoff until the context is
// cancelled.
type Stream struct {
	url    string
	cache  *Cache
	logger *logger.Logger
}

// streamMessage is the push feed frame shape.
type streamMessage struct {
	Ticker    string   `json:"ticker"`
	Price     *float64 `json:"price"`
	Timestamp int64    `json:"timestamp"`
}

// NewStream creates a websocket price stream client.
func NewStream(wsURL string, cache *Cache, log *logger.Logger) *Stream {
	return &Stream{
		url:    wsURL,
		cache:  cache,
		logger: log.WithField("component", "pricefeed.stream"),
	}
}

// Run connects and consumes frames until the context is cancelled.
func (s *Stream) Run(ctx context.Context) error {
	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)

	operation := func() error {
		if err := s.consume(ctx); err != nil {
			s.logger.WithError(err).Warn("price stream disconnected, reconnecting")
			return err
		}
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		if ctx.Err() != nil {
			s.logger.Info("price stream stopped")
			return nil
		}
		return fmt.Errorf("price stream gave up: %w", err)
	}
	return nil
}

func (s *Stream) consume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.url, err)
	}
	defer conn.Close()

	s.logger.WithField("url", s.url).Info("price stream connected")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}

		var msg streamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.WithError(err).Warn("rejected malformed stream frame")
			continue
		}
		if msg.Ticker == "" || msg.Price == nil || *msg.Price <= 0 {
			continue
		}

		s.cache.Update(&contracts.PriceTick{
			Ticker:    strings.ToUpper(msg.Ticker),
			Price:     *msg.Price,
			Timestamp: time.Unix(msg.Timestamp, 0),
			Source:    "stream",
		})
	}
}
