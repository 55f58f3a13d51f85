// Package pricefeed maintains last-known prices for tracked tickers, fed by
// a polling client or a streaming client. The cache is the single source the
// lifecycle tracker reads prices from.
package pricefeed

import (
	"sync"
	"time"

	"github.com/moonwatch/backend/internal/contracts"
	"github.com/moonwatch/backend/pkg/logger"
)

// Cache is an in-memory last-known-value store for price ticks with a
// staleness TTL.
type Cache struct {
	mu     sync.RWMutex
	ticks  map[string]*contracts.PriceTick
	ttl    time.Duration
	logger *logger.Logger
}

// NewCache creates a price cache. Ticks older than ttl are marked stale on read.
func NewCache(ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{
		ticks:  make(map[string]*contracts.PriceTick),
		ttl:    ttl,
		logger: log,
	}
}

// Update stores a tick unless a newer one is already cached.
func (c *Cache) Update(tick *contracts.PriceTick) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.ticks[tick.Ticker]; ok && tick.Timestamp.Before(existing.Timestamp) {
		c.logger.WithFields(map[string]interface{}{
			"ticker":   tick.Ticker,
			"new_time": tick.Timestamp,
			"old_time": existing.Timestamp,
		}).Debug("rejected older price tick")
		return false
	}

	tick.IsStale = time.Since(tick.Timestamp) > c.ttl
	c.ticks[tick.Ticker] = tick
	return true
}

// Get returns a copy of the cached tick for a ticker with its staleness
// flag refreshed.
func (c *Cache) Get(ticker string) (*contracts.PriceTick, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tick, ok := c.ticks[ticker]
	if !ok {
		return nil, false
	}

	out := *tick
	out.IsStale = time.Since(out.Timestamp) > c.ttl
	return &out, true
}

// GetAll returns copies of all cached ticks.
func (c *Cache) GetAll() map[string]*contracts.PriceTick {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]*contracts.PriceTick, len(c.ticks))
	for ticker, tick := range c.ticks {
		out := *tick
		out.IsStale = time.Since(out.Timestamp) > c.ttl
		result[ticker] = &out
	}
	return result
}

// Delete removes a ticker from the cache.
func (c *Cache) Delete(ticker string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ticks, ticker)
}

// Len returns the number of cached tickers.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ticks)
}
