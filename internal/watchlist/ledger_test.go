package watchlist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonwatch/backend/internal/contracts"
	"github.com/moonwatch/backend/internal/pricefeed"
	"github.com/moonwatch/backend/pkg/logger"
)

func newTestLedger(t *testing.T) (*Ledger, *pricefeed.Cache) {
	t.Helper()
	log := logger.NewNop()
	prices := pricefeed.NewCache(10*time.Minute, log)
	return NewLedger(prices, nil, log), prices
}

func validEntry() *contracts.WatchlistEntry {
	return &contracts.WatchlistEntry{
		UserID:     "user-1",
		Ticker:     "XYZ",
		EntryPrice: 100,
	}
}

func TestLedger_Add_FillsDefaults(t *testing.T) {
	ledger, _ := newTestLedger(t)

	entry, err := ledger.Add(context.Background(), validEntry())
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.EntryDate.IsZero())
	assert.False(t, entry.CreatedAt.IsZero())
	assert.Equal(t, 1.0, entry.Shares)
	assert.Equal(t, 100.0, entry.CurrentPrice, "current price defaults to entry price")
}

func TestLedger_Add_Validation(t *testing.T) {
	ledger, _ := newTestLedger(t)

	tests := []struct {
		name   string
		mutate func(*contracts.WatchlistEntry)
	}{
		{"missing user", func(e *contracts.WatchlistEntry) { e.UserID = "" }},
		{"missing ticker", func(e *contracts.WatchlistEntry) { e.Ticker = "" }},
		{"zero entry price", func(e *contracts.WatchlistEntry) { e.EntryPrice = 0 }},
		{"negative entry price", func(e *contracts.WatchlistEntry) { e.EntryPrice = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := validEntry()
			tt.mutate(entry)
			_, err := ledger.Add(context.Background(), entry)
			assert.Error(t, err)
		})
	}
}

func TestLedger_Update(t *testing.T) {
	ledger, _ := newTestLedger(t)
	entry, err := ledger.Add(context.Background(), validEntry())
	require.NoError(t, err)

	target := 110.0
	stop := 95.0
	shares := 3.0

	updated, err := ledger.Update(context.Background(), entry.ID, &target, &stop, &shares)
	require.NoError(t, err)
	assert.Equal(t, 110.0, updated.TargetPrice)
	require.NotNil(t, updated.StopLossPrice)
	assert.Equal(t, 95.0, *updated.StopLossPrice)
	assert.Equal(t, 3.0, updated.Shares)

	// Partial update leaves the other fields alone.
	newTarget := 120.0
	updated, err = ledger.Update(context.Background(), entry.ID, &newTarget, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 120.0, updated.TargetPrice)
	assert.Equal(t, 95.0, *updated.StopLossPrice)
	assert.Equal(t, 3.0, updated.Shares)

	_, err = ledger.Update(context.Background(), "missing", &target, nil, nil)
	assert.True(t, errors.Is(err, contracts.ErrEntryNotFound))
}

func TestLedger_Remove(t *testing.T) {
	ledger, _ := newTestLedger(t)
	entry, err := ledger.Add(context.Background(), validEntry())
	require.NoError(t, err)

	require.NoError(t, ledger.Remove(context.Background(), entry.ID))
	_, err = ledger.Get(entry.ID)
	assert.True(t, errors.Is(err, contracts.ErrEntryNotFound))

	err = ledger.Remove(context.Background(), entry.ID)
	assert.True(t, errors.Is(err, contracts.ErrEntryNotFound))
}

func TestLedger_ListByUser_RefreshesPrices(t *testing.T) {
	ledger, prices := newTestLedger(t)

	_, err := ledger.Add(context.Background(), validEntry())
	require.NoError(t, err)

	other := validEntry()
	other.UserID = "user-2"
	other.Ticker = "ABC"
	_, err = ledger.Add(context.Background(), other)
	require.NoError(t, err)

	prices.Update(&contracts.PriceTick{Ticker: "XYZ", Price: 112, Timestamp: time.Now()})

	mine := ledger.ListByUser("user-1")
	require.Len(t, mine, 1)
	assert.Equal(t, 112.0, mine[0].CurrentPrice)
	assert.InDelta(t, 12, mine[0].ReturnPercent(), 1e-9)

	assert.Len(t, ledger.ListByUser("user-2"), 1)
	assert.Empty(t, ledger.ListByUser("nobody"))
}

func TestLedger_StalePriceNotApplied(t *testing.T) {
	ledger, prices := newTestLedger(t)

	entry, err := ledger.Add(context.Background(), validEntry())
	require.NoError(t, err)

	prices.Update(&contracts.PriceTick{
		Ticker:    "XYZ",
		Price:     500,
		Timestamp: time.Now().Add(-time.Hour),
	})

	got, err := ledger.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.CurrentPrice, "stale ticks must not move the position")
}
