package cache

import (
	"testing"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQuoteCache_SetGetClear(t *testing.T) {
	c := NewInMemoryQuoteCache()

	_, ok := c.Get("AAPL")
	assert.False(t, ok)

	c.Set("AAPL", domain.PriceQuote{Ticker: "AAPL", CurrentPrice: decimal.NewFromInt(100)})
	q, ok := c.Get("AAPL")
	require.True(t, ok)
	assert.True(t, q.CurrentPrice.Equal(decimal.NewFromInt(100)))
	assert.False(t, q.Timestamp.IsZero())
	assert.Equal(t, 1, c.Len())

	c.Set("AAPL", domain.PriceQuote{Ticker: "AAPL", CurrentPrice: decimal.NewFromInt(101)})
	q, _ = c.Get("AAPL")
	assert.True(t, q.CurrentPrice.Equal(decimal.NewFromInt(101)))

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok = c.Get("AAPL")
	assert.False(t, ok)
}

func TestInMemoryCloseStore_SetIfAbsentKeepsFirstValue(t *testing.T) {
	s := NewInMemoryCloseStore()

	got := s.SetIfAbsent("NVDA", decimal.RequireFromString("120.50"))
	assert.Equal(t, "120.5", got.String())

	got = s.SetIfAbsent("NVDA", decimal.RequireFromString("999"))
	assert.Equal(t, "120.5", got.String())

	v, ok := s.Get("NVDA")
	require.True(t, ok)
	assert.Equal(t, "120.5", v.String())

	s.Clear()
	assert.Equal(t, 0, s.Len())
}
