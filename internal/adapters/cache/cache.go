package cache

import (
	"sync"
	"time"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/shopspring/decimal"
)

// InMemoryQuoteCache holds the last evaluated quote per ticker.
type InMemoryQuoteCache struct {
	data map[domain.Ticker]domain.PriceQuote
	mu   sync.RWMutex
}

func NewInMemoryQuoteCache() *InMemoryQuoteCache {
	return &InMemoryQuoteCache{
		data: make(map[domain.Ticker]domain.PriceQuote),
	}
}

func (c *InMemoryQuoteCache) Get(t domain.Ticker) (domain.PriceQuote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.data[t]
	return q, ok
}

func (c *InMemoryQuoteCache) Set(t domain.Ticker, q domain.PriceQuote) {
	if q.Timestamp.IsZero() {
		q.Timestamp = time.Now().UTC()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[t] = q
}

// Clear swaps in a fresh map instead of deleting keys one by one so the
// old map can be collected as a whole.
func (c *InMemoryQuoteCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[domain.Ticker]domain.PriceQuote)
}

func (c *InMemoryQuoteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

type InMemoryCloseStore struct {
	data map[domain.Ticker]decimal.Decimal
	mu   sync.RWMutex
}

func NewInMemoryCloseStore() *InMemoryCloseStore {
	return &InMemoryCloseStore{
		data: make(map[domain.Ticker]decimal.Decimal),
	}
}

func (s *InMemoryCloseStore) Get(t domain.Ticker) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[t]
	return v, ok
}

func (s *InMemoryCloseStore) SetIfAbsent(t domain.Ticker, v decimal.Decimal) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.data[t]; ok {
		return existing
	}
	s.data[t] = v
	return v
}

func (s *InMemoryCloseStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[domain.Ticker]decimal.Decimal)
}

func (s *InMemoryCloseStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
