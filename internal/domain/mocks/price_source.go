package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/shopspring/decimal"
)

type MockPriceSource struct {
	mu         sync.Mutex
	live       map[domain.Ticker]decimal.Decimal
	closes     map[domain.Ticker]decimal.Decimal
	panicPairs map[domain.Ticker]bool
	delays     map[domain.Ticker]time.Duration
	liveCalls  map[domain.Ticker]int
	closeCalls map[domain.Ticker]int
}

func NewMockPriceSource() *MockPriceSource {
	return &MockPriceSource{
		live:       make(map[domain.Ticker]decimal.Decimal),
		closes:     make(map[domain.Ticker]decimal.Decimal),
		panicPairs: make(map[domain.Ticker]bool),
		delays:     make(map[domain.Ticker]time.Duration),
		liveCalls:  make(map[domain.Ticker]int),
		closeCalls: make(map[domain.Ticker]int),
	}
}

func (m *MockPriceSource) SetLive(t domain.Ticker, price string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live[t] = decimal.RequireFromString(price)
}

func (m *MockPriceSource) RemoveLive(t domain.Ticker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, t)
}

func (m *MockPriceSource) SetClose(t domain.Ticker, price string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes[t] = decimal.RequireFromString(price)
}

func (m *MockPriceSource) RemoveClose(t domain.Ticker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.closes, t)
}

func (m *MockPriceSource) SetPanic(t domain.Ticker, shouldPanic bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicPairs[t] = shouldPanic
}

func (m *MockPriceSource) SetDelay(t domain.Ticker, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[t] = d
}

func (m *MockPriceSource) LiveCalls(t domain.Ticker) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.liveCalls[t]
}

func (m *MockPriceSource) CloseCalls(t domain.Ticker) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls[t]
}

func (m *MockPriceSource) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.liveCalls {
		total += n
	}
	for _, n := range m.closeCalls {
		total += n
	}
	return total
}

func (m *MockPriceSource) before(t domain.Ticker, calls map[domain.Ticker]int) {
	m.mu.Lock()
	calls[t]++
	shouldPanic := m.panicPairs[t]
	delay := m.delays[t]
	m.mu.Unlock()

	if shouldPanic {
		panic("mock panic")
	}
	if delay > 0 {
		time.Sleep(delay)
	}
}

func (m *MockPriceSource) LiveQuote(_ context.Context, t domain.Ticker) (decimal.Decimal, error) {
	m.before(t, m.liveCalls)
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.live[t]; ok {
		return v, nil
	}
	return decimal.Decimal{}, fmt.Errorf("%w: no live price for %s", domain.ErrDataUnavailable, t)
}

func (m *MockPriceSource) PreviousClose(_ context.Context, t domain.Ticker) (decimal.Decimal, error) {
	m.before(t, m.closeCalls)
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.closes[t]; ok {
		return v, nil
	}
	return decimal.Decimal{}, fmt.Errorf("%w: no close for %s", domain.ErrDataUnavailable, t)
}
