package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/shopspring/decimal"
)

type Placeholder struct {
	Ticker    domain.Ticker
	PrevClose decimal.NullDecimal
}

type MockSink struct {
	mu           sync.Mutex
	alerts       []domain.PriceQuote
	placeholders []Placeholder
	failing      map[domain.Ticker]bool
}

func NewMockSink() *MockSink {
	return &MockSink{failing: make(map[domain.Ticker]bool)}
}

// SetFailing makes every send for t return an error.
func (m *MockSink) SetFailing(t domain.Ticker, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[t] = fail
}

func (m *MockSink) SendAlert(_ context.Context, q domain.PriceQuote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing[q.Ticker] {
		return errors.New("mock delivery failure")
	}
	m.alerts = append(m.alerts, q)
	return nil
}

func (m *MockSink) SendPlaceholder(_ context.Context, t domain.Ticker, prevClose decimal.NullDecimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing[t] {
		return errors.New("mock delivery failure")
	}
	m.placeholders = append(m.placeholders, Placeholder{Ticker: t, PrevClose: prevClose})
	return nil
}

func (m *MockSink) Alerts() []domain.PriceQuote {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.PriceQuote, len(m.alerts))
	copy(out, m.alerts)
	return out
}

func (m *MockSink) Placeholders() []Placeholder {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Placeholder, len(m.placeholders))
	copy(out, m.placeholders)
	return out
}

func (m *MockSink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = nil
	m.placeholders = nil
}
