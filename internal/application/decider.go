package application

import (
	"sync"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/shopspring/decimal"
)

type Decision int

const (
	// DecisionQuiet: the move is below the threshold.
	DecisionQuiet Decision = iota
	// DecisionSuppressed: threshold crossed at a price already reported.
	DecisionSuppressed
	DecisionAlert
)

func (d Decision) String() string {
	switch d {
	case DecisionQuiet:
		return "quiet"
	case DecisionSuppressed:
		return "suppressed"
	case DecisionAlert:
		return "alert"
	default:
		return "unknown"
	}
}

// Decider keys dedup on the raw current price. A qualifying price is a
// duplicate when it equals the previous cache entry or any price already
// alerted for that ticker since the last Forget.
type Decider struct {
	cache        domain.LiveQuoteCache
	thresholdPct decimal.Decimal

	mu      sync.Mutex
	alerted map[domain.Ticker]map[string]struct{}
}

// NewDecider takes the threshold as a fraction (0.015 means 1.5%).
func NewDecider(cache domain.LiveQuoteCache, threshold decimal.Decimal) *Decider {
	return &Decider{
		cache:        cache,
		thresholdPct: threshold.Mul(hundred),
		alerted:      make(map[domain.Ticker]map[string]struct{}),
	}
}

func (d *Decider) ThresholdPct() decimal.Decimal {
	return d.thresholdPct
}

// Decide does not mutate the cache; call Commit once the decision has been
// acted upon.
func (d *Decider) Decide(q domain.PriceQuote) Decision {
	if q.PercentChange.Abs().LessThan(d.thresholdPct) {
		return DecisionQuiet
	}
	if prev, ok := d.cache.Get(q.Ticker); ok && prev.CurrentPrice.Equal(q.CurrentPrice) {
		return DecisionSuppressed
	}
	if d.wasAlerted(q) {
		return DecisionSuppressed
	}
	return DecisionAlert
}

// Commit overwrites the cache entry with q and, for an alert, remembers its
// price.
func (d *Decider) Commit(q domain.PriceQuote, decision Decision) {
	d.cache.Set(q.Ticker, q)
	if decision != DecisionAlert {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	prices, ok := d.alerted[q.Ticker]
	if !ok {
		prices = make(map[string]struct{})
		d.alerted[q.Ticker] = prices
	}
	prices[q.CurrentPrice.String()] = struct{}{}
}

// Forget drops the alerted-price history. It runs with every cache eviction.
func (d *Decider) Forget() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.alerted = make(map[domain.Ticker]map[string]struct{})
}

func (d *Decider) wasAlerted(q domain.PriceQuote) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.alerted[q.Ticker][q.CurrentPrice.String()]
	return ok
}
