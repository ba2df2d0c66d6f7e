package application

import (
	"testing"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/cache"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quote(t *testing.T, ticker domain.Ticker, current, prevClose string) domain.PriceQuote {
	t.Helper()
	q, err := Evaluate(ticker, nd(current), nd(prevClose))
	require.NoError(t, err)
	return q
}

func newTestDecider() (*Decider, *cache.InMemoryQuoteCache) {
	c := cache.NewInMemoryQuoteCache()
	return NewDecider(c, decimal.RequireFromString("0.015")), c
}

func TestDecider_BelowThresholdIsQuiet(t *testing.T) {
	d, c := newTestDecider()

	q := quote(t, "AAPL", "100.80", "100")
	assert.Equal(t, DecisionQuiet, d.Decide(q))
	d.Commit(q, DecisionQuiet)

	cached, ok := c.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, "100.8", cached.CurrentPrice.String())
}

func TestDecider_NewPriceOverThresholdAlerts(t *testing.T) {
	d, c := newTestDecider()
	c.Set("AAPL", quote(t, "AAPL", "98", "98"))

	q := quote(t, "AAPL", "100", "98")
	assert.Equal(t, DecisionAlert, d.Decide(q))
}

func TestDecider_NoPriorEntryAlerts(t *testing.T) {
	d, _ := newTestDecider()
	assert.Equal(t, DecisionAlert, d.Decide(quote(t, "AMD", "90", "100")))
}

func TestDecider_ExactThresholdAlerts(t *testing.T) {
	d, _ := newTestDecider()
	assert.Equal(t, DecisionAlert, d.Decide(quote(t, "V", "101.5", "100")))
	assert.Equal(t, DecisionAlert, d.Decide(quote(t, "V", "98.5", "100")))
	assert.Equal(t, DecisionQuiet, d.Decide(quote(t, "V", "101.49", "100")))
}

func TestDecider_SamePriceIsSuppressed(t *testing.T) {
	d, _ := newTestDecider()

	q := quote(t, "NVDA", "100", "98")
	require.Equal(t, DecisionAlert, d.Decide(q))
	d.Commit(q, DecisionAlert)

	assert.Equal(t, DecisionSuppressed, d.Decide(quote(t, "NVDA", "100.00", "98")))
}

func TestDecider_ComparesPriceNotPercent(t *testing.T) {
	d, c := newTestDecider()
	c.Set("MA", quote(t, "MA", "100", "90"))

	// same current price against a different close is still a duplicate
	assert.Equal(t, DecisionSuppressed, d.Decide(quote(t, "MA", "100", "95")))
}

func TestDecider_ReturnToAlertedPriceIsSuppressed(t *testing.T) {
	d, _ := newTestDecider()

	steps := []struct {
		price    string
		expected Decision
	}{
		{"103", DecisionAlert},
		{"104", DecisionAlert},
		{"103.00", DecisionSuppressed},
		{"100.5", DecisionQuiet},
		{"104", DecisionSuppressed},
		{"105", DecisionAlert},
	}
	for _, step := range steps {
		q := quote(t, "KGC", step.price, "100")
		decision := d.Decide(q)
		assert.Equal(t, step.expected, decision, step.price)
		d.Commit(q, decision)
	}
}

func TestDecider_ForgetClearsAlertedPrices(t *testing.T) {
	d, c := newTestDecider()

	q := quote(t, "SCCO", "103", "100")
	d.Commit(q, d.Decide(q))
	d.Commit(quote(t, "SCCO", "100.2", "100"), DecisionQuiet)
	require.Equal(t, DecisionSuppressed, d.Decide(q))

	c.Clear()
	d.Forget()
	assert.Equal(t, DecisionAlert, d.Decide(q))
}

func TestDecider_AlertedPricesArePerTicker(t *testing.T) {
	d, _ := newTestDecider()

	q := quote(t, "AEM", "103", "100")
	d.Commit(q, d.Decide(q))

	assert.Equal(t, DecisionAlert, d.Decide(quote(t, "NET", "103", "100")))
}

func TestDecider_DoesNotMutateCache(t *testing.T) {
	d, c := newTestDecider()
	d.Decide(quote(t, "JNJ", "110", "100"))
	assert.Equal(t, 0, c.Len())
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "quiet", DecisionQuiet.String())
	assert.Equal(t, "suppressed", DecisionSuppressed.String())
	assert.Equal(t, "alert", DecisionAlert.String())
}
