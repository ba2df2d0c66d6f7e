package application

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/cache"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/log"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) SetLevel(level int)                     {}
func (m *MockLogger) SetOutput(w io.Writer)                  {}
func (m *MockLogger) SetOutputToFile(filename string) error  { return nil }
func (m *MockLogger) GetLevel() int                          { return 0 }
func (m *MockLogger) Debug(message string, v ...interface{}) {}
func (m *MockLogger) Info(message string, v ...interface{})  {}
func (m *MockLogger) Warn(message string, v ...interface{}) {
	m.Called(append([]interface{}{message}, v...)...)
}
func (m *MockLogger) Error(message string, v ...interface{}) {
	m.Called(append([]interface{}{message}, v...)...)
}
func (m *MockLogger) Fatal(message string, v ...interface{}) {}

var fixedNow = time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC)

type fixture struct {
	service *AlertService
	source  *mocks.MockPriceSource
	sink    *mocks.MockSink
	live    *cache.InMemoryQuoteCache
	closes  *cache.InMemoryCloseStore
}

func newFixture(tickers ...domain.Ticker) fixture {
	f := fixture{
		source: mocks.NewMockPriceSource(),
		sink:   mocks.NewMockSink(),
		live:   cache.NewInMemoryQuoteCache(),
		closes: cache.NewInMemoryCloseStore(),
	}
	f.service = NewAlertService(f.live, f.closes, f.source, f.sink, tickers, decimal.RequireFromString("0.015"))
	f.service.SetClock(func() time.Time { return fixedNow })
	return f
}

func TestAlertService_BelowThresholdUpdatesCacheWithoutAlert(t *testing.T) {
	f := newFixture("AAPL")
	f.source.SetClose("AAPL", "100.00")
	f.source.SetLive("AAPL", "100.80")

	report := f.service.EvaluateTick(context.Background())

	assert.Equal(t, 1, report.Evaluated)
	assert.Equal(t, 0, report.Alerts)
	assert.Empty(t, f.sink.Alerts())

	cached, ok := f.live.Get("AAPL")
	require.True(t, ok)
	assert.True(t, cached.CurrentPrice.Equal(decimal.RequireFromString("100.80")))
	assert.Equal(t, fixedNow, cached.Timestamp)
}

func TestAlertService_NewQualifyingPriceAlertsOnce(t *testing.T) {
	f := newFixture("AAPL")
	f.source.SetClose("AAPL", "98.00")
	f.source.SetLive("AAPL", "98.00")
	f.service.EvaluateTick(context.Background())
	require.Empty(t, f.sink.Alerts())

	f.source.SetLive("AAPL", "100.00")
	report := f.service.EvaluateTick(context.Background())

	assert.Equal(t, 1, report.Alerts)
	alerts := f.sink.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "2.04", alerts[0].PercentChange.StringFixed(2))

	cached, _ := f.live.Get("AAPL")
	assert.True(t, cached.CurrentPrice.Equal(decimal.NewFromInt(100)))
}

func TestAlertService_SamePriceNextTickIsIdempotent(t *testing.T) {
	f := newFixture("NVDA")
	f.source.SetClose("NVDA", "98")
	f.source.SetLive("NVDA", "100.00")

	first := f.service.EvaluateTick(context.Background())
	second := f.service.EvaluateTick(context.Background())

	assert.Equal(t, 1, first.Alerts)
	assert.Equal(t, 0, second.Alerts)
	assert.Equal(t, 1, second.Suppressed)
	assert.Len(t, f.sink.Alerts(), 1)
}

func TestAlertService_EvictionResetsDedup(t *testing.T) {
	f := newFixture("AMD")
	f.source.SetClose("AMD", "98")
	f.source.SetLive("AMD", "100")

	f.service.EvaluateTick(context.Background())
	f.service.EvictLiveQuotes()
	assert.Equal(t, 0, f.live.Len())

	report := f.service.EvaluateTick(context.Background())
	assert.Equal(t, 1, report.Alerts)
	assert.Len(t, f.sink.Alerts(), 2)

	// previous closes survive eviction
	assert.Equal(t, 1, f.source.CloseCalls("AMD"))
}

func TestAlertService_RepeatedPriceAfterNewAlertIsSuppressed(t *testing.T) {
	f := newFixture("MELI")
	f.source.SetClose("MELI", "100")

	f.source.SetLive("MELI", "103")
	f.service.EvaluateTick(context.Background())
	f.source.SetLive("MELI", "104")
	f.service.EvaluateTick(context.Background())
	f.source.SetLive("MELI", "104")
	f.service.EvaluateTick(context.Background())

	assert.Len(t, f.sink.Alerts(), 2)
}

func TestAlertService_PriceReturningToAlertedLevelStaysSuppressed(t *testing.T) {
	tests := []struct {
		name     string
		prices   []string
		expected int
	}{
		{"away and back", []string{"103", "104", "103"}, 2},
		{"through quiet and back", []string{"103", "100.5", "103"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("JNJ")
			f.source.SetClose("JNJ", "100")

			for _, p := range tt.prices {
				f.source.SetLive("JNJ", p)
				f.service.EvaluateTick(context.Background())
			}

			assert.Len(t, f.sink.Alerts(), tt.expected)
		})
	}
}

func TestAlertService_EvictionAllowsReturnedPriceToAlert(t *testing.T) {
	f := newFixture("JNJ")
	f.source.SetClose("JNJ", "100")

	f.source.SetLive("JNJ", "103")
	f.service.EvaluateTick(context.Background())
	f.source.SetLive("JNJ", "104")
	f.service.EvaluateTick(context.Background())
	f.service.EvictLiveQuotes()
	f.source.SetLive("JNJ", "103")
	report := f.service.EvaluateTick(context.Background())

	assert.Equal(t, 1, report.Alerts)
	assert.Len(t, f.sink.Alerts(), 3)
}

func TestAlertService_FetchFailureLeavesCacheUntouched(t *testing.T) {
	f := newFixture("V", "MA")
	f.source.SetClose("V", "100")
	f.source.SetClose("MA", "100")
	f.source.SetLive("V", "100.5")
	f.source.SetLive("MA", "100.5")
	f.service.EvaluateTick(context.Background())

	mockLogger := new(MockLogger)
	originalLogger := log.GetInstance()
	log.SetInstance(mockLogger)
	defer log.SetInstance(originalLogger)
	mockLogger.On("Warn", "Skipping %s this tick: %v", mock.Anything, mock.Anything).Return()

	f.source.RemoveLive("V")
	f.source.SetLive("MA", "100.7")
	report := f.service.EvaluateTick(context.Background())

	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Evaluated)
	mockLogger.AssertCalled(t, "Warn", "Skipping %s this tick: %v", domain.Ticker("V"), mock.Anything)

	cachedV, _ := f.live.Get("V")
	assert.Equal(t, "100.5", cachedV.CurrentPrice.String())
	cachedMA, _ := f.live.Get("MA")
	assert.Equal(t, "100.7", cachedMA.CurrentPrice.String())
}

func TestAlertService_MissingPreviousCloseSkipsTicker(t *testing.T) {
	f := newFixture("SCCO")
	f.source.SetLive("SCCO", "120")

	report := f.service.EvaluateTick(context.Background())
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, f.live.Len())

	f.source.SetClose("SCCO", "100")
	report = f.service.EvaluateTick(context.Background())
	assert.Equal(t, 1, report.Alerts)
}

func TestAlertService_DeliveryFailureDoesNotBlockOthers(t *testing.T) {
	f := newFixture("AAPL", "NVDA", "AMD")
	for _, tk := range []domain.Ticker{"AAPL", "NVDA", "AMD"} {
		f.source.SetClose(tk, "100")
		f.source.SetLive(tk, "110")
	}
	f.sink.SetFailing("NVDA", true)

	mockLogger := new(MockLogger)
	originalLogger := log.GetInstance()
	log.SetInstance(mockLogger)
	defer log.SetInstance(originalLogger)
	mockLogger.On("Error", "Alert for %s not delivered: %v", mock.Anything, mock.Anything).Return()

	report := f.service.EvaluateTick(context.Background())

	assert.Equal(t, 2, report.Alerts)
	assert.Equal(t, 1, report.DeliveryFailures)
	mockLogger.AssertNumberOfCalls(t, "Error", 1)

	alerts := f.sink.Alerts()
	require.Len(t, alerts, 2)
	assert.Equal(t, domain.Ticker("AAPL"), alerts[0].Ticker)
	assert.Equal(t, domain.Ticker("AMD"), alerts[1].Ticker)

	// the failed ticker's quote is still recorded
	_, ok := f.live.Get("NVDA")
	assert.True(t, ok)
}

func TestAlertService_AlertsFollowDeclarationOrder(t *testing.T) {
	tickers := []domain.Ticker{"KGC", "AEM", "JNJ", "TSM"}
	f := newFixture(tickers...)
	for i, tk := range tickers {
		f.source.SetClose(tk, "100")
		f.source.SetLive(tk, "90")
		f.source.SetDelay(tk, time.Duration(len(tickers)-i)*10*time.Millisecond)
	}
	f.service.SetMaxConcurrency(2)

	f.service.EvaluateTick(context.Background())

	alerts := f.sink.Alerts()
	require.Len(t, alerts, len(tickers))
	for i, tk := range tickers {
		assert.Equal(t, tk, alerts[i].Ticker)
	}
}

func TestAlertService_ProviderPanicSkipsTicker(t *testing.T) {
	f := newFixture("NET", "V")
	f.source.SetPanic("NET", true)
	f.source.SetClose("V", "100")
	f.source.SetLive("V", "120")

	report := f.service.EvaluateTick(context.Background())
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Alerts)
}

func TestAlertService_Warmup(t *testing.T) {
	f := newFixture("AAPL", "NVDA")
	f.source.SetClose("AAPL", "100")

	assert.Equal(t, 1, f.service.Warmup(context.Background()))
	assert.Equal(t, 1, f.closes.Len())

	f.source.SetLive("AAPL", "100")
	f.service.EvaluateTick(context.Background())
	assert.Equal(t, 1, f.source.CloseCalls("AAPL"))
}

func TestAlertService_ResetPreviousCloses(t *testing.T) {
	f := newFixture("AAPL")
	f.source.SetClose("AAPL", "100")
	f.source.SetLive("AAPL", "100")
	f.service.EvaluateTick(context.Background())

	f.service.ResetPreviousCloses()
	f.source.SetClose("AAPL", "101")
	f.service.EvaluateTick(context.Background())

	cached, _ := f.live.Get("AAPL")
	assert.Equal(t, "101", cached.PrevClose.String())
	assert.Equal(t, 2, f.source.CloseCalls("AAPL"))
}

func TestAlertService_ListTracked(t *testing.T) {
	f := newFixture("AAPL", "NVDA", "AMD")
	f.source.SetClose("AAPL", "100")
	f.source.SetLive("AAPL", "101")
	f.source.SetClose("NVDA", "200")
	f.service.Warmup(context.Background())
	f.service.EvaluateTick(context.Background())

	callsBefore := f.source.TotalCalls()
	liveBefore := f.live.Len()
	closesBefore := f.closes.Len()

	entries := f.service.ListTracked()

	require.Len(t, entries, 3)
	assert.Equal(t, domain.Ticker("AAPL"), entries[0].Ticker)
	assert.True(t, entries[0].HasQuote())
	assert.Equal(t, "101", entries[0].Quote.CurrentPrice.String())

	assert.Equal(t, domain.Ticker("NVDA"), entries[1].Ticker)
	assert.False(t, entries[1].HasQuote())
	require.True(t, entries[1].PrevClose.Valid)
	assert.Equal(t, "200", entries[1].PrevClose.Decimal.String())

	assert.Equal(t, domain.Ticker("AMD"), entries[2].Ticker)
	assert.False(t, entries[2].HasQuote())
	assert.False(t, entries[2].PrevClose.Valid)

	assert.Equal(t, callsBefore, f.source.TotalCalls())
	assert.Equal(t, liveBefore, f.live.Len())
	assert.Equal(t, closesBefore, f.closes.Len())
}

func TestAlertService_DeliverList(t *testing.T) {
	f := newFixture("AAPL", "NVDA")
	f.source.SetClose("AAPL", "100")
	f.source.SetLive("AAPL", "100.2")
	f.service.EvaluateTick(context.Background())

	out := mocks.NewMockSink()
	require.NoError(t, f.service.DeliverList(context.Background(), out))

	require.Len(t, out.Alerts(), 1)
	assert.Equal(t, domain.Ticker("AAPL"), out.Alerts()[0].Ticker)
	require.Len(t, out.Placeholders(), 1)
	assert.Equal(t, domain.Ticker("NVDA"), out.Placeholders()[0].Ticker)
	assert.False(t, out.Placeholders()[0].PrevClose.Valid)
}

func TestAlertService_DeliverListJoinsFailures(t *testing.T) {
	f := newFixture("AAPL", "NVDA")
	out := mocks.NewMockSink()
	out.SetFailing("AAPL", true)

	mockLogger := new(MockLogger)
	originalLogger := log.GetInstance()
	log.SetInstance(mockLogger)
	defer log.SetInstance(originalLogger)
	mockLogger.On("Error", mock.Anything, mock.Anything, mock.Anything).Return()

	err := f.service.DeliverList(context.Background(), out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDeliveryFailure))
	assert.Len(t, out.Placeholders(), 1)
}

func TestAlertService_TickersIsACopy(t *testing.T) {
	f := newFixture("AAPL", "NVDA")
	got := f.service.Tickers()
	got[0] = "XXX"
	assert.Equal(t, domain.Ticker("AAPL"), f.service.Tickers()[0])
	assert.Equal(t, "1.5", f.service.ThresholdPct().String())
}
