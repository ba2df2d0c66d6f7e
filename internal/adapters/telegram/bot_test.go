package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/render"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

var style = render.Style{ThresholdPct: decimal.RequireFromString("1.5"), Source: "Polygon.io"}

func TestChatSink_ListHeaderOnlyOnFirstMessage(t *testing.T) {
	api := &fakeAPI{}
	sink := NewChatSink(api, 42, style, listHeader, true)

	q := domain.PriceQuote{
		Ticker:        "AAPL",
		CurrentPrice:  decimal.RequireFromString("100"),
		PrevClose:     decimal.RequireFromString("99"),
		Change:        decimal.RequireFromString("1"),
		PercentChange: decimal.RequireFromString("1.01"),
	}
	require.NoError(t, sink.SendAlert(context.Background(), q))
	require.NoError(t, sink.SendPlaceholder(context.Background(), "NVDA", decimal.NullDecimal{}))

	require.Len(t, api.sent, 2)
	assert.Equal(t, int64(42), api.sent[0].ChatID)
	assert.Contains(t, api.sent[0].Text, listHeader)
	assert.Contains(t, api.sent[0].Text, "Current price: $100.00")
	assert.Contains(t, api.sent[0].Text, "Watched via Polygon.io")
	assert.NotContains(t, api.sent[1].Text, listHeader)
	assert.Contains(t, api.sent[1].Text, "Previous close: N/A")
}

func TestChatSink_Failure(t *testing.T) {
	sink := NewChatSink(&fakeAPI{err: errors.New("Forbidden")}, 1, style, alertHeader, false)
	err := sink.SendPlaceholder(context.Background(), "NVDA", decimal.NullDecimal{})
	assert.True(t, errors.Is(err, domain.ErrDeliveryFailure))
}
