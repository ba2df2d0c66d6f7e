//go:build integration

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/FrancoRivero2025/stock-alert-bot/config"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/cache"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/yahoo"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/application"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_QuotesFromYahoo(t *testing.T) {
	cfg := config.Default()

	client := yahoo.NewClient(cfg.Provider.YahooURL, 10)
	service := application.NewAlertService(cache.NewInMemoryQuoteCache(), cache.NewInMemoryCloseStore(),
		client, mocks.NewMockSink(), cfg.TickersAsDomain(), cfg.ThresholdDecimal())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	service.Warmup(ctx)
	report := service.EvaluateTick(ctx)
	assert.Greater(t, report.Evaluated, 0)

	server := httptest.NewServer(NewHandler(service).Router())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/quotes")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var response struct {
		Data []domain.ListEntry    `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	assert.Equal(t, float64(len(cfg.Tickers)), response.Meta["count"])
	for i, e := range response.Data {
		assert.Equal(t, domain.Ticker(cfg.Tickers[i]), e.Ticker)
	}
}
