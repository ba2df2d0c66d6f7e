package polygon

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	polygonrest "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/shopspring/decimal"
)

const Name = "Polygon.io"

// Client reads previous closes from the previous-day aggregate endpoint and
// live prices from the last trade endpoint.
type Client struct {
	rest *polygonrest.Client
}

func NewClient(apiKey string, timeout uint) *Client {
	return &Client{
		rest: polygonrest.NewWithClient(apiKey, &http.Client{Timeout: time.Duration(timeout) * time.Second}),
	}
}

func (c *Client) PreviousClose(ctx context.Context, t domain.Ticker) (decimal.Decimal, error) {
	adjusted := true
	res, err := c.rest.GetPreviousCloseAgg(ctx, &models.GetPreviousCloseAggParams{
		Ticker:   string(t),
		Adjusted: &adjusted,
	})
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: polygon previous close for %s: %v", domain.ErrDataUnavailable, t, err)
	}
	return latestClose(t, res.Results)
}

func (c *Client) LiveQuote(ctx context.Context, t domain.Ticker) (decimal.Decimal, error) {
	res, err := c.rest.GetLastTrade(ctx, &models.GetLastTradeParams{Ticker: string(t)})
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: polygon last trade for %s: %v", domain.ErrDataUnavailable, t, err)
	}
	return positivePrice(t, res.Results.Price)
}

func latestClose(t domain.Ticker, aggs []models.Agg) (decimal.Decimal, error) {
	if len(aggs) == 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: no previous-day aggregate for %s", domain.ErrDataUnavailable, t)
	}
	return positivePrice(t, aggs[len(aggs)-1].Close)
}

func positivePrice(t domain.Ticker, v float64) (decimal.Decimal, error) {
	if v <= 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: no price for %s", domain.ErrDataUnavailable, t)
	}
	return decimal.NewFromFloat(v), nil
}
