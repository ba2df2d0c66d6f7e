package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/log"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
)

const (
	Name           = "Yahoo Finance"
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	// Yahoo rejects requests without a browser-like user agent.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type Client struct {
	baseURL    string
	http       *http.Client
	userAgent  string
	newBackOff func() backoff.BackOff
}

func NewClient(baseURL string, timeout uint) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   baseURL,
		http:      &http.Client{Timeout: time.Duration(timeout) * time.Second},
		userAgent: DefaultUserAgent,
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
		},
	}
}

func (c *Client) SetHTTPClient(h *http.Client) {
	c.http = h
}

func (c *Client) SetBackOff(f func() backoff.BackOff) {
	c.newBackOff = f
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		RegularMarketPrice decimal.NullDecimal `json:"regularMarketPrice"`
	} `json:"meta"`
	Indicators struct {
		Quote []struct {
			Close []decimal.NullDecimal `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// PreviousClose reads a two-bar daily history and returns the latest close
// present in it.
func (c *Client) PreviousClose(ctx context.Context, t domain.Ticker) (decimal.Decimal, error) {
	res, err := c.chart(ctx, t, "2d", "1d")
	if err != nil {
		return decimal.Decimal{}, err
	}
	if len(res.Indicators.Quote) == 0 {
		return decimal.Decimal{}, fmt.Errorf("%w: no daily bars for %s", domain.ErrDataUnavailable, t)
	}
	closes := res.Indicators.Quote[0].Close
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i].Valid {
			return closes[i].Decimal, nil
		}
	}
	return decimal.Decimal{}, fmt.Errorf("%w: no close in daily bars for %s", domain.ErrDataUnavailable, t)
}

// LiveQuote only needs the chart meta, so it asks for a single daily bar.
func (c *Client) LiveQuote(ctx context.Context, t domain.Ticker) (decimal.Decimal, error) {
	res, err := c.chart(ctx, t, "1d", "1d")
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !res.Meta.RegularMarketPrice.Valid {
		return decimal.Decimal{}, fmt.Errorf("%w: no market price for %s", domain.ErrDataUnavailable, t)
	}
	return res.Meta.RegularMarketPrice.Decimal, nil
}

func (c *Client) chart(ctx context.Context, t domain.Ticker, rng, interval string) (chartResult, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		c.baseURL, url.PathEscape(string(t)), rng, interval)

	var parsed chartResponse
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("yahoo status %d", resp.StatusCode)
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(fmt.Errorf("%w: unknown symbol %s", domain.ErrDataUnavailable, t))
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("yahoo status %d", resp.StatusCode))
		}

		parsed = chartResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("decode chart: %w", err))
		}
		if parsed.Chart.Error != nil {
			return backoff.Permanent(fmt.Errorf("yahoo error %s: %s", parsed.Chart.Error.Code, parsed.Chart.Error.Description))
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		log.GetInstance().Warn("Failed to fetch chart for %s: %v", t, err)
		if errors.Is(err, domain.ErrDataUnavailable) {
			return chartResult{}, err
		}
		return chartResult{}, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}

	if len(parsed.Chart.Result) == 0 {
		return chartResult{}, fmt.Errorf("%w: empty chart for %s", domain.ErrDataUnavailable, t)
	}
	return parsed.Chart.Result[0], nil
}
