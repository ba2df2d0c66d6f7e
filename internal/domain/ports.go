package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceSource returns market data for a ticker. A provider that has no data
// must return an error wrapping ErrDataUnavailable.
type PriceSource interface {
	PreviousClose(ctx context.Context, t Ticker) (decimal.Decimal, error)
	LiveQuote(ctx context.Context, t Ticker) (decimal.Decimal, error)
}

type NotificationSink interface {
	SendAlert(ctx context.Context, q PriceQuote) error
	SendPlaceholder(ctx context.Context, t Ticker, prevClose decimal.NullDecimal) error
}

type LiveQuoteCache interface {
	Get(t Ticker) (PriceQuote, bool)
	Set(t Ticker, q PriceQuote)
	Clear()
	Len() int
}

type PreviousCloseStore interface {
	Get(t Ticker) (decimal.Decimal, bool)
	// SetIfAbsent stores v unless a value already exists and returns the
	// value held after the call.
	SetIfAbsent(t Ticker, v decimal.Decimal) decimal.Decimal
	Clear()
	Len() int
}
