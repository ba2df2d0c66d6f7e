package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrDataUnavailable = errors.New("data unavailable")
	ErrMissingPrice    = errors.New("missing price")
	ErrDeliveryFailure = errors.New("delivery failure")
)

type Ticker string

// PriceQuote is the result of evaluating one live price against the
// previous session close. It is recomputed on every tick.
type PriceQuote struct {
	Ticker        Ticker          `json:"ticker"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	PrevClose     decimal.Decimal `json:"prev_close"`
	Change        decimal.Decimal `json:"change"`
	PercentChange decimal.Decimal `json:"percent_change"`
	Timestamp     time.Time       `json:"timestamp"`
}

func (q PriceQuote) IsEmpty() bool {
	return q.Ticker == ""
}

// ListEntry is one row of the on-demand list. Quote is nil when no live
// quote is cached, in which case PrevClose carries what is known.
type ListEntry struct {
	Ticker    Ticker              `json:"ticker"`
	Quote     *PriceQuote         `json:"quote,omitempty"`
	PrevClose decimal.NullDecimal `json:"prev_close"`
}

func (e ListEntry) HasQuote() bool {
	return e.Quote != nil
}
