package notify

import (
	"time"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	EventAlert       = "alert"
	EventPlaceholder = "placeholder"
)

// Event is the wire payload published to message brokers.
type Event struct {
	Type        string              `json:"type"`
	Ticker      domain.Ticker       `json:"ticker"`
	Quote       *domain.PriceQuote  `json:"quote,omitempty"`
	PrevClose   decimal.NullDecimal `json:"prev_close"`
	PublishedAt time.Time           `json:"published_at"`
}

func NewAlertEvent(q domain.PriceQuote, now time.Time) Event {
	return Event{
		Type:        EventAlert,
		Ticker:      q.Ticker,
		Quote:       &q,
		PrevClose:   decimal.NewNullDecimal(q.PrevClose),
		PublishedAt: now.UTC(),
	}
}

func NewPlaceholderEvent(t domain.Ticker, prevClose decimal.NullDecimal, now time.Time) Event {
	return Event{
		Type:        EventPlaceholder,
		Ticker:      t,
		PrevClose:   prevClose,
		PublishedAt: now.UTC(),
	}
}
