package notify

import (
	"context"
	"errors"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/shopspring/decimal"
)

// Fanout delivers every notification to all sinks in order. Each sink is
// attempted even when an earlier one fails; the errors are joined.
type Fanout struct {
	sinks []domain.NotificationSink
}

func NewFanout(sinks ...domain.NotificationSink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

func (f *Fanout) Add(s domain.NotificationSink) {
	if s != nil {
		f.sinks = append(f.sinks, s)
	}
}

func (f *Fanout) Len() int {
	return len(f.sinks)
}

func (f *Fanout) SendAlert(ctx context.Context, q domain.PriceQuote) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.SendAlert(ctx, q); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) SendPlaceholder(ctx context.Context, t domain.Ticker, prevClose decimal.NullDecimal) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.SendPlaceholder(ctx, t, prevClose); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
