package application

import (
	"fmt"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Evaluate computes the signed and percentage change of current against
// prevClose. Values are not rounded.
func Evaluate(t domain.Ticker, current, prevClose decimal.NullDecimal) (domain.PriceQuote, error) {
	if !current.Valid {
		return domain.PriceQuote{}, fmt.Errorf("%w: no live price for %s", domain.ErrMissingPrice, t)
	}
	if !prevClose.Valid || prevClose.Decimal.IsZero() {
		return domain.PriceQuote{}, fmt.Errorf("%w: no previous close for %s", domain.ErrMissingPrice, t)
	}

	change := current.Decimal.Sub(prevClose.Decimal)
	return domain.PriceQuote{
		Ticker:        t,
		CurrentPrice:  current.Decimal,
		PrevClose:     prevClose.Decimal,
		Change:        change,
		PercentChange: change.Div(prevClose.Decimal).Mul(hundred),
	}, nil
}
