package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/log"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/metrics"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// PreviousCloseResolver serves previous closes from the store and reaches
// the price source only on a miss. Failures are never stored.
type PreviousCloseResolver struct {
	store  domain.PreviousCloseStore
	source domain.PriceSource
	sf     singleflight.Group
}

func NewPreviousCloseResolver(store domain.PreviousCloseStore, source domain.PriceSource) *PreviousCloseResolver {
	return &PreviousCloseResolver{store: store, source: source}
}

func (r *PreviousCloseResolver) Resolve(ctx context.Context, t domain.Ticker) (decimal.Decimal, error) {
	if v, ok := r.store.Get(t); ok {
		return v, nil
	}

	val, err, _ := r.sf.Do(string(t), func() (result interface{}, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				log.GetInstance().Debug("PANIC in PreviousClose for %s: %v", t, rec)
				err = fmt.Errorf("%w: previous close for %s", domain.ErrDataUnavailable, t)
			}
		}()

		if v, ok := r.store.Get(t); ok {
			return v, nil
		}
		v, err := r.source.PreviousClose(ctx, t)
		if err != nil {
			metrics.PrevCloseFetchesTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("%w: previous close for %s: %v", domain.ErrDataUnavailable, t, err)
		}
		metrics.PrevCloseFetchesTotal.WithLabelValues("ok").Inc()
		return r.store.SetIfAbsent(t, v), nil
	})
	if err != nil {
		return decimal.Decimal{}, err
	}
	return val.(decimal.Decimal), nil
}

// Peek returns the stored close without fetching.
func (r *PreviousCloseResolver) Peek(t domain.Ticker) decimal.NullDecimal {
	v, ok := r.store.Get(t)
	return decimal.NullDecimal{Decimal: v, Valid: ok}
}

func (r *PreviousCloseResolver) Reset() {
	r.store.Clear()
}

// Warmup resolves every ticker concurrently. Lookups that fail are logged
// and left for lazy resolution on a later tick. It returns the number of
// tickers resolved.
func (r *PreviousCloseResolver) Warmup(ctx context.Context, tickers []domain.Ticker, limit int) int {
	var (
		g        errgroup.Group
		mu       sync.Mutex
		resolved int
	)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, t := range tickers {
		g.Go(func() error {
			v, err := r.Resolve(ctx, t)
			if err != nil {
				log.GetInstance().Warn("Warm-up skipped %s: %v", t, err)
				return nil
			}
			log.GetInstance().Info("Previous close %s: $%s", t, v.StringFixed(2))
			mu.Lock()
			resolved++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return resolved
}
