package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/log"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/metrics"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type AlertService struct {
	tickers        []domain.Ticker
	source         domain.PriceSource
	sink           domain.NotificationSink
	live           domain.LiveQuoteCache
	closes         *PreviousCloseResolver
	decider        *Decider
	maxConcurrency int
	now            func() time.Time
}

// TickReport summarises one evaluation tick.
type TickReport struct {
	Evaluated        int
	Skipped          int
	Alerts           int
	Suppressed       int
	DeliveryFailures int
}

type fetchResult struct {
	quote domain.PriceQuote
	err   error
}

func NewAlertService(
	live domain.LiveQuoteCache,
	closes domain.PreviousCloseStore,
	source domain.PriceSource,
	sink domain.NotificationSink,
	tickers []domain.Ticker,
	threshold decimal.Decimal,
) *AlertService {
	own := make([]domain.Ticker, len(tickers))
	copy(own, tickers)
	return &AlertService{
		tickers:        own,
		source:         source,
		sink:           sink,
		live:           live,
		closes:         NewPreviousCloseResolver(closes, source),
		decider:        NewDecider(live, threshold),
		maxConcurrency: len(own),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// SetMaxConcurrency caps parallel fetches per tick. Zero or less means one
// worker per ticker.
func (s *AlertService) SetMaxConcurrency(n int) {
	if n <= 0 {
		n = len(s.tickers)
	}
	s.maxConcurrency = n
}

func (s *AlertService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *AlertService) Tickers() []domain.Ticker {
	out := make([]domain.Ticker, len(s.tickers))
	copy(out, s.tickers)
	return out
}

func (s *AlertService) ThresholdPct() decimal.Decimal {
	return s.decider.ThresholdPct()
}

func (s *AlertService) Warmup(ctx context.Context) int {
	return s.closes.Warmup(ctx, s.tickers, s.maxConcurrency)
}

// FetchQuote reads the live price and the previous close and evaluates them.
// It never touches the live quote cache.
func (s *AlertService) FetchQuote(ctx context.Context, t domain.Ticker) (q domain.PriceQuote, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.GetInstance().Debug("PANIC in FetchQuote for %s: %v", t, rec)
			q = domain.PriceQuote{}
			err = fmt.Errorf("%w: live quote for %s", domain.ErrDataUnavailable, t)
		}
	}()

	price, err := s.source.LiveQuote(ctx, t)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("%w: live quote for %s: %v", domain.ErrDataUnavailable, t, err)
	}
	prev, err := s.closes.Resolve(ctx, t)
	if err != nil {
		return domain.PriceQuote{}, err
	}

	q, err = Evaluate(t, decimal.NewNullDecimal(price), decimal.NewNullDecimal(prev))
	if err != nil {
		return domain.PriceQuote{}, err
	}
	q.Timestamp = s.now()
	return q, nil
}

func (s *AlertService) fetchAll(ctx context.Context) []fetchResult {
	results := make([]fetchResult, len(s.tickers))

	var g errgroup.Group
	if s.maxConcurrency > 0 {
		g.SetLimit(s.maxConcurrency)
	}
	for i, t := range s.tickers {
		g.Go(func() error {
			q, err := s.FetchQuote(ctx, t)
			results[i] = fetchResult{quote: q, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// EvaluateTick fetches all tickers concurrently, then decides and delivers
// in declaration order. A failed fetch leaves that ticker's cache entry
// untouched; a failed delivery does not stop the remaining tickers.
func (s *AlertService) EvaluateTick(ctx context.Context) TickReport {
	var report TickReport

	results := s.fetchAll(ctx)
	for i, res := range results {
		t := s.tickers[i]
		if res.err != nil {
			report.Skipped++
			metrics.FetchFailuresTotal.WithLabelValues(string(t)).Inc()
			log.GetInstance().Warn("Skipping %s this tick: %v", t, res.err)
			continue
		}
		report.Evaluated++

		q := res.quote
		decision := s.decider.Decide(q)
		switch decision {
		case DecisionAlert:
			if err := s.sink.SendAlert(ctx, q); err != nil {
				report.DeliveryFailures++
				metrics.DeliveryFailuresTotal.Inc()
				log.GetInstance().Error("Alert for %s not delivered: %v", t, err)
			} else {
				report.Alerts++
				metrics.AlertsSentTotal.WithLabelValues(string(t)).Inc()
				log.GetInstance().Info("Alert sent for %s: %s%%", t, q.PercentChange.StringFixed(2))
			}
		case DecisionSuppressed:
			report.Suppressed++
			metrics.AlertsSuppressedTotal.WithLabelValues(string(t)).Inc()
			log.GetInstance().Debug("Change for %s is significant but price %s was already reported", t, q.CurrentPrice)
		}
		s.decider.Commit(q, decision)
	}

	metrics.LiveCacheEntries.Set(float64(s.live.Len()))
	return report
}

// EvictLiveQuotes drops all live quotes and with them the dedup history.
// Previous closes are kept.
func (s *AlertService) EvictLiveQuotes() {
	s.live.Clear()
	s.decider.Forget()
	metrics.CacheEvictionsTotal.Inc()
	metrics.LiveCacheEntries.Set(0)
}

func (s *AlertService) ResetPreviousCloses() {
	s.closes.Reset()
}

// ListTracked is read-only: it never fetches and never writes a cache.
func (s *AlertService) ListTracked() []domain.ListEntry {
	entries := make([]domain.ListEntry, 0, len(s.tickers))
	for _, t := range s.tickers {
		entry := domain.ListEntry{Ticker: t}
		if q, ok := s.live.Get(t); ok {
			entry.Quote = &q
			entry.PrevClose = decimal.NewNullDecimal(q.PrevClose)
		} else {
			entry.PrevClose = s.closes.Peek(t)
		}
		entries = append(entries, entry)
	}
	return entries
}

// DeliverList sends one message per tracked ticker to sink. Every entry is
// attempted; failures are joined into the returned error.
func (s *AlertService) DeliverList(ctx context.Context, sink domain.NotificationSink) error {
	var errs []error
	for _, e := range s.ListTracked() {
		var err error
		if e.HasQuote() {
			err = sink.SendAlert(ctx, *e.Quote)
		} else {
			err = sink.SendPlaceholder(ctx, e.Ticker, e.PrevClose)
		}
		if err != nil {
			metrics.DeliveryFailuresTotal.Inc()
			log.GetInstance().Error("List entry for %s not delivered: %v", e.Ticker, err)
			errs = append(errs, fmt.Errorf("%w: %s: %v", domain.ErrDeliveryFailure, e.Ticker, err))
		}
	}
	return errors.Join(errs...)
}
