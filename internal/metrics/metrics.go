package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockalert_ticks_total",
		Help: "Evaluation ticks by outcome (evaluated, market_closed)",
	}, []string{"outcome"})

	FetchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockalert_fetch_failures_total",
		Help: "Tickers skipped because price data was unavailable",
	}, []string{"ticker"})

	AlertsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockalert_alerts_sent_total",
		Help: "Alerts delivered to the notification sink",
	}, []string{"ticker"})

	AlertsSuppressedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockalert_alerts_suppressed_total",
		Help: "Threshold crossings suppressed because the price was already reported",
	}, []string{"ticker"})

	DeliveryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockalert_delivery_failures_total",
		Help: "Notifications the sink failed to deliver",
	})

	CacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockalert_cache_evictions_total",
		Help: "Wholesale clears of the live quote cache",
	})

	PrevCloseFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockalert_prev_close_fetches_total",
		Help: "Previous close lookups that reached the price source",
	}, []string{"result"})

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stockalert_tick_duration_seconds",
		Help:    "Duration of evaluation ticks that ran inside market hours",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	LiveCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stockalert_live_cache_entries",
		Help: "Entries currently held in the live quote cache",
	})
)
