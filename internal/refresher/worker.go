package refresher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/log"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/application"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/metrics"
)

// Service is the part of application.AlertService the scheduler drives.
type Service interface {
	EvaluateTick(ctx context.Context) application.TickReport
	EvictLiveQuotes()
	ResetPreviousCloses()
}

type Options struct {
	Interval         time.Duration
	EvictionInterval time.Duration
	Hours            MarketHours
	// DailyReset clears previous closes on the first in-hours tick of each
	// new session day.
	DailyReset bool
	Now        func() time.Time
}

// Refresher runs the evaluation and eviction ticks on a single goroutine,
// so the two never overlap. The first evaluation runs as soon as it starts.
type Refresher struct {
	service Service
	opts    Options

	lastSession string
	quit        chan struct{}
	done        chan struct{}
	stopOnce    sync.Once
	started     atomic.Bool
}

func NewRefresher(s Service, opts Options) *Refresher {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.EvictionInterval <= 0 {
		opts.EvictionInterval = 10 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Refresher{
		service: s,
		opts:    opts,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (r *Refresher) Start(ctx context.Context) {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	go r.run(ctx)
}

func (r *Refresher) run(ctx context.Context) {
	defer close(r.done)

	evalTicker := time.NewTicker(r.opts.Interval)
	defer evalTicker.Stop()
	evictTicker := time.NewTicker(r.opts.EvictionInterval)
	defer evictTicker.Stop()

	r.Tick(ctx)

	for {
		select {
		case <-evalTicker.C:
			r.Tick(ctx)
		case <-evictTicker.C:
			r.Evict()
		case <-r.quit:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Tick runs one evaluation tick. It reports whether the market was open.
func (r *Refresher) Tick(ctx context.Context) bool {
	now := r.opts.Now()
	if !r.opts.Hours.IsOpen(now) {
		metrics.TicksTotal.WithLabelValues("market_closed").Inc()
		log.GetInstance().Info("Outside market hours (%02d:00 %s), skipping check",
			r.opts.Hours.Hour(now), r.opts.Hours.Location)
		return false
	}

	if r.opts.DailyReset {
		session := r.opts.Hours.SessionDay(now)
		if r.lastSession != "" && r.lastSession != session {
			r.service.ResetPreviousCloses()
			log.GetInstance().Info("New session %s, previous closes cleared", session)
		}
		r.lastSession = session
	}

	start := time.Now()
	log.GetInstance().Debug("Checking stock prices...")
	report := r.service.EvaluateTick(ctx)
	metrics.TicksTotal.WithLabelValues("evaluated").Inc()
	metrics.TickDuration.Observe(time.Since(start).Seconds())
	log.GetInstance().Info("Tick done: evaluated=%d skipped=%d alerts=%d suppressed=%d failed=%d",
		report.Evaluated, report.Skipped, report.Alerts, report.Suppressed, report.DeliveryFailures)
	return true
}

func (r *Refresher) Evict() {
	r.service.EvictLiveQuotes()
	log.GetInstance().Info("Live quote cache cleared")
}

// Stop ends the loop and waits for an in-flight tick to finish.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() {
		close(r.quit)
	})
	if r.started.Load() {
		<-r.done
	}
}
