package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/log"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/notify"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Publisher is a notification sink that publishes JSON events on a Redis
// pub/sub channel for other consumers of the alert stream.
type Publisher struct {
	client  *redis.Client
	channel string
	now     func() time.Time
}

func NewPublisher(addr, password string, db int, channel string) *Publisher {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Publisher{
		client:  rdb,
		channel: channel,
		now:     time.Now,
	}
}

func (p *Publisher) SendAlert(ctx context.Context, q domain.PriceQuote) error {
	return p.publish(ctx, notify.NewAlertEvent(q, p.now()))
}

func (p *Publisher) SendPlaceholder(ctx context.Context, t domain.Ticker, prevClose decimal.NullDecimal) error {
	return p.publish(ctx, notify.NewPlaceholderEvent(t, prevClose, p.now()))
}

func (p *Publisher) publish(ctx context.Context, ev notify.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%w: encode %s event: %v", domain.ErrDeliveryFailure, ev.Ticker, err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("%w: redis publish to %s: %v", domain.ErrDeliveryFailure, p.channel, err)
	}
	log.GetInstance().Debug("Published %s event for %s on %s", ev.Type, ev.Ticker, p.channel)
	return nil
}

func (p *Publisher) CheckConnectivity(ctx context.Context) bool {
	return p.client.Ping(ctx).Err() == nil
}

func (p *Publisher) Close() error {
	return p.client.Close()
}
