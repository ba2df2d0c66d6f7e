package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/notify"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes alert events to a Kafka topic keyed by ticker, so events
// for one ticker stay ordered within a partition.
type Publisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		now: time.Now,
	}
}

func (p *Publisher) SendAlert(ctx context.Context, q domain.PriceQuote) error {
	return p.write(ctx, notify.NewAlertEvent(q, p.now()))
}

func (p *Publisher) SendPlaceholder(ctx context.Context, t domain.Ticker, prevClose decimal.NullDecimal) error {
	return p.write(ctx, notify.NewPlaceholderEvent(t, prevClose, p.now()))
}

func (p *Publisher) write(ctx context.Context, ev notify.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%w: encode %s event: %v", domain.ErrDeliveryFailure, ev.Ticker, err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Ticker),
		Value: data,
		Time:  ev.PublishedAt,
	})
	if err != nil {
		return fmt.Errorf("%w: kafka write: %v", domain.ErrDeliveryFailure, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
