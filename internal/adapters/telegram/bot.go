package telegram

import (
	"context"
	"fmt"
	"sync"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/log"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/render"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

const (
	alertHeader = "🚨 Market alert!"
	listHeader  = "📋 Tracked stock prices"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ChatSink sends plain-text cards to one chat.
type ChatSink struct {
	api          sender
	chatID       int64
	style        render.Style
	header       string
	headerOnce   bool

	mu   sync.Mutex
	sent bool
}

func NewChatSink(api sender, chatID int64, style render.Style, header string, headerOnce bool) *ChatSink {
	return &ChatSink{
		api:          api,
		chatID:       chatID,
		style:        style,
		header:       header,
		headerOnce:   headerOnce,
	}
}

func (c *ChatSink) SendAlert(_ context.Context, q domain.PriceQuote) error {
	return c.send(render.QuoteCard(q, c.style))
}

func (c *ChatSink) SendPlaceholder(_ context.Context, t domain.Ticker, prevClose decimal.NullDecimal) error {
	return c.send(render.PlaceholderCard(t, prevClose))
}

func (c *ChatSink) text(card render.Card) string {
	c.mu.Lock()
	withHeader := c.header != "" && !(c.headerOnce && c.sent)
	c.sent = true
	c.mu.Unlock()

	if withHeader {
		return c.header + "\n\n" + card.PlainText()
	}
	return card.PlainText()
}

func (c *ChatSink) send(card render.Card) error {
	msg := tgbotapi.NewMessage(c.chatID, c.text(card))
	msg.DisableWebPagePreview = true
	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("%w: telegram chat %d: %v", domain.ErrDeliveryFailure, c.chatID, err)
	}
	return nil
}

type Lister interface {
	DeliverList(ctx context.Context, sink domain.NotificationSink) error
}

type Bot struct {
	api    *tgbotapi.BotAPI
	style  render.Style
	alerts *ChatSink
	lister Lister
}

func NewBot(token string, chatID int64, style render.Style) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	api.Debug = false
	log.GetInstance().Info("Telegram bot authorized as %s", api.Self.UserName)

	return &Bot{
		api:    api,
		style:  style,
		alerts: NewChatSink(api, chatID, style, alertHeader, false),
	}, nil
}

func (b *Bot) SetLister(l Lister) {
	b.lister = l
}

func (b *Bot) SendAlert(ctx context.Context, q domain.PriceQuote) error {
	return b.alerts.SendAlert(ctx, q)
}

func (b *Bot) SendPlaceholder(ctx context.Context, t domain.Ticker, prevClose decimal.NullDecimal) error {
	return b.alerts.SendPlaceholder(ctx, t, prevClose)
}

// Start serves /list until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil || !update.Message.IsCommand() {
			continue
		}
		if update.Message.Command() == "list" {
			b.handleList(ctx, update.Message.Chat.ID)
		}
	}
}

func (b *Bot) handleList(ctx context.Context, chatID int64) {
	defer func() {
		if rec := recover(); rec != nil {
			log.GetInstance().Error("PANIC in /list handler: %v", rec)
		}
	}()
	if b.lister == nil {
		return
	}
	sink := NewChatSink(b.api, chatID, b.style, listHeader, true)
	if err := b.lister.DeliverList(ctx, sink); err != nil {
		log.GetInstance().Warn("Telegram /list partially failed: %v", err)
	}
}
