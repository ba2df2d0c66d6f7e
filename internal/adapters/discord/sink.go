package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/render"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
)

type messageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ChannelSink posts one embed per notification to a single channel. When
// mentionOnce is set the content line goes out with the first message only.
type ChannelSink struct {
	sender       messageSender
	channelID    string
	style        render.Style
	content      string
	mentionOnce  bool

	mu   sync.Mutex
	sent bool
}

func NewChannelSink(sender messageSender, channelID string, style render.Style, content string, mentionOnce bool) *ChannelSink {
	return &ChannelSink{
		sender:       sender,
		channelID:    channelID,
		style:        style,
		content:      content,
		mentionOnce:  mentionOnce,
	}
}

func (c *ChannelSink) SendAlert(ctx context.Context, q domain.PriceQuote) error {
	return c.send(ctx, render.QuoteCard(q, c.style))
}

func (c *ChannelSink) SendPlaceholder(ctx context.Context, t domain.Ticker, prevClose decimal.NullDecimal) error {
	return c.send(ctx, render.PlaceholderCard(t, prevClose))
}

func (c *ChannelSink) nextContent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mentionOnce && c.sent {
		return ""
	}
	c.sent = true
	return c.content
}

func (c *ChannelSink) send(ctx context.Context, card render.Card) error {
	msg := &discordgo.MessageSend{
		Content: c.nextContent(),
		Embeds:  []*discordgo.MessageEmbed{ToEmbed(card)},
	}
	if _, err := c.sender.ChannelMessageSendComplex(c.channelID, msg, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("%w: discord channel %s: %v", domain.ErrDeliveryFailure, c.channelID, err)
	}
	return nil
}

func ToEmbed(card render.Card) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       card.Title,
		Description: card.Description,
		Color:       card.Color,
	}
	for _, f := range card.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	if card.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: card.Footer}
	}
	if !card.Timestamp.IsZero() {
		embed.Timestamp = card.Timestamp.Format(time.RFC3339)
	}
	return embed
}
