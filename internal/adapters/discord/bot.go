package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/log"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/render"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"
)

const listCommand = "list"

// Lister delivers the tracked-ticker list to a sink.
type Lister interface {
	DeliverList(ctx context.Context, sink domain.NotificationSink) error
}

// session is the part of *discordgo.Session the bot drives.
type session interface {
	messageSender
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

const (
	listProcessing = "Processing stock price request... please wait."
	listDone       = "Stock price list sent to the channel!"
	listPartial    = "Some stock prices could not be sent. Check the bot logs."
)

type Bot struct {
	conn      *discordgo.Session
	api       session
	channelID string
	style     render.Style
	alerts    *ChannelSink
	lister    Lister
	onReady   func()
	readyOnce sync.Once
	ctx       context.Context
}

func NewBot(token, channelID string, style render.Style) (*Bot, error) {
	conn, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	conn.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	b := newBot(conn, channelID, style)
	b.conn = conn
	return b, nil
}

func newBot(api session, channelID string, style render.Style) *Bot {
	return &Bot{
		api:       api,
		channelID: channelID,
		style:     style,
		alerts:    NewChannelSink(api, channelID, style, render.AlertContent, false),
		ctx:       context.Background(),
	}
}

func (b *Bot) SetLister(l Lister) {
	b.lister = l
}

// OnReady registers fn to run once, after the first successful connection.
func (b *Bot) OnReady(fn func()) {
	b.onReady = fn
}

// Open connects the gateway session. A failure here is fatal for the
// process.
func (b *Bot) Open(ctx context.Context) error {
	b.ctx = ctx
	b.conn.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.handleReady(r)
	})
	b.conn.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		b.handleInteraction(i)
	})
	if err := b.conn.Open(); err != nil {
		return fmt.Errorf("discord connect: %w", err)
	}
	return nil
}

func (b *Bot) Close() error {
	return b.conn.Close()
}

func (b *Bot) SendAlert(ctx context.Context, q domain.PriceQuote) error {
	return b.alerts.SendAlert(ctx, q)
}

func (b *Bot) SendPlaceholder(ctx context.Context, t domain.Ticker, prevClose decimal.NullDecimal) error {
	return b.alerts.SendPlaceholder(ctx, t, prevClose)
}

func (b *Bot) handleReady(r *discordgo.Ready) {
	log.GetInstance().Info("Discord bot connected as %s", r.User.String())

	_, err := b.api.ApplicationCommandCreate(r.User.ID, "", &discordgo.ApplicationCommand{
		Name:        listCommand,
		Description: "Show the live price of every tracked stock.",
	})
	if err != nil {
		log.GetInstance().Error("Registering /%s failed: %v", listCommand, err)
	} else {
		log.GetInstance().Info("Slash commands synced")
	}

	b.readyOnce.Do(func() {
		if b.onReady != nil {
			go b.onReady()
		}
	})
}

func (b *Bot) handleInteraction(i *discordgo.InteractionCreate) {
	defer func() {
		if rec := recover(); rec != nil {
			log.GetInstance().Error("PANIC in /%s handler: %v", listCommand, rec)
		}
	}()

	if i.Type != discordgo.InteractionApplicationCommand || i.ApplicationCommandData().Name != listCommand {
		return
	}
	if b.lister == nil {
		return
	}

	err := b.api.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: listProcessing,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.GetInstance().Error("Acknowledging /%s failed: %v", listCommand, err)
		return
	}

	sink := NewChannelSink(b.api, i.ChannelID, b.style, render.ListContent, true)
	done := listDone
	if err := b.lister.DeliverList(b.ctx, sink); err != nil {
		done = listPartial
	}
	if _, err := b.api.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &done}); err != nil {
		log.GetInstance().Warn("Editing /%s response failed: %v", listCommand, err)
	}
}
