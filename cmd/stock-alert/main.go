package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/FrancoRivero2025/stock-alert-bot/config"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/cache"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/discord"
	httpapi "github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/http"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/kafka"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/log"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/notify"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/polygon"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/redis"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/render"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/telegram"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/yahoo"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/application"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/refresher"

	"github.com/go-chi/chi/v5"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	logger := log.GetInstance()

	cfg, err := config.Initialize(configPath)
	if err != nil {
		logger.Fatal("invalid configuration: %v", err)
	}

	logger.SetLevel(log.ParseLevel(cfg.Log.Level))
	if cfg.Log.File != "" {
		if err := logger.SetOutputToFile(cfg.Log.File); err != nil {
			logger.Fatal("log file: %v", err)
		}
	}

	var (
		source     domain.PriceSource
		sourceName string
	)
	switch cfg.Provider.Name {
	case config.ProviderPolygon:
		source = polygon.NewClient(cfg.Provider.PolygonAPIKey, cfg.Provider.TimeoutSeconds)
		sourceName = polygon.Name
	default:
		source = yahoo.NewClient(cfg.Provider.YahooURL, cfg.Provider.TimeoutSeconds)
		sourceName = yahoo.Name
	}
	logger.Info("Using %s price source", sourceName)

	sinks := notify.NewFanout()
	service := application.NewAlertService(
		cache.NewInMemoryQuoteCache(),
		cache.NewInMemoryCloseStore(),
		source,
		sinks,
		cfg.TickersAsDomain(),
		cfg.ThresholdDecimal(),
	)
	service.SetMaxConcurrency(cfg.Polling.MaxConcurrency)
	style := render.Style{ThresholdPct: service.ThresholdPct(), Source: sourceName}

	ref := refresher.NewRefresher(service, refresher.Options{
		Interval:         cfg.Polling.Interval,
		EvictionInterval: cfg.Polling.EvictionInterval,
		Hours:            refresher.NewMarketHours(cfg.Market.OpenHour, cfg.Market.CloseHour, cfg.Market.UTCOffsetHours),
		DailyReset:       cfg.Polling.DailyReset,
	})

	startPolling := func() {
		resolved := service.Warmup(ctx)
		logger.Info("Previous closes resolved for %d/%d tickers", resolved, len(service.Tickers()))
		ref.Start(ctx)
		logger.Info("Polling %d tickers every %s, threshold %s%%",
			len(service.Tickers()), cfg.Polling.Interval, service.ThresholdPct().String())
	}

	var redisPub *redis.Publisher
	if cfg.Redis.Enabled {
		redisPub = redis.NewPublisher(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Channel)
		sinks.Add(redisPub)
		logger.Info("Publishing alerts to Redis channel %s", cfg.Redis.Channel)
	}

	var kafkaPub *kafka.Publisher
	if cfg.Kafka.Enabled {
		kafkaPub = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		sinks.Add(kafkaPub)
		logger.Info("Publishing alerts to Kafka topic %s", cfg.Kafka.Topic)
	}

	var wg sync.WaitGroup

	if cfg.Telegram.Enabled {
		tg, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID, style)
		if err != nil {
			logger.Fatal("failed to start Telegram bot: %v", err)
		}
		tg.SetLister(service)
		sinks.Add(tg)

		wg.Add(1)
		go func() {
			defer wg.Done()
			tg.Start(ctx)
		}()
	}

	var bot *discord.Bot
	if cfg.Discord.Enabled {
		bot, err = discord.NewBot(cfg.Discord.Token, cfg.Discord.ChannelID, style)
		if err != nil {
			logger.Fatal("failed to create Discord session: %v", err)
		}
		bot.SetLister(service)
		bot.OnReady(startPolling)
		sinks.Add(bot)

		if err := bot.Open(ctx); err != nil {
			logger.Fatal("failed to connect to Discord: %v", err)
		}
	} else {
		go startPolling()
	}

	var server *http.Server
	if cfg.Server.Enabled {
		handler := httpapi.NewHandler(service)
		handler.AddCheck("price_source", httpapi.SourceCheck(source, service.Tickers()[0]))
		if redisPub != nil {
			handler.AddCheck("redis", redisPub.CheckConnectivity)
		}

		r := chi.NewRouter()
		r.Mount("/", handler.Router())

		addr := ":" + cfg.ServerPortString()
		server = &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("starting status server on %s", addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("HTTP server error: %v", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error: %v", err)
		} else {
			logger.Info("HTTP server stopped gracefully")
		}
	}

	ref.Stop()
	logger.Info("Refresher stopped")

	if bot != nil {
		if err := bot.Close(); err != nil {
			logger.Error("Discord session close error: %v", err)
		}
	}
	if redisPub != nil {
		if err := redisPub.Close(); err != nil {
			logger.Error("Redis close error: %v", err)
		}
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("Kafka writer close error: %v", err)
		}
	}

	wg.Wait()
	logger.Info("All components stopped successfully")
}
