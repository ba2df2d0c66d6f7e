package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/FrancoRivero2025/stock-alert-bot/config"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/log"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/polygon"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/render"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/adapters/yahoo"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/application"
	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/shopspring/decimal"
)

// quote-probe fetches one ticker from the configured provider and prints the
// card an alert would carry.
func main() {
	configPath := flag.String("config", "config.yaml", "path to the yaml config")
	ticker := flag.String("ticker", "AAPL", "symbol to fetch")
	provider := flag.String("provider", "", "yahoo or polygon, overrides the config")
	flag.Parse()

	logger := log.GetInstance()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("config: %v", err)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		logger.Fatal("config: %v", err)
	}
	if *provider != "" {
		cfg.Provider.Name = *provider
	}

	var (
		source     domain.PriceSource
		sourceName string
	)
	switch cfg.Provider.Name {
	case config.ProviderPolygon:
		source = polygon.NewClient(cfg.Provider.PolygonAPIKey, cfg.Provider.TimeoutSeconds)
		sourceName = polygon.Name
	case config.ProviderYahoo:
		source = yahoo.NewClient(cfg.Provider.YahooURL, cfg.Provider.TimeoutSeconds)
		sourceName = yahoo.Name
	default:
		logger.Fatal("unknown provider %q", cfg.Provider.Name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	t := domain.Ticker(strings.ToUpper(strings.TrimSpace(*ticker)))

	prev, err := source.PreviousClose(ctx, t)
	if err != nil {
		logger.Fatal("previous close: %v", err)
	}
	price, err := source.LiveQuote(ctx, t)
	if err != nil {
		logger.Fatal("live quote: %v", err)
	}

	q, err := application.Evaluate(t, decimal.NewNullDecimal(price), decimal.NewNullDecimal(prev))
	if err != nil {
		logger.Fatal("evaluate: %v", err)
	}
	q.Timestamp = time.Now().UTC()

	style := render.Style{
		ThresholdPct: cfg.ThresholdDecimal().Mul(decimal.NewFromInt(100)),
		Source:       sourceName,
	}
	fmt.Println(render.QuoteCard(q, style).PlainText())
}
