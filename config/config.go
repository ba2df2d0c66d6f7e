package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/FrancoRivero2025/stock-alert-bot/internal/domain"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	ProviderYahoo   = "yahoo"
	ProviderPolygon = "polygon"
)

type Config struct {
	Tickers []string `yaml:"tickers"`
	Alert   struct {
		// Threshold is a fraction: 0.015 means 1.5%.
		Threshold float64 `yaml:"threshold"`
	} `yaml:"alert"`
	Market struct {
		OpenHour       int `yaml:"open_hour"`
		CloseHour      int `yaml:"close_hour"`
		UTCOffsetHours int `yaml:"utc_offset_hours"`
	} `yaml:"market"`
	Polling struct {
		Interval         time.Duration `yaml:"interval"`
		EvictionInterval time.Duration `yaml:"eviction_interval"`
		MaxConcurrency   int           `yaml:"max_concurrency"`
		DailyReset       bool          `yaml:"daily_reset"`
	} `yaml:"polling"`
	Provider struct {
		Name           string `yaml:"name"`
		YahooURL       string `yaml:"yahoo_url"`
		PolygonAPIKey  string `yaml:"polygon_api_key"`
		TimeoutSeconds uint   `yaml:"timeout_seconds"`
	} `yaml:"provider"`
	Discord struct {
		Enabled   bool   `yaml:"enabled"`
		Token     string `yaml:"token"`
		ChannelID string `yaml:"channel_id"`
	} `yaml:"discord"`
	Telegram struct {
		Enabled bool   `yaml:"enabled"`
		Token   string `yaml:"token"`
		ChatID  int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Channel  string `yaml:"channel"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled bool     `yaml:"enabled"`
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
	Server struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

var (
	instance *Config
	mu       sync.RWMutex
)

func Default() Config {
	var c Config
	c.Tickers = []string{"AAPL", "NVDA", "AMD", "NET", "MA", "V", "MELI", "TSM", "JNJ", "AEM", "SCCO", "KGC"}
	c.Alert.Threshold = 0.015
	c.Market.OpenHour = 13
	c.Market.CloseHour = 21
	c.Market.UTCOffsetHours = 0
	c.Polling.Interval = time.Minute
	c.Polling.EvictionInterval = 10 * time.Minute
	c.Polling.DailyReset = true
	c.Provider.Name = ProviderYahoo
	c.Provider.YahooURL = "https://query1.finance.yahoo.com"
	c.Provider.TimeoutSeconds = 15
	c.Discord.Enabled = true
	c.Redis.Addr = "localhost:6379"
	c.Redis.Channel = "stock-alerts"
	c.Kafka.Topic = "stock-alerts"
	c.Server.Enabled = true
	c.Server.Port = 8080
	c.Log.Level = "info"
	return c
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// Initialize loads .env, the yaml file and env overrides, validates the
// result and installs it as the process configuration.
func Initialize(path string) (Config, error) {
	_ = godotenv.Load(".env")

	c, err := Load(path)
	if err != nil {
		return c, err
	}
	if err := c.ApplyEnv(os.Getenv); err != nil {
		return c, err
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	SetInstance(c)
	return c, nil
}

func GetInstance() Config {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		return Default()
	}
	return *instance
}

func SetInstance(c Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = &c
}

// ApplyEnv overrides secrets and endpoints from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	env := func(key string) (string, bool) {
		v := strings.TrimSpace(getenv(key))
		return v, v != ""
	}

	if v, ok := env("DISCORD_TOKEN"); ok {
		c.Discord.Token = v
	}
	if v, ok := env("DISCORD_CHANNEL_ID"); ok {
		c.Discord.ChannelID = v
	}
	if v, ok := env("TELEGRAM_TOKEN"); ok {
		c.Telegram.Token = v
		c.Telegram.Enabled = true
	}
	if v, ok := env("TELEGRAM_CHAT_ID"); ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	if v, ok := env("POLYGON_API_KEY"); ok {
		c.Provider.PolygonAPIKey = v
	}
	if v, ok := env("REDIS_ADDR"); ok {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v, ok := env("REDIS_PASSWORD"); ok {
		c.Redis.Password = v
	}
	if v, ok := env("KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = len(c.Kafka.Brokers) > 0
	}
	if v, ok := env("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c Config) Validate() error {
	var errs []error

	if len(c.Tickers) == 0 {
		errs = append(errs, errors.New("tickers: at least one ticker is required"))
	}
	seen := make(map[string]bool, len(c.Tickers))
	for _, t := range c.Tickers {
		key := strings.ToUpper(strings.TrimSpace(t))
		if key == "" {
			errs = append(errs, errors.New("tickers: empty ticker"))
			continue
		}
		if seen[key] {
			errs = append(errs, fmt.Errorf("tickers: duplicate ticker %s", key))
		}
		seen[key] = true
	}

	if c.Alert.Threshold <= 0 {
		errs = append(errs, errors.New("alert.threshold must be positive"))
	}
	if c.Market.OpenHour < 0 || c.Market.OpenHour > 23 {
		errs = append(errs, fmt.Errorf("market.open_hour %d out of range", c.Market.OpenHour))
	}
	if c.Market.CloseHour < 0 || c.Market.CloseHour > 24 {
		errs = append(errs, fmt.Errorf("market.close_hour %d out of range", c.Market.CloseHour))
	}
	if c.Market.OpenHour == c.Market.CloseHour {
		errs = append(errs, errors.New("market window is empty"))
	}
	if c.Market.UTCOffsetHours < -12 || c.Market.UTCOffsetHours > 14 {
		errs = append(errs, fmt.Errorf("market.utc_offset_hours %d out of range", c.Market.UTCOffsetHours))
	}
	if c.Polling.Interval <= 0 {
		errs = append(errs, errors.New("polling.interval must be positive"))
	}
	if c.Polling.EvictionInterval <= 0 {
		errs = append(errs, errors.New("polling.eviction_interval must be positive"))
	}
	if c.Polling.MaxConcurrency < 0 {
		errs = append(errs, errors.New("polling.max_concurrency must not be negative"))
	}

	switch c.Provider.Name {
	case ProviderYahoo:
		if c.Provider.YahooURL == "" {
			errs = append(errs, errors.New("provider.yahoo_url is required"))
		}
	case ProviderPolygon:
		if c.Provider.PolygonAPIKey == "" {
			errs = append(errs, errors.New("POLYGON_API_KEY is required for the polygon provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider.Name))
	}

	if !c.Discord.Enabled && !c.Telegram.Enabled {
		errs = append(errs, errors.New("enable at least one of discord or telegram"))
	}
	if c.Discord.Enabled && (c.Discord.Token == "" || c.Discord.ChannelID == "") {
		errs = append(errs, errors.New("DISCORD_TOKEN and DISCORD_CHANNEL_ID are required"))
	}
	if c.Telegram.Enabled && (c.Telegram.Token == "" || c.Telegram.ChatID == 0) {
		errs = append(errs, errors.New("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID are required"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers is required when kafka is enabled"))
	}
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	return errors.Join(errs...)
}

func (c Config) ServerPortString() string { return fmt.Sprintf("%d", c.Server.Port) }

// TickersAsDomain normalises the configured symbols, keeping their order.
func (c Config) TickersAsDomain() []domain.Ticker {
	out := make([]domain.Ticker, 0, len(c.Tickers))
	for _, t := range c.Tickers {
		out = append(out, domain.Ticker(strings.ToUpper(strings.TrimSpace(t))))
	}
	return out
}

func (c Config) ThresholdDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.Alert.Threshold)
}
