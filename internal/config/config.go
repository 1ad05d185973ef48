package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"MarketPulse/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		BaseURL       string `yaml:"base_url" validate:"omitempty,url"`
		APIKey        string `yaml:"api_key"`
		PolygonAPIKey string `yaml:"polygon_api_key"`
	} `yaml:"data_source"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron" validate:"required"`
	} `yaml:"schedule"`
	Indicators struct {
		HistoryDays int `yaml:"history_days" validate:"gt=0"`
		KDJPeriod   int `yaml:"kdj_period" validate:"gt=0"`
		RSIPeriod   int `yaml:"rsi_period" validate:"gte=2"`
		MAShort     int `yaml:"ma_short" validate:"gt=0"`
		MAMid       int `yaml:"ma_mid" validate:"gt=0"`
		MALong      int `yaml:"ma_long" validate:"gt=0"`
	} `yaml:"indicators"`
	Signals struct {
		ExtremaWindow     int `yaml:"extrema_window" validate:"gt=0"`
		MinDivergenceBars int `yaml:"min_divergence_bars" validate:"gt=0"`
		MaxExtremumAge    int `yaml:"max_extremum_age" validate:"gt=0"`
	} `yaml:"signals"`
	Instruments   []model.Instrument `yaml:"instruments" validate:"required,min=1,unique=Key,dive"`
	OutputPath    string             `yaml:"output_path" validate:"required"`
	Workers       int                `yaml:"workers" validate:"gte=1,lte=64"`
	MetricsListen string             `yaml:"metrics_listen" validate:"omitempty,hostname_port"`
	LogLevel      string             `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Proxy         string             `yaml:"proxy"`
}

// DefaultInstruments is the tracked list used when the config names none.
func DefaultInstruments() []model.Instrument {
	return []model.Instrument{
		{Key: "twii", Symbol: "^TWII", Name: "台灣加權指數"},
		{Key: "tsmc", Symbol: "2330.TW", Name: "台積電"},
		{Key: "etf0050", Symbol: "0050.TW", Name: "元大台灣50"},
		{Key: "etf00631l", Symbol: "00631L.TW", Name: "元大台灣50正2"},
		{Key: "etf00675l", Symbol: "00675L.TW", Name: "富邦臺灣加權正2"},
		{Key: "nasdaq", Symbol: "^IXIC", Name: "NASDAQ"},
		{Key: "tqqq", Symbol: "TQQQ", Name: "TQQQ"},
		{Key: "qld", Symbol: "QLD", Name: "QLD"},
		{Key: "nvda", Symbol: "NVDA", Name: "NVIDIA"},
		{Key: "msft", Symbol: "MSFT", Name: "Microsoft"},
		{Key: "goog", Symbol: "GOOG", Name: "Google"},
		{Key: "tsla", Symbol: "TSLA", Name: "Tesla"},
		{Key: "smh", Symbol: "SMH", Name: "SMH"},
		{Key: "aapl", Symbol: "AAPL", Name: "Apple"},
		{Key: "amzn", Symbol: "AMZN", Name: "Amazon"},
		{Key: "meta", Symbol: "META", Name: "Meta"},
		{Key: "btc", Symbol: "BTC-USD", Name: "Bitcoin"},
		{Key: "gld", Symbol: "GLD", Name: "SPDR Gold"},
	}
}

// LoadEnvFile loads variables from a .env file into the process environment.
// A missing file is not an error; variables already set are kept.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("VSTRADER_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("VSTRADER_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.DataSource.PolygonAPIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("OUTPUT_PATH"); v != "" {
		cfg.OutputPath = v
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		cfg.Schedule.RefreshCron = v
	}
	if v := os.Getenv("METRICS_LISTEN"); v != "" {
		cfg.MetricsListen = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse WORKERS: %w", err)
		}
		cfg.Workers = n
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Instruments) == 0 {
		c.Instruments = DefaultInstruments()
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 30 14 * * 1-5"
	}
	if c.OutputPath == "" {
		c.OutputPath = "data.json"
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	ind := &c.Indicators
	if ind.HistoryDays == 0 {
		ind.HistoryDays = 365
	}
	if ind.KDJPeriod == 0 {
		ind.KDJPeriod = 9
	}
	if ind.RSIPeriod == 0 {
		ind.RSIPeriod = 14
	}
	if ind.MAShort == 0 {
		ind.MAShort = 20
	}
	if ind.MAMid == 0 {
		ind.MAMid = 120
	}
	if ind.MALong == 0 {
		ind.MALong = 240
	}

	sig := &c.Signals
	if sig.ExtremaWindow == 0 {
		sig.ExtremaWindow = 3
	}
	if sig.MinDivergenceBars == 0 {
		sig.MinDivergenceBars = 20
	}
	if sig.MaxExtremumAge == 0 {
		sig.MaxExtremumAge = 5
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	for _, inst := range c.Instruments {
		if inst.Source == "rest" && c.DataSource.BaseURL == "" {
			return fmt.Errorf("instrument %s uses the rest source but data_source.base_url is empty", inst.Key)
		}
		if inst.Source == "polygon" && c.DataSource.PolygonAPIKey == "" {
			return fmt.Errorf("instrument %s uses the polygon source but data_source.polygon_api_key is empty", inst.Key)
		}
	}
	return nil
}

// TelegramEnabled reports whether alerts and polling should run.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
