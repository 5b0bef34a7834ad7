package config

import (
	"fmt"
	"os"
	"time"

	"MarketPulse/internal/model"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "3m20s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds all application configuration.
type Config struct {
	Instruments []model.Instrument `yaml:"instruments"`
	Polling     struct {
		RegularInterval  Duration `yaml:"regular_interval"`
		ExtendedInterval Duration `yaml:"extended_interval"`
		ChunkSize        int      `yaml:"chunk_size"`
	} `yaml:"polling"`
	Market struct {
		Timezone string `yaml:"timezone"`
	} `yaml:"market"`
	DataSource struct {
		FMPAPIKey string `yaml:"fmp_api_key"`
	} `yaml:"data_source"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`
	Schedule struct {
		DigestCron string `yaml:"digest_cron"`
	} `yaml:"schedule"`
	Alerts struct {
		DefaultThresholds []float64 `yaml:"default_thresholds"`
	} `yaml:"alerts"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is fine: defaults apply.
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
	if v := os.Getenv("FMP_API_KEY"); v != "" {
		cfg.DataSource.FMPAPIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if len(cfg.Instruments) == 0 {
		cfg.Instruments = defaultInstruments()
	}
	if cfg.Polling.RegularInterval == 0 {
		cfg.Polling.RegularInterval = Duration(30 * time.Second)
	}
	if cfg.Polling.ExtendedInterval == 0 {
		cfg.Polling.ExtendedInterval = Duration(3*time.Minute + 20*time.Second)
	}
	if cfg.Polling.ChunkSize == 0 {
		cfg.Polling.ChunkSize = 10
	}
	if cfg.Market.Timezone == "" {
		cfg.Market.Timezone = "Asia/Seoul"
	}
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8080"
	}
	if cfg.Schedule.DigestCron == "" {
		cfg.Schedule.DigestCron = "0 0 7 * * *"
	}
	if len(cfg.Alerts.DefaultThresholds) == 0 {
		cfg.Alerts.DefaultThresholds = []float64{7, 14}
	}

	return cfg, nil
}

// Validate checks that the configuration is coherent.
func (c *Config) Validate() error {
	if len(c.Instruments) == 0 {
		return fmt.Errorf("at least one instrument is required")
	}
	seen := make(map[string]bool, len(c.Instruments))
	for _, inst := range c.Instruments {
		if inst.Symbol == "" {
			return fmt.Errorf("instrument with empty symbol")
		}
		if seen[inst.Symbol] {
			return fmt.Errorf("duplicate instrument %s", inst.Symbol)
		}
		seen[inst.Symbol] = true
		switch inst.Class {
		case model.ClassCore, model.ClassAlpha, model.ClassSafe, model.ClassIncome:
		default:
			return fmt.Errorf("instrument %s: unknown class %q", inst.Symbol, inst.Class)
		}
	}
	if c.Polling.RegularInterval <= 0 || c.Polling.ExtendedInterval <= 0 {
		return fmt.Errorf("polling intervals must be positive")
	}
	if c.Polling.ChunkSize <= 0 {
		return fmt.Errorf("polling.chunk_size must be positive")
	}
	return nil
}

// Location resolves the reference market timezone, falling back to a
// fixed KST offset when the tz database is unavailable.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Market.Timezone)
	if err != nil {
		return time.FixedZone("KST", 9*3600)
	}
	return loc
}

func defaultInstruments() []model.Instrument {
	return []model.Instrument{
		{Symbol: "AAPL", Name: "Apple", Class: model.ClassCore},
		{Symbol: "MSFT", Name: "Microsoft", Class: model.ClassCore},
		{Symbol: "VOO", Name: "Vanguard S&P 500", Class: model.ClassCore},
		{Symbol: "TLT", Name: "iShares 20+ Year Treasury", Class: model.ClassCore},
		{Symbol: "NVDA", Name: "NVIDIA", Class: model.ClassAlpha},
		{Symbol: "TSLA", Name: "Tesla", Class: model.ClassAlpha},
		{Symbol: "GOOGL", Name: "Alphabet", Class: model.ClassAlpha},
		{Symbol: "SCHD", Name: "Schwab US Dividend Equity", Class: model.ClassIncome},
		{Symbol: "IAU", Name: "iShares Gold Trust", Class: model.ClassSafe},
		{Symbol: "SGOV", Name: "iShares 0-3 Month Treasury", Class: model.ClassSafe},
	}
}
