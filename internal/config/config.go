package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/vitos/stock_grid/internal/usecase"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for gridwatch.
type Config struct {
	Server  Server            `yaml:"server"`
	Logging Logging           `yaml:"logging"`
	Storage Storage           `yaml:"storage"`
	Quote   Quote             `yaml:"quote"`
	Fees    Fees              `yaml:"fees"`
	Notify  Notify            `yaml:"notify"`
	Watch   Watch             `yaml:"watch"`
	Users   map[string]string `yaml:"users"` // user id -> member tier
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Storage.SQLitePath empty keeps plans in memory for the life of the process.
type Storage struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type Quote struct {
	BaseURL       string `yaml:"base_url"`
	TimeoutMs     int    `yaml:"timeout_ms"`
	Retries       int    `yaml:"retries"`
	QuoteTTLMs    int    `yaml:"quote_ttl_ms"`
	HistoryTTLMs  int    `yaml:"history_ttl_ms"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	NewsBaseURL   string `yaml:"news_base_url"`
	NewsTTLMs     int    `yaml:"news_ttl_ms"`
}

type Fees struct {
	TaxRegime string `yaml:"tax_regime"` // standard | day_trade
}

type Notify struct {
	Channel          string `yaml:"channel"` // log | line | telegram
	LineToken        string `yaml:"line_token"`
	LineBaseURL      string `yaml:"line_base_url"`
	TelegramToken    string `yaml:"telegram_token"`
	TelegramEndpoint string `yaml:"telegram_endpoint"`
	AlertRecipient   string `yaml:"alert_recipient"`
	AutoNotify       bool   `yaml:"auto_notify"`
}

type Watch struct {
	RefreshMs   int      `yaml:"refresh_ms"`
	MaxParallel int      `yaml:"max_parallel"`
	ScanList    []string `yaml:"scan_list"`
}

func (q Quote) Timeout() time.Duration { return time.Duration(q.TimeoutMs) * time.Millisecond }
func (q Quote) QuoteTTL() time.Duration { return time.Duration(q.QuoteTTLMs) * time.Millisecond }
func (q Quote) HistoryTTL() time.Duration { return time.Duration(q.HistoryTTLMs) * time.Millisecond }
func (q Quote) NewsTTL() time.Duration { return time.Duration(q.NewsTTLMs) * time.Millisecond }
func (w Watch) Refresh() time.Duration { return time.Duration(w.RefreshMs) * time.Millisecond }

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:  Server{Port: 8080},
		Logging: Logging{Level: "info", Format: "json"},
		Quote: Quote{
			TimeoutMs:    10000,
			Retries:      2,
			QuoteTTLMs:   10000,
			HistoryTTLMs: 60000,
			NewsTTLMs:    300000,
		},
		Fees:   Fees{TaxRegime: "standard"},
		Notify: Notify{Channel: "log"},
		Watch: Watch{
			RefreshMs:   10000,
			MaxParallel: 4,
			ScanList:    slices.Clone(usecase.DefaultWatchList),
		},
		Users: map[string]string{},
	}
}

// LoadDotEnv loads .env files into the process environment. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the YAML file at path over the defaults, then applies environment
// overrides. An empty path yields defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("GRIDWATCH_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GRIDWATCH_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("GRIDWATCH_DB"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("GRIDWATCH_TAX_REGIME"); v != "" {
		cfg.Fees.TaxRegime = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Quote.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Quote.RedisPassword = v
	}

	// A token in the environment selects its channel unless one is set explicitly.
	if v := os.Getenv("LINE_CHANNEL_TOKEN"); v != "" {
		cfg.Notify.LineToken = v
		if cfg.Notify.Channel == "log" {
			cfg.Notify.Channel = "line"
		}
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notify.TelegramToken = v
		if cfg.Notify.Channel == "log" {
			cfg.Notify.Channel = "telegram"
		}
	}

	// Recipient ids only make sense for the channel that will deliver them.
	recipientEnv := map[string]string{"line": "LINE_USER_ID", "telegram": "TELEGRAM_CHAT_ID"}
	if name, ok := recipientEnv[cfg.Notify.Channel]; ok {
		if v := os.Getenv(name); v != "" {
			cfg.Notify.AlertRecipient = v
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Fees.TaxRegime {
	case "", "standard", "day_trade":
	default:
		return fmt.Errorf("fees.tax_regime %q: want standard or day_trade", c.Fees.TaxRegime)
	}
	switch c.Notify.Channel {
	case "log":
	case "line":
		if c.Notify.LineToken == "" {
			return errors.New("notify.channel line needs line_token or LINE_CHANNEL_TOKEN")
		}
	case "telegram":
		if c.Notify.TelegramToken == "" {
			return errors.New("notify.channel telegram needs telegram_token or TELEGRAM_BOT_TOKEN")
		}
	default:
		return fmt.Errorf("notify.channel %q: want log, line or telegram", c.Notify.Channel)
	}
	if c.Notify.AutoNotify && c.Notify.AlertRecipient == "" {
		return errors.New("notify.auto_notify needs alert_recipient")
	}
	if c.Watch.RefreshMs <= 0 {
		return fmt.Errorf("watch.refresh_ms must be positive, got %d", c.Watch.RefreshMs)
	}
	return nil
}
