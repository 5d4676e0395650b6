package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tickerboard/internal/chart"
)

// DefaultPath is where Path looks when neither a flag nor
// $TICKERBOARD_CONFIG names a file.
const DefaultPath = "config/tickerboard.yaml"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for tickerboard and its quote source.
type Config struct {
	Server  Server  `yaml:"server"`
	Quotes  Quotes  `yaml:"quotes"`
	Refresh Refresh `yaml:"refresh"`
	Ticker  Ticker  `yaml:"ticker"`
	Gainers Gainers `yaml:"gainers"`
	Logging Logging `yaml:"logging"`
	Alpaca  Alpaca  `yaml:"alpaca"`
	Source  Source  `yaml:"source"`
}

// Server holds the widget host listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// AllowedOrigins are extra websocket Origin patterns, e.g. "*.example.com".
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Quotes locates the JSON quotes backend.
type Quotes struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Refresh controls the refresh cadence.
type Refresh struct {
	Interval     time.Duration `yaml:"interval"`
	SingleFlight bool          `yaml:"single_flight"`
}

// Ticker configures the scrolling list.
type Ticker struct {
	Tracks        []string      `yaml:"tracks"`
	SpeedPxPerSec float64       `yaml:"speed_px_per_sec"`
	MinScroll     time.Duration `yaml:"min_scroll"`
	MaxScroll     time.Duration `yaml:"max_scroll"`
}

// Gainers configures the top-gainers panel.
type Gainers struct {
	Grid  string      `yaml:"grid"`
	Count int         `yaml:"count"`
	Chart chart.Style `yaml:"chart"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Alpaca holds credentials and endpoints for Alpaca market data.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
	Feed      string `yaml:"feed"`
}

// Source configures the quotes backend served by cmd/quotes-server.
type Source struct {
	Host        string       `yaml:"host"`
	Port        int          `yaml:"port"`
	BarMinutes  int          `yaml:"bar_minutes"`
	RatePerMin  int          `yaml:"rate_per_min"`
	Instruments []Instrument `yaml:"instruments"`
}

// Instrument is one catalogue entry of the quotes backend.
type Instrument struct {
	Ticker   string `yaml:"ticker"`
	Symbol   string `yaml:"symbol"` // upstream symbol; empty means Ticker
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Currency string `yaml:"currency"`
}

// ---------------------------------------------------------------------------
// Defaults and validation
// ---------------------------------------------------------------------------

// Defaults returns a configuration with every knob set.
func Defaults() *Config {
	return &Config{
		Server: Server{Host: "0.0.0.0", Port: 8080},
		Quotes: Quotes{BaseURL: "http://localhost:8081", Timeout: 10 * time.Second},
		Refresh: Refresh{
			Interval: 90 * time.Second,
		},
		Ticker: Ticker{
			Tracks:        []string{"ticker-track-first", "ticker-track-second"},
			SpeedPxPerSec: 60,
			MinScroll:     20 * time.Second,
			MaxScroll:     180 * time.Second,
		},
		Gainers: Gainers{
			Grid:  "top-gainers",
			Count: 3,
			Chart: chart.DefaultStyle,
		},
		Logging: Logging{Level: "info", Format: "json"},
		Alpaca: Alpaca{
			DataURL: "https://data.alpaca.markets",
			Feed:    "iex",
		},
		Source: Source{
			Host:        "0.0.0.0",
			Port:        8081,
			BarMinutes:  5,
			RatePerMin:  180,
			Instruments: DefaultInstruments(),
		},
	}
}

// DefaultInstruments is the stock catalogue, grouped by category in display
// order. Indices and commodities are tracked through their ETFs.
func DefaultInstruments() []Instrument {
	return []Instrument{
		{Ticker: "ABBV", Name: "AbbVie", Category: "STOCK"},
		{Ticker: "DCGO", Name: "DocGo", Category: "STOCK"},
		{Ticker: "IMDX", Name: "Insight Molecular", Category: "STOCK"},
		{Ticker: "SMC", Name: "Summit Midstream", Category: "STOCK"},
		{Ticker: "QQQ", Name: "Nasdaq 100", Category: "INDEX"},
		{Ticker: "SPY", Name: "S&P 500", Category: "INDEX"},
		{Ticker: "BTC-USD", Symbol: "BTC/USD", Name: "Bitcoin", Category: "CRYPTO"},
		{Ticker: "ETH-USD", Symbol: "ETH/USD", Name: "Ethereum", Category: "CRYPTO"},
		{Ticker: "SOL-USD", Symbol: "SOL/USD", Name: "Solana", Category: "CRYPTO"},
		{Ticker: "GLD", Name: "Gold", Category: "COMMODITY"},
		{Ticker: "CORN", Name: "Corn", Category: "COMMODITY"},
	}
}

// TargetKeys lists every render target the widget writes.
func (c *Config) TargetKeys() []string {
	keys := make([]string, 0, len(c.Ticker.Tracks)+1)
	keys = append(keys, c.Ticker.Tracks...)
	return append(keys, c.Gainers.Grid)
}

// Addr is the widget host listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SourceAddr is the quotes backend listen address.
func (c *Config) SourceAddr() string {
	return fmt.Sprintf("%s:%d", c.Source.Host, c.Source.Port)
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Quotes.BaseURL == "":
		return errors.New("quotes.base_url is empty")
	case c.Refresh.Interval <= 0:
		return fmt.Errorf("refresh.interval must be positive, got %s", c.Refresh.Interval)
	case len(c.Ticker.Tracks) == 0:
		return errors.New("ticker.tracks is empty")
	case c.Ticker.SpeedPxPerSec <= 0:
		return fmt.Errorf("ticker.speed_px_per_sec must be positive, got %g", c.Ticker.SpeedPxPerSec)
	case c.Ticker.MinScroll <= 0:
		return fmt.Errorf("ticker.min_scroll must be positive, got %s", c.Ticker.MinScroll)
	case c.Ticker.MinScroll > c.Ticker.MaxScroll:
		return fmt.Errorf("ticker.min_scroll %s exceeds max_scroll %s", c.Ticker.MinScroll, c.Ticker.MaxScroll)
	case c.Gainers.Grid == "":
		return errors.New("gainers.grid is empty")
	case c.Gainers.Count <= 0:
		return fmt.Errorf("gainers.count must be positive, got %d", c.Gainers.Count)
	}

	seen := make(map[string]bool)
	for _, k := range c.TargetKeys() {
		if seen[k] {
			return fmt.Errorf("render target %q configured twice", k)
		}
		seen[k] = true
	}
	return nil
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Path picks the configuration file: flagValue, then $TICKERBOARD_CONFIG,
// then DefaultPath if it exists. An empty result means defaults only.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv("TICKERBOARD_CONFIG"); v != "" {
		return v
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}
	return ""
}

// LoadDotEnv loads KEY=VALUE files into the environment without overriding
// variables already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load starts from Defaults, overlays the YAML file at path (if path is
// non-empty), then applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("QUOTES_BASE_URL"); v != "" {
		cfg.Quotes.BaseURL = v
	}

	if v := os.Getenv("REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("REFRESH_INTERVAL: %w", err)
		}
		cfg.Refresh.Interval = d
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	if v := os.Getenv("SOURCE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SOURCE_PORT: %w", err)
		}
		cfg.Source.Port = port
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Standard Alpaca env vars, the names the SDK itself reads.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("APCA_API_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}
	return nil
}
