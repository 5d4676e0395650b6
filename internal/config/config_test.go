package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"QUOTES_BASE_URL", "REFRESH_INTERVAL", "SERVER_PORT", "SOURCE_PORT",
	"LOG_LEVEL", "LOG_FORMAT", "APCA_API_KEY_ID", "APCA_API_SECRET_KEY",
	"APCA_API_DATA_URL", "TICKERBOARD_CONFIG",
}

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tickerboard.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  port: 9000
  allowed_origins: ["*.example.com"]
quotes:
  base_url: "http://quotes.internal:8081"
  timeout: 3s
refresh:
  interval: 10s
  single_flight: true
ticker:
  tracks: ["a", "b"]
  speed_px_per_sec: 40
  min_scroll: 15s
  max_scroll: 90s
gainers:
  grid: "grid"
  count: 5
  chart:
    stroke: "#ff0000"
    tension: 0.5
logging:
  level: "debug"
  format: "text"
source:
  instruments:
    - {ticker: "BTC-USD", symbol: "BTC/USD", name: "Bitcoin", category: "CRYPTO"}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9000)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want default %q", cfg.Server.Host, "0.0.0.0")
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "*.example.com" {
		t.Errorf("Server.AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Quotes.BaseURL != "http://quotes.internal:8081" {
		t.Errorf("Quotes.BaseURL = %q", cfg.Quotes.BaseURL)
	}
	if cfg.Quotes.Timeout != 3*time.Second {
		t.Errorf("Quotes.Timeout = %v, want 3s", cfg.Quotes.Timeout)
	}
	if cfg.Refresh.Interval != 10*time.Second || !cfg.Refresh.SingleFlight {
		t.Errorf("Refresh = %+v", cfg.Refresh)
	}
	if cfg.Ticker.SpeedPxPerSec != 40 || cfg.Ticker.MinScroll != 15*time.Second || cfg.Ticker.MaxScroll != 90*time.Second {
		t.Errorf("Ticker = %+v", cfg.Ticker)
	}
	if got := strings.Join(cfg.TargetKeys(), ","); got != "a,b,grid" {
		t.Errorf("TargetKeys = %q, want %q", got, "a,b,grid")
	}
	if cfg.Gainers.Count != 5 {
		t.Errorf("Gainers.Count = %d, want 5", cfg.Gainers.Count)
	}
	if cfg.Gainers.Chart.Stroke != "#ff0000" || cfg.Gainers.Chart.Tension != 0.5 {
		t.Errorf("Gainers.Chart = %+v", cfg.Gainers.Chart)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Gainers.Chart.Width != 2 {
		t.Errorf("Gainers.Chart.Width = %v, want default 2", cfg.Gainers.Chart.Width)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if n := len(cfg.Source.Instruments); n != 1 {
		t.Fatalf("Source.Instruments has %d entries, want 1", n)
	}
	if in := cfg.Source.Instruments[0]; in.Symbol != "BTC/USD" || in.Category != "CRYPTO" {
		t.Errorf("Instrument = %+v", in)
	}
}

func TestLoadDefaultsOnly(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if cfg.Refresh.Interval != 90*time.Second {
		t.Errorf("Refresh.Interval = %v, want 90s", cfg.Refresh.Interval)
	}
	if got := strings.Join(cfg.TargetKeys(), ","); got != "ticker-track-first,ticker-track-second,top-gainers" {
		t.Errorf("TargetKeys = %q", got)
	}
	if cfg.Addr() != "0.0.0.0:8080" || cfg.SourceAddr() != "0.0.0.0:8081" {
		t.Errorf("Addr = %q, SourceAddr = %q", cfg.Addr(), cfg.SourceAddr())
	}
	if len(cfg.Source.Instruments) == 0 {
		t.Error("default catalogue is empty")
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load of a missing file should fail")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("QUOTES_BASE_URL", "http://env:1")
	t.Setenv("REFRESH_INTERVAL", "45s")
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("APCA_API_KEY_ID", "key")
	t.Setenv("APCA_API_SECRET_KEY", "secret")

	path := writeConfig(t, "quotes:\n  base_url: \"http://file:1\"\nserver:\n  port: 9000\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Quotes.BaseURL != "http://env:1" {
		t.Errorf("Quotes.BaseURL = %q, want env value", cfg.Quotes.BaseURL)
	}
	if cfg.Refresh.Interval != 45*time.Second {
		t.Errorf("Refresh.Interval = %v, want 45s", cfg.Refresh.Interval)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want 7000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Alpaca.APIKey != "key" || cfg.Alpaca.APISecret != "secret" {
		t.Errorf("Alpaca = %+v", cfg.Alpaca)
	}
}

func TestEnvOverrideInvalid(t *testing.T) {
	tests := []struct{ key, val string }{
		{"REFRESH_INTERVAL", "often"},
		{"SERVER_PORT", "http"},
		{"SOURCE_PORT", "x"},
	}
	for _, tt := range tests {
		clearEnv(t)
		t.Setenv(tt.key, tt.val)
		if _, err := Load(""); err == nil || !strings.Contains(err.Error(), tt.key) {
			t.Errorf("%s=%q: err = %v, want error naming the variable", tt.key, tt.val, err)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero interval", func(c *Config) { c.Refresh.Interval = 0 }, "refresh.interval"},
		{"negative interval", func(c *Config) { c.Refresh.Interval = -time.Second }, "refresh.interval"},
		{"min above max", func(c *Config) { c.Ticker.MinScroll = time.Hour }, "exceeds"},
		{"no tracks", func(c *Config) { c.Ticker.Tracks = nil }, "ticker.tracks"},
		{"zero speed", func(c *Config) { c.Ticker.SpeedPxPerSec = 0 }, "speed"},
		{"zero count", func(c *Config) { c.Gainers.Count = 0 }, "gainers.count"},
		{"duplicate key", func(c *Config) { c.Gainers.Grid = c.Ticker.Tracks[0] }, "twice"},
		{"no base url", func(c *Config) { c.Quotes.BaseURL = "" }, "base_url"},
	}

	if err := Defaults().Validate(); err != nil {
		t.Fatalf("Defaults().Validate() = %v", err)
	}
	for _, tt := range tests {
		cfg := Defaults()
		tt.mutate(cfg)
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: Validate() = %v, want error containing %q", tt.name, err, tt.want)
		}
	}
}

func TestPath(t *testing.T) {
	clearEnv(t)
	if got := Path("flag.yaml"); got != "flag.yaml" {
		t.Errorf("Path(flag) = %q", got)
	}
	t.Setenv("TICKERBOARD_CONFIG", "env.yaml")
	if got := Path(""); got != "env.yaml" {
		t.Errorf("Path(\"\") = %q, want env.yaml", got)
	}
	t.Setenv("TICKERBOARD_CONFIG", "")
	t.Chdir(t.TempDir())
	if got := Path(""); got != "" {
		t.Errorf("Path(\"\") without files = %q, want empty", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "TICKERBOARD_DOTENV_TEST"
	t.Cleanup(func() { os.Unsetenv(key) })

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte(key+"=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv(key); got != "from-file" {
		t.Errorf("%s = %q, want %q", key, got, "from-file")
	}

	// Existing variables win over the file.
	os.Setenv(key, "from-env")
	LoadDotEnv(envFile)
	if got := os.Getenv(key); got != "from-env" {
		t.Errorf("%s = %q, want %q", key, got, "from-env")
	}
}
