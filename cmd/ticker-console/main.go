package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tickerboard/internal/config"
	"tickerboard/internal/quotes"
)

func main() {
	cfgFlag := flag.String("config", "", "config file (default $TICKERBOARD_CONFIG or config/tickerboard.yaml)")
	interval := flag.Duration("interval", 0, "refresh interval (default from config)")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(config.Path(*cfgFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	if *interval <= 0 {
		*interval = cfg.Refresh.Interval
	}

	client := quotes.NewClient(cfg.Quotes.BaseURL, cfg.Quotes.Timeout)

	p := tea.NewProgram(
		initialModel(client, *interval, cfg.Gainers.Count, time.Now),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
