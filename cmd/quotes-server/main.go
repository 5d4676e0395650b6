package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tickerboard/internal/config"
	"tickerboard/internal/domain"
	"tickerboard/internal/quotesource"
	"tickerboard/internal/util"
)

func main() {
	cfgFlag := flag.String("config", "", "config file (default $TICKERBOARD_CONFIG or config/tickerboard.yaml)")
	flag.Parse()

	// Load config.
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatalf("loading .env: %v", err)
	}
	cfg, err := config.Load(config.Path(*cfgFlag))
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	if cfg.Alpaca.APIKey == "" {
		logger.Warn("APCA_API_KEY_ID not set; upstream calls will be rejected")
	}

	catalogue := make([]quotesource.Instrument, 0, len(cfg.Source.Instruments))
	for _, in := range cfg.Source.Instruments {
		catalogue = append(catalogue, quotesource.Instrument{
			Ticker:   in.Ticker,
			Symbol:   in.Symbol,
			Name:     in.Name,
			Category: domain.Category(in.Category),
			Currency: in.Currency,
		})
	}

	provider := quotesource.NewAlpacaProvider(quotesource.AlpacaOptions{
		APIKey:    cfg.Alpaca.APIKey,
		APISecret: cfg.Alpaca.APISecret,
		BaseURL:   cfg.Alpaca.DataURL,
		Feed:      cfg.Alpaca.Feed,
	})
	svc := quotesource.NewService(provider, catalogue, quotesource.Options{
		BarMinutes: cfg.Source.BarMinutes,
		RatePerMin: cfg.Source.RatePerMin,
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.SourceAddr(),
		Handler:           svc.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("quotes server listening", "addr", httpServer.Addr, "instruments", len(catalogue))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down quotes server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
