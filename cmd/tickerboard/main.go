package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tickerboard/internal/config"
	"tickerboard/internal/httpapi"
	"tickerboard/internal/metrics"
	"tickerboard/internal/page"
	"tickerboard/internal/quotes"
	"tickerboard/internal/util"
	"tickerboard/internal/widget"
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

	// Setup logging.
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	m := metrics.New()
	client := quotes.NewClient(cfg.Quotes.BaseURL, cfg.Quotes.Timeout)
	pg := page.New(cfg.TargetKeys())

	tickerView := widget.NewTickerView(widget.TickerConfig{
		Tracks:        cfg.Ticker.Tracks,
		SpeedPxPerSec: cfg.Ticker.SpeedPxPerSec,
		MinScroll:     cfg.Ticker.MinScroll,
		MaxScroll:     cfg.Ticker.MaxScroll,
	}, pg, logger)
	gainersView := widget.NewGainersView(widget.GainersConfig{
		Grid:  cfg.Gainers.Grid,
		Style: cfg.Gainers.Chart,
	}, pg, pg, client, logger)
	scheduler := widget.NewScheduler(widget.SchedulerConfig{
		Interval:     cfg.Refresh.Interval,
		GainerCount:  cfg.Gainers.Count,
		SingleFlight: cfg.Refresh.SingleFlight,
	}, client, tickerView, gainersView, widget.SystemClock{}, m, logger)

	hub := page.NewHub(pg, scheduler, cfg.Server.AllowedOrigins, m, logger)
	api := httpapi.NewServer(pg, hub, scheduler, m, httpapi.Options{
		Tracks: cfg.Ticker.Tracks,
		Grid:   cfg.Gainers.Grid,
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return scheduler.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("tickerboard listening", "addr", httpServer.Addr, "quotes", client.BaseURL())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down tickerboard")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("tickerboard stopped", "error", err)
	}
}
