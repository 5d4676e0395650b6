package quotesource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"tickerboard/internal/dashboard"
	"tickerboard/internal/domain"
	"tickerboard/internal/util"
)

// Options tunes upstream access.
type Options struct {
	BarMinutes  int           // intraday bar width, default 5
	RatePerMin  int           // upstream calls per minute, default 180
	Retries     int           // attempts per upstream call, default 3
	RetryDelay  time.Duration // first backoff, default 200ms
	Concurrency int           // parallel crypto lookups, default 4
	Location    *time.Location
}

// Service builds quote snapshots and intraday series from a Provider.
type Service struct {
	provider  Provider
	catalogue []Instrument
	byTicker  map[string]Instrument
	opts      Options
	limiter   *util.RateLimiter
	now       func() time.Time
	log       *slog.Logger
}

// NewService creates a service over the given catalogue. Catalogue order is
// display order.
func NewService(p Provider, catalogue []Instrument, opts Options, log *slog.Logger) *Service {
	if opts.BarMinutes <= 0 {
		opts.BarMinutes = 5
	}
	if opts.RatePerMin <= 0 {
		opts.RatePerMin = 180
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 200 * time.Millisecond
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Location == nil {
		opts.Location = util.NewYork()
	}

	s := &Service{
		provider:  p,
		catalogue: catalogue,
		byTicker:  make(map[string]Instrument, len(catalogue)),
		opts:      opts,
		limiter:   util.NewRateLimiter(opts.RatePerMin, opts.Concurrency),
		now:       time.Now,
		log:       log.With("component", "quotesource"),
	}
	for _, in := range catalogue {
		s.byTicker[in.Ticker] = in
	}
	return s
}

// call runs fn under the rate limiter with retries. ErrNoData is final.
func (s *Service) call(ctx context.Context, fn func(context.Context) error) error {
	return util.Retry(ctx, s.opts.Retries, s.opts.RetryDelay, func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return util.Permanent(err)
		}
		err := fn(ctx)
		if errors.Is(err, ErrNoData) {
			return util.Permanent(err)
		}
		return err
	})
}

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

func (s *Service) quote(in Instrument, m Move) domain.Quote {
	name := in.Name
	if name == "" {
		name = in.Ticker
	}
	currency := in.Currency
	if currency == "" {
		currency = dashboard.InferCurrency(in.Ticker)
	}

	q := domain.Quote{
		Ticker:   in.Ticker,
		Name:     name,
		Category: in.Category,
		Price:    domain.Float(round(m.Price, 4)),
		Currency: domain.String(currency),
	}
	if m.PrevClose > 0 {
		change := m.Price - m.PrevClose
		q.Change = domain.Float(round(change, 4))
		q.ChangePct = domain.Float(round(change/m.PrevClose*100, 2))
	}
	return q
}

// Quotes returns the catalogue's latest quotes in catalogue order.
// Instruments the provider cannot price are left out; an error is returned
// only when every upstream lookup failed.
func (s *Service) Quotes(ctx context.Context) (domain.QuotesResponse, error) {
	var stocks []string
	var cryptos []Instrument
	for _, in := range s.catalogue {
		if in.crypto() {
			cryptos = append(cryptos, in)
		} else {
			stocks = append(stocks, in.upstream())
		}
	}

	var (
		mu       sync.Mutex
		moves    = make(map[string]Move, len(s.catalogue)) // by ticker
		failures int
		lastErr  error
	)
	fail := func(err error) {
		mu.Lock()
		failures++
		lastErr = err
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	if len(stocks) > 0 {
		g.Go(func() error {
			var got map[string]Move
			err := s.call(gctx, func(ctx context.Context) error {
				var err error
				got, err = s.provider.StockMoves(ctx, stocks)
				return err
			})
			if err != nil {
				s.log.Warn("stock snapshots failed", "symbols", len(stocks), "error", err)
				fail(err)
				return nil
			}
			mu.Lock()
			for _, in := range s.catalogue {
				if m, ok := got[in.upstream()]; ok && !in.crypto() {
					moves[in.Ticker] = m
				}
			}
			mu.Unlock()
			return nil
		})
	}

	for _, in := range cryptos {
		g.Go(func() error {
			var m Move
			err := s.call(gctx, func(ctx context.Context) error {
				var err error
				m, err = s.provider.CryptoMove(ctx, in.upstream())
				return err
			})
			if err != nil {
				s.log.Warn("crypto quote failed", "ticker", in.Ticker, "error", err)
				fail(err)
				return nil
			}
			mu.Lock()
			moves[in.Ticker] = m
			mu.Unlock()
			return nil
		})
	}
	// Failures are counted above; goroutines never return an error.
	_ = g.Wait()

	lookups := len(cryptos)
	if len(stocks) > 0 {
		lookups++
	}
	if lookups > 0 && failures == lookups {
		return domain.QuotesResponse{}, fmt.Errorf("all upstream lookups failed: %w", lastErr)
	}

	resp := domain.QuotesResponse{
		AsOf:  s.now().UTC().Format(time.RFC3339),
		Items: make(domain.QuoteSnapshot, 0, len(moves)),
	}
	for _, in := range s.catalogue {
		if m, ok := moves[in.Ticker]; ok {
			resp.Items = append(resp.Items, s.quote(in, m))
		}
	}
	return resp, nil
}

// lookup resolves a ticker. Tickers outside the catalogue are treated as US
// equity symbols.
func (s *Service) lookup(ticker string) Instrument {
	if in, ok := s.byTicker[ticker]; ok {
		return in
	}
	return Instrument{Ticker: ticker, Category: domain.CategoryStock}
}

// Intraday returns the ticker's bars over its current session. It returns
// ErrNoData when the session has no bars.
func (s *Service) Intraday(ctx context.Context, ticker string) (domain.IntradaySeries, error) {
	in := s.lookup(ticker)
	now := s.now()

	var start, end time.Time
	if in.crypto() {
		start, end = util.RollingDay(now)
	} else {
		start, end = util.EquitySession(now, s.opts.Location)
	}

	var bars []Bar
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		if in.crypto() {
			bars, err = s.provider.CryptoBars(ctx, in.upstream(), s.opts.BarMinutes, start, end)
		} else {
			bars, err = s.provider.StockBars(ctx, in.upstream(), s.opts.BarMinutes, start, end)
		}
		return err
	})
	if err != nil {
		return domain.IntradaySeries{}, err
	}
	if len(bars) == 0 {
		return domain.IntradaySeries{}, ErrNoData
	}

	series := domain.IntradaySeries{
		OK:     true,
		Labels: make([]string, len(bars)),
		Prices: make([]float64, len(bars)),
	}
	for i, b := range bars {
		series.Labels[i] = b.Time.In(s.opts.Location).Format("15:04")
		series.Prices[i] = round(b.Close, 4)
	}
	return series, nil
}
