package quotesource

import (
	"context"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// AlpacaOptions configures the Alpaca market-data provider.
type AlpacaOptions struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Feed      string
}

// AlpacaProvider reads snapshots and bars from Alpaca market data.
type AlpacaProvider struct {
	client *marketdata.Client
	feed   marketdata.Feed
}

// NewAlpacaProvider creates a provider. Empty credentials fall back to the
// APCA_* environment variables read by the SDK.
func NewAlpacaProvider(opts AlpacaOptions) *AlpacaProvider {
	co := marketdata.ClientOpts{
		APIKey:    opts.APIKey,
		APISecret: opts.APISecret,
	}
	if opts.BaseURL != "" {
		co.BaseURL = opts.BaseURL
	}
	return &AlpacaProvider{
		client: marketdata.NewClient(co),
		feed:   marketdata.Feed(opts.Feed),
	}
}

// StockMoves returns the latest trade (or daily close) against the previous
// daily close. Symbols without a snapshot are absent from the result.
func (a *AlpacaProvider) StockMoves(ctx context.Context, symbols []string) (map[string]Move, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snaps, err := a.client.GetSnapshots(symbols, marketdata.GetSnapshotRequest{Feed: a.feed})
	if err != nil {
		return nil, err
	}

	out := make(map[string]Move, len(snaps))
	for sym, s := range snaps {
		if s == nil {
			continue
		}
		var m Move
		switch {
		case s.LatestTrade != nil:
			m.Price = s.LatestTrade.Price
		case s.DailyBar != nil:
			m.Price = s.DailyBar.Close
		default:
			continue
		}
		if s.PrevDailyBar != nil {
			m.PrevClose = s.PrevDailyBar.Close
		}
		out[sym] = m
	}
	return out, nil
}

// CryptoMove compares the current daily bar with the previous one.
func (a *AlpacaProvider) CryptoMove(ctx context.Context, symbol string) (Move, error) {
	if err := ctx.Err(); err != nil {
		return Move{}, err
	}
	now := time.Now()
	bars, err := a.client.GetCryptoBars(symbol, marketdata.GetCryptoBarsRequest{
		TimeFrame: marketdata.NewTimeFrame(1, marketdata.Day),
		Start:     now.AddDate(0, 0, -3),
		End:       now,
	})
	if err != nil {
		return Move{}, err
	}
	if len(bars) == 0 {
		return Move{}, ErrNoData
	}
	m := Move{Price: bars[len(bars)-1].Close}
	if len(bars) > 1 {
		m.PrevClose = bars[len(bars)-2].Close
	}
	return m, nil
}

// StockBars returns minute bars of the given width.
func (a *AlpacaProvider) StockBars(ctx context.Context, symbol string, minutes int, start, end time.Time) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bars, err := a.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.NewTimeFrame(minutes, marketdata.Min),
		Start:     start,
		End:       end,
		Feed:      a.feed,
	})
	if err != nil {
		return nil, err
	}
	out := make([]Bar, len(bars))
	for i, b := range bars {
		out[i] = Bar{Time: b.Timestamp, Close: b.Close}
	}
	return out, nil
}

// CryptoBars returns minute bars of the given width for a crypto pair.
func (a *AlpacaProvider) CryptoBars(ctx context.Context, symbol string, minutes int, start, end time.Time) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bars, err := a.client.GetCryptoBars(symbol, marketdata.GetCryptoBarsRequest{
		TimeFrame: marketdata.NewTimeFrame(minutes, marketdata.Min),
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, err
	}
	out := make([]Bar, len(bars))
	for i, b := range bars {
		out[i] = Bar{Time: b.Timestamp, Close: b.Close}
	}
	return out, nil
}
