// Package quotesource serves the quotes backend contract (GET /api/quotes,
// GET /api/intraday/{ticker}) from an upstream market-data provider.
package quotesource

import (
	"context"
	"errors"
	"time"

	"tickerboard/internal/domain"
)

// ErrNoData means the provider has nothing for the symbol in the window.
var ErrNoData = errors.New("no data")

// Move is an instrument's latest price against the previous session close.
// PrevClose is zero when unknown.
type Move struct {
	Price     float64
	PrevClose float64
}

// Bar is one intraday close.
type Bar struct {
	Time  time.Time
	Close float64
}

// Provider is an upstream market-data source. Stocks are batched; crypto
// pairs are fetched one at a time.
type Provider interface {
	StockMoves(ctx context.Context, symbols []string) (map[string]Move, error)
	CryptoMove(ctx context.Context, symbol string) (Move, error)
	StockBars(ctx context.Context, symbol string, minutes int, start, end time.Time) ([]Bar, error)
	CryptoBars(ctx context.Context, symbol string, minutes int, start, end time.Time) ([]Bar, error)
}

// Instrument is one catalogue entry.
type Instrument struct {
	Ticker   string
	Symbol   string // upstream symbol; empty means Ticker
	Name     string
	Category domain.Category
	Currency string
}

func (i Instrument) upstream() string {
	if i.Symbol != "" {
		return i.Symbol
	}
	return i.Ticker
}

func (i Instrument) crypto() bool {
	return i.Category == domain.CategoryCrypto
}
