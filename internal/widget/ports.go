// Package widget is the refresh/render pipeline of the ticker widget: the
// scrolling ticker list, the top-gainers panel, and the scheduler that
// refreshes both. Page access, timers, and the network are injected as ports.
package widget

import (
	"context"
	"errors"
	"time"

	"tickerboard/internal/chart"
	"tickerboard/internal/domain"
)

// ErrTargetMissing is returned when a render target or chart surface does
// not exist.
var ErrTargetMissing = errors.New("render target missing")

// ErrInsufficientSeries marks an intraday series too short to plot.
var ErrInsufficientSeries = errors.New("insufficient intraday series")

// Fetcher retrieves quotes and intraday series from the backend.
type Fetcher interface {
	FetchQuotes(ctx context.Context) (domain.QuoteSnapshot, error)
	FetchIntraday(ctx context.Context, ticker string) (domain.IntradaySeries, error)
}

// Targets is the render-target provider.
type Targets interface {
	// Write replaces the content of every named target with html in a single
	// commit. If any key is unknown nothing is written.
	Write(html string, keys ...string) error

	// Width returns the rendered content width of a target in pixels, as
	// measured after the last commit.
	Width(key string) (float64, error)

	// SetScrollDuration applies a scroll animation duration to targets.
	SetScrollDuration(d time.Duration, keys ...string) error
}

// Surface is one chart slot.
type Surface interface {
	Draw(spec chart.LineSpec) error
}

// Charts looks up chart surfaces by key.
type Charts interface {
	Surface(key string) (Surface, error)
}

// Clock creates tickers; tests substitute a manual one.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers timer ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// SystemClock is the wall-clock Clock.
type SystemClock struct{}

// NewTicker wraps time.NewTicker.
func (SystemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{time.NewTicker(d)}
}

type systemTicker struct{ t *time.Ticker }

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }
