package widget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tickerboard/internal/chart"
	"tickerboard/internal/domain"
)

// fakeTargets is an in-memory Targets with a fixed width per commit.
type fakeTargets struct {
	mu      sync.Mutex
	content map[string]string
	scroll  map[string]time.Duration
	writes  int
	width   float64
}

func newFakeTargets(width float64, keys ...string) *fakeTargets {
	ft := &fakeTargets{content: map[string]string{}, scroll: map[string]time.Duration{}, width: width}
	for _, k := range keys {
		ft.content[k] = ""
	}
	return ft
}

func (f *fakeTargets) Write(html string, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		if _, ok := f.content[k]; !ok {
			return fmt.Errorf("%w: %s", ErrTargetMissing, k)
		}
	}
	for _, k := range keys {
		f.content[k] = html
	}
	f.writes++
	return nil
}

func (f *fakeTargets) Width(key string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.content[key]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrTargetMissing, key)
	}
	return f.width, nil
}

func (f *fakeTargets) SetScrollDuration(d time.Duration, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		f.scroll[k] = d
	}
	return nil
}

func (f *fakeTargets) get(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.content[key]
}

func (f *fakeTargets) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// fakeCharts hands out surfaces for any key except those in missing.
type fakeCharts struct {
	mu      sync.Mutex
	drawn   map[string]chart.LineSpec
	missing map[string]bool
}

func newFakeCharts() *fakeCharts {
	return &fakeCharts{drawn: map[string]chart.LineSpec{}, missing: map[string]bool{}}
}

func (f *fakeCharts) Surface(key string) (Surface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[key] {
		return nil, fmt.Errorf("%w: %s", ErrTargetMissing, key)
	}
	return fakeSurface{f, key}, nil
}

func (f *fakeCharts) drawnKeys() map[string]chart.LineSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]chart.LineSpec, len(f.drawn))
	for k, v := range f.drawn {
		out[k] = v
	}
	return out
}

type fakeSurface struct {
	charts *fakeCharts
	key    string
}

func (s fakeSurface) Draw(spec chart.LineSpec) error {
	s.charts.mu.Lock()
	defer s.charts.mu.Unlock()
	s.charts.drawn[s.key] = spec
	return nil
}

// fakeFetcher serves canned responses and counts calls.
type fakeFetcher struct {
	mu         sync.Mutex
	snapshot   domain.QuoteSnapshot
	quotesErr  error
	intraday   map[string]domain.IntradaySeries
	intraErr   map[string]error
	quoteCalls int
	intraCalls map[string]int
	calls      chan struct{} // receives one value per FetchQuotes, if non-nil
	gate       chan struct{} // FetchQuotes blocks on it, if non-nil
}

func newFakeFetcher(snapshot domain.QuoteSnapshot) *fakeFetcher {
	return &fakeFetcher{
		snapshot:   snapshot,
		intraday:   map[string]domain.IntradaySeries{},
		intraErr:   map[string]error{},
		intraCalls: map[string]int{},
	}
}

func (f *fakeFetcher) FetchQuotes(ctx context.Context) (domain.QuoteSnapshot, error) {
	f.mu.Lock()
	f.quoteCalls++
	snap, err, calls, gate := f.snapshot, f.quotesErr, f.calls, f.gate
	f.mu.Unlock()

	if calls != nil {
		calls <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return snap, err
}

func (f *fakeFetcher) FetchIntraday(_ context.Context, ticker string) (domain.IntradaySeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intraCalls[ticker]++
	if err := f.intraErr[ticker]; err != nil {
		return domain.IntradaySeries{}, err
	}
	return f.intraday[ticker], nil
}

func (f *fakeFetcher) setQuotes(snap domain.QuoteSnapshot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot, f.quotesErr = snap, err
}

func (f *fakeFetcher) quoteCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quoteCalls
}

// manualClock hands out a single ticker driven by tick().
type manualClock struct {
	ch chan time.Time
}

func newManualClock() *manualClock { return &manualClock{ch: make(chan time.Time)} }

func (c *manualClock) NewTicker(time.Duration) Ticker { return c }
func (c *manualClock) C() <-chan time.Time           { return c.ch }
func (c *manualClock) Stop()                         {}
func (c *manualClock) tick()                         { c.ch <- time.Now() }
