package widget

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"tickerboard/internal/dashboard"
	"tickerboard/internal/metrics"
	"tickerboard/internal/quotes"
)

// Trigger names what started a refresh cycle.
type Trigger string

const (
	TriggerLoad    Trigger = "load"
	TriggerTimer   Trigger = "timer"
	TriggerVisible Trigger = "visible"
	TriggerManual  Trigger = "manual"
)

// State is the scheduler's externally visible phase.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateRendering
)

func (s State) String() string {
	switch s {
	case StateFetching:
		return "fetching"
	case StateRendering:
		return "rendering"
	default:
		return "idle"
	}
}

// SchedulerConfig controls refresh cadence.
type SchedulerConfig struct {
	Interval    time.Duration
	GainerCount int

	// SingleFlight joins triggers that arrive while a cycle is in flight onto
	// that cycle. Off by default: overlapping cycles each run to completion
	// and whichever resolves last owns the render targets.
	SingleFlight bool
}

// Scheduler owns the refresh cadence and runs fetch-then-render cycles.
type Scheduler struct {
	cfg     SchedulerConfig
	fetcher Fetcher
	ticker  *TickerView
	gainers *GainersView
	clock   Clock
	log     *slog.Logger
	metrics *metrics.Metrics

	group     singleflight.Group
	fetching  atomic.Int32
	rendering atomic.Int32
	cycles    atomic.Uint64

	mu      sync.Mutex
	runCtx  context.Context // nil until Run starts
	visible bool
	wg      sync.WaitGroup
}

// NewScheduler wires a Scheduler. The page starts out visible.
func NewScheduler(cfg SchedulerConfig, fetcher Fetcher, ticker *TickerView, gainers *GainersView, clock Clock, m *metrics.Metrics, log *slog.Logger) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	if cfg.GainerCount <= 0 {
		cfg.GainerCount = dashboard.DefaultGainerCount
	}
	return &Scheduler{
		cfg:     cfg,
		fetcher: fetcher,
		ticker:  ticker,
		gainers: gainers,
		clock:   clock,
		log:     log.With("component", "scheduler"),
		metrics: m,
		visible: true,
	}
}

// State reports the furthest phase any in-flight cycle has reached.
func (s *Scheduler) State() State {
	switch {
	case s.rendering.Load() > 0:
		return StateRendering
	case s.fetching.Load() > 0:
		return StateFetching
	default:
		return StateIdle
	}
}

// Cycles returns how many cycles have completed, successfully or not.
func (s *Scheduler) Cycles() uint64 { return s.cycles.Load() }

// Run performs the initial load, then refreshes every interval until ctx is
// cancelled. Ticks start a cycle even when earlier ones are still running.
// Run waits for in-flight cycles before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	s.log.Info("scheduler started", "interval", s.cfg.Interval, "singleFlight", s.cfg.SingleFlight)
	s.trigger(ctx, TriggerLoad)

	t := s.clock.NewTicker(s.cfg.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.runCtx = nil
			s.mu.Unlock()
			s.wg.Wait()
			s.log.Info("scheduler stopped", "cycles", s.cycles.Load())
			return nil
		case <-t.C():
			s.trigger(ctx, TriggerTimer)
		}
	}
}

// SetVisible records page visibility. A hidden-to-visible transition starts
// a cycle immediately, regardless of the timer phase.
func (s *Scheduler) SetVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	was := s.visible
	s.visible = visible
	s.log.Debug("visibility changed", "visible", visible, "was", was)

	// Triggering under mu keeps wg.Add ordered before Run's wg.Wait.
	if visible && !was && s.runCtx != nil {
		s.trigger(s.runCtx, TriggerVisible)
	}
}

// Visible reports the last recorded page visibility.
func (s *Scheduler) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

func (s *Scheduler) trigger(ctx context.Context, tr Trigger) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Refresh(ctx, tr)
	}()
}

// Refresh runs one cycle synchronously and returns its error, which has
// already been logged.
func (s *Scheduler) Refresh(ctx context.Context, tr Trigger) error {
	if !s.cfg.SingleFlight {
		return s.cycle(ctx, tr)
	}
	_, err, shared := s.group.Do("refresh", func() (any, error) {
		return nil, s.cycle(ctx, tr)
	})
	if shared {
		s.log.Debug("joined in-flight cycle", "trigger", tr)
	}
	return err
}

func (s *Scheduler) cycle(ctx context.Context, tr Trigger) error {
	start := time.Now()
	defer s.cycles.Add(1)

	s.fetching.Add(1)
	snapshot, err := s.fetcher.FetchQuotes(ctx)
	s.fetching.Add(-1)
	if err != nil {
		s.log.Warn("quotes fetch failed, keeping previous render", "trigger", tr, "error", err)
		s.metrics.FetchFailed(quotes.EndpointQuotes)
		s.metrics.ObserveCycle(string(tr), "fetch_error", time.Since(start))
		return err
	}

	s.rendering.Add(1)
	defer s.rendering.Add(-1)

	selection := dashboard.TopGainers(snapshot, s.cfg.GainerCount)

	tickerErr := s.ticker.Render(snapshot)
	if tickerErr != nil {
		s.log.Error("ticker render failed", "trigger", tr, "error", tickerErr)
	}

	report, gainersErr := s.gainers.Render(ctx, selection)
	if gainersErr != nil {
		s.log.Error("gainers render failed", "trigger", tr, "error", gainersErr)
	}
	for _, c := range report.Charts {
		s.metrics.ChartOutcome(c.Outcome)
		if c.Outcome == ChartFetchError {
			s.metrics.FetchFailed(quotes.EndpointIntraday)
		}
	}

	result := "ok"
	if tickerErr != nil || gainersErr != nil {
		result = "render_error"
	}
	s.metrics.ObserveCycle(string(tr), result, time.Since(start))
	s.log.Info("refresh cycle complete",
		"trigger", tr,
		"quotes", len(snapshot),
		"gainers", len(selection),
		"charts", report.Drawn(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return errors.Join(tickerErr, gainersErr)
}
