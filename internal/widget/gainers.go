package widget

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"tickerboard/internal/chart"
	"tickerboard/internal/dashboard"
	"tickerboard/internal/domain"
)

// Chart outcomes recorded in a GainersReport.
const (
	ChartDrawn          = "drawn"
	ChartNotOK          = "not_ok"
	ChartInsufficient   = "insufficient"
	ChartFetchError     = "fetch_error"
	ChartSurfaceMissing = "surface_missing"
	ChartDrawError      = "draw_error"
)

// GainerCard is the view-model of one top-gainer card.
type GainerCard struct {
	Ticker     string
	Name       string
	Currency   string
	Price      string
	Gain       string
	SurfaceKey string
}

// NewGainerCard formats a quote for the gainers panel.
func NewGainerCard(q domain.Quote) GainerCard {
	return GainerCard{
		Ticker:     q.Ticker,
		Name:       q.Name,
		Currency:   dashboard.DisplayCurrency(q),
		Price:      dashboard.FormatPrice(q.Price),
		Gain:       dashboard.FormatGain(q.ChangePct),
		SurfaceKey: dashboard.SurfaceKey(q.Ticker),
	}
}

var gainersTmpl = template.Must(template.New("gainers").Parse(
	`{{range .}}<div class="chart-card" data-ticker="{{.Ticker}}">` +
		`<h2>{{.Name}} ({{.Ticker}}) <span class="chg">{{.Gain}}</span></h2>` +
		`<div class="price">{{.Price}} <small class="currency">{{.Currency}}</small></div>` +
		`<canvas id="{{.SurfaceKey}}" data-surface="{{.SurfaceKey}}"></canvas>` +
		`</div>{{end}}`))

// ChartOutcome records what happened to one card's chart.
type ChartOutcome struct {
	Ticker  string
	Surface string
	Outcome string
	Err     error
}

// GainersReport summarises one gainers render.
type GainersReport struct {
	Cards  int
	Charts []ChartOutcome
}

// Drawn counts the charts that were drawn.
func (r GainersReport) Drawn() int {
	n := 0
	for _, c := range r.Charts {
		if c.Outcome == ChartDrawn {
			n++
		}
	}
	return n
}

// GainersConfig holds the grid key and sparkline style.
type GainersConfig struct {
	Grid  string
	Style chart.Style
}

// GainersView renders the top-gainers cards and their sparklines.
type GainersView struct {
	cfg     GainersConfig
	targets Targets
	charts  Charts
	fetcher Fetcher
	log     *slog.Logger
}

// NewGainersView creates a GainersView.
func NewGainersView(cfg GainersConfig, targets Targets, charts Charts, fetcher Fetcher, log *slog.Logger) *GainersView {
	return &GainersView{
		cfg:     cfg,
		targets: targets,
		charts:  charts,
		fetcher: fetcher,
		log:     log.With("component", "gainers"),
	}
}

// RenderCards builds the markup for a selection. Tickers that sanitize to
// the same surface key get "-2", "-3", ... appended in selection order, so
// every card owns its own surface.
func RenderCards(sel domain.GainerSelection) ([]GainerCard, string, error) {
	cards := make([]GainerCard, len(sel))
	seen := make(map[string]int, len(sel))
	for i, q := range sel {
		cards[i] = NewGainerCard(q)
		key := cards[i].SurfaceKey
		seen[key]++
		if n := seen[key]; n > 1 {
			cards[i].SurfaceKey = fmt.Sprintf("%s-%d", key, n)
		}
	}
	var buf bytes.Buffer
	if err := gainersTmpl.Execute(&buf, cards); err != nil {
		return nil, "", err
	}
	return cards, buf.String(), nil
}

// Render writes all cards, then fetches and draws one sparkline per card.
// A chart failure only affects its own card. The returned error is non-nil
// only when the cards themselves could not be written.
func (v *GainersView) Render(ctx context.Context, sel domain.GainerSelection) (GainersReport, error) {
	cards, frag, err := RenderCards(sel)
	if err != nil {
		return GainersReport{}, fmt.Errorf("gainers: rendering cards: %w", err)
	}
	if err := v.targets.Write(frag, v.cfg.Grid); err != nil {
		return GainersReport{}, fmt.Errorf("gainers: %w", err)
	}

	report := GainersReport{Cards: len(cards), Charts: make([]ChartOutcome, len(cards))}

	surfaces := make([]Surface, len(cards))
	for i, c := range cards {
		report.Charts[i] = ChartOutcome{Ticker: c.Ticker, Surface: c.SurfaceKey}
		s, err := v.charts.Surface(c.SurfaceKey)
		if err != nil {
			report.Charts[i].Outcome = ChartSurfaceMissing
			report.Charts[i].Err = err
			v.log.Warn("chart surface missing", "ticker", c.Ticker, "surface", c.SurfaceKey, "error", err)
			continue
		}
		surfaces[i] = s
	}

	var g errgroup.Group
	for i, c := range cards {
		if surfaces[i] == nil {
			continue
		}
		g.Go(func() error {
			report.Charts[i].Outcome, report.Charts[i].Err = v.drawChart(ctx, c.Ticker, surfaces[i])
			return nil
		})
	}
	// Chart failures are recorded per card, never returned.
	_ = g.Wait()

	return report, nil
}

func (v *GainersView) drawChart(ctx context.Context, ticker string, s Surface) (string, error) {
	series, err := v.fetcher.FetchIntraday(ctx, ticker)
	if err != nil {
		v.log.Warn("intraday fetch failed", "ticker", ticker, "error", err)
		return ChartFetchError, err
	}
	if !series.OK {
		v.log.Info("no intraday series", "ticker", ticker, "msg", series.Msg, "error", series.Error)
		return ChartNotOK, nil
	}
	if len(series.Prices) < 2 {
		v.log.Info("intraday series too short", "ticker", ticker, "points", len(series.Prices))
		return ChartInsufficient, fmt.Errorf("%s: %d points: %w", ticker, len(series.Prices), ErrInsufficientSeries)
	}

	if err := s.Draw(chart.NewSparkline(series.Labels, series.Prices, v.cfg.Style)); err != nil {
		v.log.Warn("drawing chart", "ticker", ticker, "error", err)
		return ChartDrawError, err
	}
	return ChartDrawn, nil
}
