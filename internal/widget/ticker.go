package widget

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"math"
	"time"

	"tickerboard/internal/dashboard"
	"tickerboard/internal/domain"
)

// TickerItem is the view-model of one entry in the scrolling list.
type TickerItem struct {
	Ticker        string
	Name          string
	Icon          string
	CategoryClass string
	Price         string
	Currency      string
	Delta         string
	DeltaClass    string
}

// NewTickerItem formats a quote for the ticker list.
func NewTickerItem(q domain.Quote) TickerItem {
	d := dashboard.FormatDelta(q.Change, q.ChangePct)
	return TickerItem{
		Ticker:        q.Ticker,
		Name:          q.Name,
		Icon:          dashboard.CategoryIcon(q.Category),
		CategoryClass: dashboard.CategoryClass(q.Category),
		Price:         dashboard.FormatPrice(q.Price),
		Currency:      dashboard.DisplayCurrency(q),
		Delta:         d.Text,
		DeltaClass:    d.Class,
	}
}

var tickerTmpl = template.Must(template.New("ticker").Parse(
	`{{range .}}<div class="item">` +
		`<span class="{{.CategoryClass}}">{{.Icon}}</span>` +
		`<span class="sym">{{.Ticker}}</span>` +
		`<span class="name">{{.Name}}</span>` +
		`<span class="price">{{.Price}} <small class="currency">{{.Currency}}</small></span>` +
		`<span class="delta {{.DeltaClass}}">{{.Delta}}</span>` +
		`</div>{{end}}`))

// TickerConfig holds the track keys and scroll-speed bounds.
type TickerConfig struct {
	Tracks        []string
	SpeedPxPerSec float64
	MinScroll     time.Duration
	MaxScroll     time.Duration
}

// TickerView renders the full quote list into mirrored tracks.
type TickerView struct {
	cfg     TickerConfig
	targets Targets
	log     *slog.Logger
}

// NewTickerView creates a TickerView writing into targets.
func NewTickerView(cfg TickerConfig, targets Targets, log *slog.Logger) *TickerView {
	return &TickerView{cfg: cfg, targets: targets, log: log.With("component", "ticker")}
}

// RenderFragment builds the markup for a snapshot.
func RenderFragment(snapshot domain.QuoteSnapshot) (string, error) {
	items := make([]TickerItem, len(snapshot))
	for i, q := range snapshot {
		items[i] = NewTickerItem(q)
	}
	var buf bytes.Buffer
	if err := tickerTmpl.Execute(&buf, items); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render commits the snapshot to every track, then sizes the scroll
// animation from the committed width.
func (v *TickerView) Render(snapshot domain.QuoteSnapshot) error {
	if len(v.cfg.Tracks) == 0 {
		return fmt.Errorf("ticker: %w: no tracks configured", ErrTargetMissing)
	}

	frag, err := RenderFragment(snapshot)
	if err != nil {
		return fmt.Errorf("ticker: rendering fragment: %w", err)
	}
	if err := v.targets.Write(frag, v.cfg.Tracks...); err != nil {
		return fmt.Errorf("ticker: %w", err)
	}

	width, err := v.targets.Width(v.cfg.Tracks[0])
	if err != nil {
		return fmt.Errorf("ticker: measuring: %w", err)
	}
	d := ScrollDuration(width, v.cfg.SpeedPxPerSec, v.cfg.MinScroll, v.cfg.MaxScroll)
	if err := v.targets.SetScrollDuration(d, v.cfg.Tracks...); err != nil {
		return fmt.Errorf("ticker: %w", err)
	}

	v.log.Debug("ticker rendered", "items", len(snapshot), "width", width, "scroll", d)
	return nil
}

// ScrollDuration is the time to scroll width pixels at speed px/s, clamped
// to [lo, hi]. A non-positive speed yields hi.
func ScrollDuration(width, speed float64, lo, hi time.Duration) time.Duration {
	if hi < lo {
		lo, hi = hi, lo
	}
	if speed <= 0 || math.IsNaN(width) {
		return hi
	}
	secs := width / speed
	switch {
	case secs <= lo.Seconds():
		return lo
	case secs >= hi.Seconds():
		return hi
	}
	return time.Duration(secs * float64(time.Second))
}
