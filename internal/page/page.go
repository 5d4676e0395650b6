// Package page holds the rendered state of the widget page: named render
// targets, the chart surfaces declared inside them, and a pub/sub feed of
// every commit for attached browsers.
package page

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"tickerboard/internal/chart"
	"tickerboard/internal/widget"
)

// Compile-time port checks.
var _ widget.Targets = (*Page)(nil)
var _ widget.Charts = (*Page)(nil)

// Update types published to subscribers.
const (
	UpdateTarget = "target"
	UpdateScroll = "scroll"
	UpdateChart  = "chart"
)

// Update is one change to the page.
type Update struct {
	Type          string          `json:"type"`
	Key           string          `json:"key"`
	HTML          string          `json:"html,omitempty"`
	ScrollSeconds float64         `json:"scrollSeconds,omitempty"`
	Chart         *chart.LineSpec `json:"chart,omitempty"`
	Config        map[string]any  `json:"config,omitempty"` // Chart.js configuration for Chart
	Version       uint64          `json:"version"`
}

func chartUpdate(key string, spec chart.LineSpec, version uint64) Update {
	return Update{Type: UpdateChart, Key: key, Chart: &spec, Config: spec.ChartJSConfig(), Version: version}
}

// Target is the committed state of one render target.
type Target struct {
	Key           string  `json:"key"`
	HTML          string  `json:"html"`
	Width         float64 `json:"width"`
	ScrollSeconds float64 `json:"scrollSeconds,omitempty"`
	Version       uint64  `json:"version"`
}

// Snapshot is a consistent copy of the whole page.
type Snapshot struct {
	Targets map[string]Target         `json:"targets"`
	Charts  map[string]chart.LineSpec `json:"charts"`
	Version uint64                    `json:"version"`
}

type surface struct {
	owner string // target key whose markup declares the surface
	gen   uint64 // commit version that declared it
	spec  *chart.LineSpec
}

// Page is an in-memory render-target and chart-surface provider.
type Page struct {
	mu       sync.RWMutex
	targets  map[string]*Target
	surfaces map[string]*surface
	version  uint64
	measure  func(string) float64

	subsMu    sync.Mutex
	nextSubID int
	subs      map[int]chan Update
}

// Option configures a Page.
type Option func(*Page)

// WithMeasure replaces the width estimator.
func WithMeasure(fn func(fragment string) float64) Option {
	return func(p *Page) { p.measure = fn }
}

// New creates a page with the given, externally defined target keys.
func New(keys []string, opts ...Option) *Page {
	p := &Page{
		targets:  make(map[string]*Target, len(keys)),
		surfaces: make(map[string]*surface),
		measure:  DefaultEstimator.Measure,
		subs:     make(map[int]chan Update),
	}
	for _, k := range keys {
		p.targets[k] = &Target{Key: k}
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func missing(key string) error {
	return fmt.Errorf("%w: %q", widget.ErrTargetMissing, key)
}

// Write commits html to every key at once. Surfaces declared by the previous
// content of those targets are discarded and the new fragment's data-surface
// elements are registered, chart-less.
func (p *Page) Write(html string, keys ...string) error {
	p.mu.Lock()
	for _, k := range keys {
		if _, ok := p.targets[k]; !ok {
			p.mu.Unlock()
			return missing(k)
		}
	}

	p.version++
	v := p.version
	width := p.measure(html)
	declared := surfaceKeys(html)

	updates := make([]Update, 0, len(keys))
	for _, k := range keys {
		t := p.targets[k]
		t.HTML = html
		t.Width = width
		t.Version = v

		for sk, s := range p.surfaces {
			if s.owner == k {
				delete(p.surfaces, sk)
			}
		}
		for _, sk := range declared {
			p.surfaces[sk] = &surface{owner: k, gen: v}
		}
		updates = append(updates, Update{Type: UpdateTarget, Key: k, HTML: html, Version: v})
	}
	// Published under mu so subscribers see commits in version order.
	p.publish(updates...)
	p.mu.Unlock()
	return nil
}

// Width returns the measured width of the target's current content.
func (p *Page) Width(key string) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	t, ok := p.targets[key]
	if !ok {
		return 0, missing(key)
	}
	return t.Width, nil
}

// SetScrollDuration records the scroll animation duration on targets.
func (p *Page) SetScrollDuration(d time.Duration, keys ...string) error {
	p.mu.Lock()
	for _, k := range keys {
		if _, ok := p.targets[k]; !ok {
			p.mu.Unlock()
			return missing(k)
		}
	}
	updates := make([]Update, 0, len(keys))
	for _, k := range keys {
		t := p.targets[k]
		t.ScrollSeconds = d.Seconds()
		updates = append(updates, Update{Type: UpdateScroll, Key: k, ScrollSeconds: t.ScrollSeconds, Version: t.Version})
	}
	p.publish(updates...)
	p.mu.Unlock()
	return nil
}

// Surface looks up a chart surface declared by the current content.
func (p *Page) Surface(key string) (widget.Surface, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.surfaces[key]
	if !ok {
		return nil, missing(key)
	}
	return &surfaceHandle{page: p, key: key, gen: s.gen}, nil
}

type surfaceHandle struct {
	page *Page
	key  string
	gen  uint64
}

// Draw binds spec to the surface. A handle whose card has since been
// replaced by a newer commit reports the surface as missing.
func (h *surfaceHandle) Draw(spec chart.LineSpec) error {
	p := h.page
	p.mu.Lock()
	s, ok := p.surfaces[h.key]
	if !ok || s.gen != h.gen {
		p.mu.Unlock()
		return missing(h.key)
	}
	s.spec = &spec
	p.publish(chartUpdate(h.key, spec, s.gen))
	p.mu.Unlock()
	return nil
}

// Snapshot returns a copy of all targets and drawn charts.
func (p *Page) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	snap := Snapshot{
		Targets: make(map[string]Target, len(p.targets)),
		Charts:  make(map[string]chart.LineSpec),
		Version: p.version,
	}
	for k, t := range p.targets {
		snap.Targets[k] = *t
	}
	for k, s := range p.surfaces {
		if s.spec != nil {
			snap.Charts[k] = *s.spec
		}
	}
	return snap
}

// Updates returns the snapshot as a replayable update list: targets first,
// then scroll durations, then charts, each sorted by key.
func (s Snapshot) Updates() []Update {
	keys := make([]string, 0, len(s.Targets))
	for k := range s.Targets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Update
	for _, k := range keys {
		t := s.Targets[k]
		out = append(out, Update{Type: UpdateTarget, Key: k, HTML: t.HTML, Version: t.Version})
	}
	for _, k := range keys {
		if t := s.Targets[k]; t.ScrollSeconds > 0 {
			out = append(out, Update{Type: UpdateScroll, Key: k, ScrollSeconds: t.ScrollSeconds, Version: t.Version})
		}
	}

	charts := make([]string, 0, len(s.Charts))
	for k := range s.Charts {
		charts = append(charts, k)
	}
	sort.Strings(charts)
	for _, k := range charts {
		out = append(out, chartUpdate(k, s.Charts[k], s.Version))
	}
	return out
}

// Subscribe registers a buffered update feed.
func (p *Page) Subscribe(bufSize int) (id int, ch <-chan Update) {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	id = p.nextSubID
	p.nextSubID++
	c := make(chan Update, bufSize)
	p.subs[id] = c
	return id, c
}

// Unsubscribe removes a feed and closes its channel.
func (p *Page) Unsubscribe(id int) {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	if ch, ok := p.subs[id]; ok {
		close(ch)
		delete(p.subs, id)
	}
}

// publish fans updates out without blocking; a full subscriber misses them.
func (p *Page) publish(updates ...Update) {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	for _, u := range updates {
		for _, ch := range p.subs {
			select {
			case ch <- u:
			default:
			}
		}
	}
}
