package page

import (
	"errors"
	"testing"
	"time"

	"tickerboard/internal/chart"
	"tickerboard/internal/widget"
)

var keys = []string{"ticker-track-first", "ticker-track-second", "top-gainers"}

func TestWriteMirrorsAndVersions(t *testing.T) {
	p := New(keys, WithMeasure(func(s string) float64 { return float64(len(s)) }))

	if err := p.Write("<div>abc</div>", keys[0], keys[1]); err != nil {
		t.Fatalf("Write: %v", err)
	}
	snap := p.Snapshot()
	a, b := snap.Targets[keys[0]], snap.Targets[keys[1]]
	if a.HTML != b.HTML || a.Version != b.Version {
		t.Errorf("tracks diverged: %+v vs %+v", a, b)
	}
	if a.Version != 1 || snap.Version != 1 {
		t.Errorf("version = %d/%d, want 1", a.Version, snap.Version)
	}

	w, err := p.Width(keys[0])
	if err != nil {
		t.Fatalf("Width: %v", err)
	}
	if w != float64(len("<div>abc</div>")) {
		t.Errorf("Width = %v, want %d", w, len("<div>abc</div>"))
	}
}

func TestWriteUnknownKeyWritesNothing(t *testing.T) {
	p := New(keys)
	err := p.Write("x", keys[0], "nope")
	if !errors.Is(err, widget.ErrTargetMissing) {
		t.Fatalf("Write error = %v, want ErrTargetMissing", err)
	}
	if got := p.Snapshot().Targets[keys[0]].HTML; got != "" {
		t.Errorf("first key written: %q", got)
	}
	if _, err := p.Width("nope"); !errors.Is(err, widget.ErrTargetMissing) {
		t.Errorf("Width error = %v, want ErrTargetMissing", err)
	}
	if err := p.SetScrollDuration(time.Second, "nope"); !errors.Is(err, widget.ErrTargetMissing) {
		t.Errorf("SetScrollDuration error = %v, want ErrTargetMissing", err)
	}
}

func TestSurfacesFollowMarkup(t *testing.T) {
	p := New(keys)
	grid := keys[2]

	if _, err := p.Surface("chart-AAA"); !errors.Is(err, widget.ErrTargetMissing) {
		t.Fatalf("Surface before write: %v, want ErrTargetMissing", err)
	}

	p.Write(`<div><canvas data-surface="chart-AAA"></canvas><canvas data-surface="chart-CCC"></canvas></div>`, grid)
	s, err := p.Surface("chart-AAA")
	if err != nil {
		t.Fatalf("Surface: %v", err)
	}
	if err := s.Draw(chart.NewSparkline(nil, []float64{1, 2}, chart.DefaultStyle)); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if _, ok := p.Snapshot().Charts["chart-AAA"]; !ok {
		t.Error("drawn chart missing from snapshot")
	}
	if _, ok := p.Snapshot().Charts["chart-CCC"]; ok {
		t.Error("undrawn chart present in snapshot")
	}

	// Rewriting the grid replaces its cards; old handles go stale.
	p.Write(`<canvas data-surface="chart-AAA"></canvas>`, grid)
	if err := s.Draw(chart.NewSparkline(nil, []float64{1, 2}, chart.DefaultStyle)); !errors.Is(err, widget.ErrTargetMissing) {
		t.Errorf("stale Draw error = %v, want ErrTargetMissing", err)
	}
	if _, err := p.Surface("chart-CCC"); !errors.Is(err, widget.ErrTargetMissing) {
		t.Errorf("removed surface still present: %v", err)
	}
	if len(p.Snapshot().Charts) != 0 {
		t.Errorf("charts survived a grid rewrite: %v", p.Snapshot().Charts)
	}
}

func TestSurfacesOfOtherTargetsSurvive(t *testing.T) {
	p := New(keys)
	p.Write(`<canvas data-surface="chart-X"></canvas>`, keys[2])
	p.Write(`<div class="item">X</div>`, keys[0], keys[1])
	if _, err := p.Surface("chart-X"); err != nil {
		t.Errorf("surface lost after writing another target: %v", err)
	}
}

func TestSubscribeReceivesCommitsInOrder(t *testing.T) {
	p := New(keys)
	id, ch := p.Subscribe(16)

	p.Write("one", keys[0], keys[1])
	p.SetScrollDuration(40*time.Second, keys[0], keys[1])
	p.Write(`<canvas data-surface="chart-A"></canvas>`, keys[2])
	s, _ := p.Surface("chart-A")
	s.Draw(chart.NewSparkline(nil, []float64{1, 2}, chart.DefaultStyle))

	want := []struct {
		typ, key string
	}{
		{UpdateTarget, keys[0]},
		{UpdateTarget, keys[1]},
		{UpdateScroll, keys[0]},
		{UpdateScroll, keys[1]},
		{UpdateTarget, keys[2]},
		{UpdateChart, "chart-A"},
	}
	for i, w := range want {
		u := <-ch
		if u.Type != w.typ || u.Key != w.key {
			t.Fatalf("update %d = %s/%s, want %s/%s", i, u.Type, u.Key, w.typ, w.key)
		}
	}

	p.Unsubscribe(id)
	if _, ok := <-ch; ok {
		t.Error("channel open after Unsubscribe")
	}
}

func TestSnapshotUpdatesReplay(t *testing.T) {
	p := New(keys)
	p.Write("t", keys[0], keys[1])
	p.SetScrollDuration(30*time.Second, keys[0], keys[1])
	p.Write(`<canvas data-surface="chart-A"></canvas>`, keys[2])
	s, _ := p.Surface("chart-A")
	s.Draw(chart.NewSparkline(nil, []float64{1, 2}, chart.DefaultStyle))

	ups := p.Snapshot().Updates()
	var targets, scrolls, charts int
	for _, u := range ups {
		switch u.Type {
		case UpdateTarget:
			targets++
		case UpdateScroll:
			scrolls++
			if u.ScrollSeconds != 30 {
				t.Errorf("scroll = %v, want 30", u.ScrollSeconds)
			}
		case UpdateChart:
			charts++
		}
	}
	if targets != 3 || scrolls != 2 || charts != 1 {
		t.Errorf("replay = %d targets, %d scrolls, %d charts; want 3, 2, 1", targets, scrolls, charts)
	}
	if ups[len(ups)-1].Type != UpdateChart {
		t.Error("charts must replay after targets")
	}
}

func TestEstimator(t *testing.T) {
	e := Estimator{CharPx: 10, ItemGapPx: 100, ItemClass: "item"}
	frag := `<div class="item"><span>AB</span> <span>C&amp;D</span></div><div class="item other">日本</div>`
	// text cells: "AB"=2, "C&D"=3, "日本"=4 (wide) -> 9 cells; 2 items
	if got := e.Measure(frag); got != 290 {
		t.Errorf("Measure = %v, want 290", got)
	}
	if got := e.Measure(""); got != 0 {
		t.Errorf("Measure(empty) = %v, want 0", got)
	}
}

func TestSurfaceKeys(t *testing.T) {
	got := surfaceKeys(`<div><canvas id="a" data-surface="chart-A"></canvas><canvas data-surface=""></canvas><br/><canvas data-surface="chart-B"/></div>`)
	if len(got) != 2 || got[0] != "chart-A" || got[1] != "chart-B" {
		t.Errorf("surfaceKeys = %v, want [chart-A chart-B]", got)
	}
}
