// Package httpapi serves the widget page, a JSON view of every render
// target and the control endpoints used by hosts without a websocket.
package httpapi

import (
	"context"

	"tickerboard/internal/chart"
	"tickerboard/internal/page"
	"tickerboard/internal/widget"
)

// Controller is the refresh scheduler as seen by the API.
type Controller interface {
	Refresh(ctx context.Context, tr widget.Trigger) error
	SetVisible(visible bool)
	Visible() bool
	State() widget.State
	Cycles() uint64
}

// TargetJSON is one render target in the widget snapshot.
type TargetJSON struct {
	HTML          string  `json:"html"`
	Width         float64 `json:"width"`
	ScrollSeconds float64 `json:"scrollSeconds,omitempty"`
	Version       uint64  `json:"version"`
}

// WidgetJSON is the response of GET /api/widget.
type WidgetJSON struct {
	Targets map[string]TargetJSON     `json:"targets"`
	Charts  map[string]chart.LineSpec `json:"charts"`
	Version uint64                    `json:"version"`
	State   string                    `json:"state"`
	Cycles  uint64                    `json:"cycles"`
	Visible bool                      `json:"visible"`
}

// VisibilityJSON is the body of POST /api/visibility and its response.
type VisibilityJSON struct {
	Visible *bool `json:"visible"`
}

// RefreshJSON is the response of POST /api/refresh.
type RefreshJSON struct {
	OK     bool   `json:"ok"`
	Cycles uint64 `json:"cycles"`
	Error  string `json:"error,omitempty"`
}

func toWidgetJSON(snap page.Snapshot, ctl Controller) WidgetJSON {
	out := WidgetJSON{
		Targets: make(map[string]TargetJSON, len(snap.Targets)),
		Charts:  snap.Charts,
		Version: snap.Version,
		State:   ctl.State().String(),
		Cycles:  ctl.Cycles(),
		Visible: ctl.Visible(),
	}
	for k, t := range snap.Targets {
		out.Targets[k] = TargetJSON{
			HTML:          t.HTML,
			Width:         t.Width,
			ScrollSeconds: t.ScrollSeconds,
			Version:       t.Version,
		}
	}
	return out
}
