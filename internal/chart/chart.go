// Package chart describes minimal sparkline charts: the line-series spec
// handed to the browser charting library, and a block-glyph renderer for
// terminals.
package chart

import (
	"math"
	"strings"
)

// Style controls how a sparkline is stroked and filled.
type Style struct {
	Stroke  string  `json:"stroke" yaml:"stroke"`
	Fill    string  `json:"fill" yaml:"fill"`
	Tension float64 `json:"tension" yaml:"tension"`
	Width   float64 `json:"width" yaml:"width"`
}

// DefaultStyle is the green gainer sparkline.
var DefaultStyle = Style{
	Stroke:  "#00e676",
	Fill:    "rgba(0,230,118,0.15)",
	Tension: 0.3,
	Width:   2,
}

// LineSpec is a single line series with every decoration switched off:
// no axes, legend, tooltip, or point markers.
type LineSpec struct {
	Labels      []string  `json:"labels"`
	Values      []float64 `json:"values"`
	Style       Style     `json:"style"`
	ShowAxes    bool      `json:"showAxes"`
	ShowLegend  bool      `json:"showLegend"`
	ShowTooltip bool      `json:"showTooltip"`
	PointRadius float64   `json:"pointRadius"`
}

// NewSparkline builds a LineSpec for the given series. Labels shorter than
// values are padded with empty strings so the library never misaligns.
func NewSparkline(labels []string, values []float64, style Style) LineSpec {
	l := make([]string, len(values))
	copy(l, labels)
	v := make([]float64, len(values))
	copy(v, values)
	return LineSpec{Labels: l, Values: v, Style: style}
}

// ChartJSConfig converts the spec to a Chart.js line chart configuration.
func (s LineSpec) ChartJSConfig() map[string]any {
	return map[string]any{
		"type": "line",
		"data": map[string]any{
			"labels": s.Labels,
			"datasets": []map[string]any{{
				"data":            s.Values,
				"borderColor":     s.Style.Stroke,
				"backgroundColor": s.Style.Fill,
				"fill":            s.Style.Fill != "",
				"tension":         s.Style.Tension,
				"borderWidth":     s.Style.Width,
			}},
		},
		"options": map[string]any{
			"animation": false,
			"scales": map[string]any{
				"x": map[string]any{"display": s.ShowAxes},
				"y": map[string]any{"display": s.ShowAxes},
			},
			"plugins": map[string]any{
				"legend":  map[string]any{"display": s.ShowLegend},
				"tooltip": map[string]any{"enabled": s.ShowTooltip},
			},
			"elements": map[string]any{"point": map[string]any{"radius": s.PointRadius}},
		},
	}
}

var blocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders values as block glyphs, resampled to at most width
// cells. A flat series renders at mid height.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	vals := resample(values, width)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	var b strings.Builder
	for _, v := range vals {
		idx := len(blocks) / 2
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(blocks)-1))
		}
		b.WriteRune(blocks[idx])
	}
	return b.String()
}

// resample picks evenly spaced samples when there are more values than cells.
func resample(values []float64, width int) []float64 {
	if len(values) <= width {
		return values
	}
	out := make([]float64, width)
	step := float64(len(values)-1) / float64(width-1)
	if width == 1 {
		step = 0
	}
	for i := range out {
		out[i] = values[int(math.Round(float64(i)*step))]
	}
	return out
}
