package chart

import (
	"testing"
	"unicode/utf8"
)

func TestNewSparklineCopiesAndPads(t *testing.T) {
	values := []float64{1, 2, 3}
	spec := NewSparkline([]string{"09:30"}, values, DefaultStyle)
	values[0] = 99

	if spec.Values[0] != 1 {
		t.Errorf("Values[0] = %v, want 1 (spec must not alias input)", spec.Values[0])
	}
	if len(spec.Labels) != 3 || spec.Labels[0] != "09:30" || spec.Labels[2] != "" {
		t.Errorf("Labels = %q, want [09:30 \"\" \"\"]", spec.Labels)
	}
	if spec.ShowAxes || spec.ShowLegend || spec.ShowTooltip || spec.PointRadius != 0 {
		t.Errorf("decorations not suppressed: %+v", spec)
	}
}

func TestChartJSConfigHidesDecorations(t *testing.T) {
	cfg := NewSparkline(nil, []float64{1, 2}, DefaultStyle).ChartJSConfig()
	opts := cfg["options"].(map[string]any)

	scales := opts["scales"].(map[string]any)
	for _, axis := range []string{"x", "y"} {
		if scales[axis].(map[string]any)["display"] != false {
			t.Errorf("%s axis displayed", axis)
		}
	}
	plugins := opts["plugins"].(map[string]any)
	if plugins["legend"].(map[string]any)["display"] != false {
		t.Error("legend displayed")
	}
	if plugins["tooltip"].(map[string]any)["enabled"] != false {
		t.Error("tooltip enabled")
	}

	ds := cfg["data"].(map[string]any)["datasets"].([]map[string]any)[0]
	if ds["borderColor"] != DefaultStyle.Stroke {
		t.Errorf("borderColor = %v, want %v", ds["borderColor"], DefaultStyle.Stroke)
	}
	if ds["fill"] != true {
		t.Errorf("fill = %v, want true", ds["fill"])
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 8); got != "▁▂▃▄▅▆▇█" {
		t.Errorf("Sparkline(ramp) = %q", got)
	}
	if got := Sparkline([]float64{5, 5, 5}, 10); got != "▅▅▅" {
		t.Errorf("Sparkline(flat) = %q, want %q", got, "▅▅▅")
	}
	if got := Sparkline(nil, 10); got != "" {
		t.Errorf("Sparkline(nil) = %q, want empty", got)
	}

	long := make([]float64, 100)
	for i := range long {
		long[i] = float64(i)
	}
	got := Sparkline(long, 20)
	if n := utf8.RuneCountInString(got); n != 20 {
		t.Errorf("resampled width = %d, want 20", n)
	}
}
