package dashboard

import (
	"math"
	"testing"

	"tickerboard/internal/domain"
)

func quote(ticker string, pct *float64) domain.Quote {
	return domain.Quote{Ticker: ticker, Name: ticker, Category: domain.CategoryStock, ChangePct: pct}
}

func tickers(sel domain.GainerSelection) []string {
	out := make([]string, len(sel))
	for i, q := range sel {
		out[i] = q.Ticker
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTopGainers(t *testing.T) {
	tests := []struct {
		name string
		in   domain.QuoteSnapshot
		want []string
	}{
		{
			name: "stable on ties",
			in: domain.QuoteSnapshot{
				quote("A", domain.Float(5)),
				quote("B", domain.Float(5)),
				quote("C", domain.Float(3)),
			},
			want: []string{"A", "B", "C"},
		},
		{
			name: "drops losers and caps at three",
			in: domain.QuoteSnapshot{
				quote("AAA", domain.Float(10)),
				quote("BBB", domain.Float(-2)),
				quote("CCC", domain.Float(7)),
				quote("DDD", domain.Float(1)),
				quote("EEE", domain.Float(8)),
			},
			want: []string{"AAA", "EEE", "CCC"},
		},
		{
			name: "nil zero and NaN excluded",
			in: domain.QuoteSnapshot{
				quote("A", nil),
				quote("B", domain.Float(0)),
				quote("C", domain.Float(math.NaN())),
				quote("D", domain.Float(0.01)),
			},
			want: []string{"D"},
		},
		{
			name: "no gainers",
			in:   domain.QuoteSnapshot{quote("A", domain.Float(-1))},
			want: []string{},
		},
		{
			name: "empty snapshot",
			in:   nil,
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tickers(TopGainers(tt.in, DefaultGainerCount))
			if !equal(got, tt.want) {
				t.Errorf("TopGainers() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopGainersProperties(t *testing.T) {
	in := domain.QuoteSnapshot{
		quote("A", domain.Float(1)),
		quote("B", domain.Float(4)),
		quote("C", domain.Float(-4)),
		quote("D", domain.Float(2)),
		quote("E", domain.Float(9)),
		quote("F", domain.Float(3)),
	}
	sel := TopGainers(in, 0)
	if len(sel) > DefaultGainerCount {
		t.Fatalf("len = %d, want <= %d", len(sel), DefaultGainerCount)
	}
	for i, q := range sel {
		if *q.ChangePct <= 0 {
			t.Errorf("%s has non-positive change_pct %v", q.Ticker, *q.ChangePct)
		}
		if i > 0 && *sel[i-1].ChangePct < *q.ChangePct {
			t.Errorf("not descending at %d: %v < %v", i, *sel[i-1].ChangePct, *q.ChangePct)
		}
	}
}

func TestTopGainersDoesNotMutateInput(t *testing.T) {
	in := domain.QuoteSnapshot{
		quote("A", domain.Float(1)),
		quote("B", domain.Float(9)),
	}
	_ = TopGainers(in, 3)
	if in[0].Ticker != "A" || in[1].Ticker != "B" {
		t.Errorf("input reordered: %v", []string{in[0].Ticker, in[1].Ticker})
	}
}
