package dashboard

import (
	"math"
	"sort"

	"tickerboard/internal/domain"
)

// DefaultGainerCount is the size of the top-gainers panel.
const DefaultGainerCount = 3

// TopGainers returns up to n quotes with a positive change percentage,
// highest first. Ties keep snapshot order. n <= 0 means DefaultGainerCount.
func TopGainers(snapshot domain.QuoteSnapshot, n int) domain.GainerSelection {
	if n <= 0 {
		n = DefaultGainerCount
	}

	sel := make(domain.GainerSelection, 0, len(snapshot))
	for _, q := range snapshot {
		if q.ChangePct == nil || math.IsNaN(*q.ChangePct) || *q.ChangePct <= 0 {
			continue
		}
		sel = append(sel, q)
	}

	sort.SliceStable(sel, func(i, j int) bool {
		return *sel[i].ChangePct > *sel[j].ChangePct
	})

	if len(sel) > n {
		sel = sel[:n]
	}
	return sel
}
