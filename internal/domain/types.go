// Package domain defines the core value types shared by the widget pipeline:
// quotes, quote snapshots, intraday series, and the derived gainer selection.
package domain

// Category classifies an instrument for display purposes.
type Category string

// Known instrument categories. Other values may arrive from the backend and
// are carried through unchanged.
const (
	CategoryStock     Category = "STOCK"
	CategoryIndex     Category = "INDEX"
	CategoryCrypto    Category = "CRYPTO"
	CategoryCommodity Category = "COMMODITY"
)

// Categories lists the known categories in display order.
var Categories = []Category{CategoryStock, CategoryIndex, CategoryCrypto, CategoryCommodity}

// Quote is one instrument's latest price/change snapshot. Nullable fields
// are pointers; nil means the backend had no value.
type Quote struct {
	Ticker    string   `json:"ticker"`
	Name      string   `json:"name"`
	Category  Category `json:"category"`
	Price     *float64 `json:"price"`
	Currency  *string  `json:"currency"`
	Change    *float64 `json:"change"`
	ChangePct *float64 `json:"change_pct"`
}

// QuoteSnapshot is the ordered result of one quotes fetch. Order is display
// order.
type QuoteSnapshot []Quote

// QuotesResponse is the wire shape of GET /api/quotes.
type QuotesResponse struct {
	AsOf  string        `json:"asof,omitempty"`
	Items QuoteSnapshot `json:"items"`
}

// IntradaySeries is a same-day price series for one ticker. OK is false when
// the backend reports no usable series.
type IntradaySeries struct {
	OK     bool      `json:"ok"`
	Labels []string  `json:"labels"`
	Prices []float64 `json:"prices"`
	Msg    string    `json:"msg,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// Plottable reports whether the series can be drawn as a line.
func (s IntradaySeries) Plottable() bool {
	return s.OK && len(s.Prices) >= 2
}

// GainerSelection is the derived top-movers subset of a snapshot.
type GainerSelection []Quote

// Float returns a pointer to v, for building quotes in code.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }
