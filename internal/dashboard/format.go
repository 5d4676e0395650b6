// Package dashboard turns raw quotes into display strings and style classes,
// and derives the top-gainers panel from a snapshot. Everything here is pure.
package dashboard

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"tickerboard/internal/domain"
)

// Placeholder is shown wherever a value is missing.
const Placeholder = "—"

// Delta arrows and style classes.
const (
	ArrowUp   = "▲"
	ArrowDown = "▼"
	ArrowFlat = "•"

	ClassUp   = "up"
	ClassDown = "down"
	ClassFlat = "flat"
)

// Delta is the rendered form of a change/change-percent pair.
type Delta struct {
	Arrow string
	Text  string
	Class string
}

// priceDecimals returns 4 for very large or sub-unit magnitudes, 2 otherwise.
func priceDecimals(v float64) int32 {
	a := math.Abs(v)
	if a >= 1000 || a < 1 {
		return 4
	}
	return 2
}

func fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Placeholder
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

// signed prefixes positive values with "+". Negative values already carry
// their sign and zero gets none.
func signed(v float64, places int32) string {
	s := fixed(v, places)
	if v > 0 && s != Placeholder {
		return "+" + s
	}
	return s
}

// FormatPrice formats a price, or returns the placeholder for nil.
func FormatPrice(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return fixed(*v, priceDecimals(*v))
}

// FormatDelta renders "{arrow} {signed change} ({signed pct}%)". Arrow and
// class follow the sign of change. A nil input yields the placeholder with
// the neutral class.
func FormatDelta(change, pct *float64) Delta {
	if change == nil || pct == nil {
		return Delta{Text: Placeholder, Class: ClassFlat}
	}

	arrow, class := ArrowFlat, ClassFlat
	switch {
	case *change > 0:
		arrow, class = ArrowUp, ClassUp
	case *change < 0:
		arrow, class = ArrowDown, ClassDown
	}

	var b strings.Builder
	b.WriteString(arrow)
	b.WriteByte(' ')
	b.WriteString(signed(*change, priceDecimals(*change)))
	b.WriteString(" (")
	b.WriteString(signed(*pct, 2))
	b.WriteString("%)")

	return Delta{Arrow: arrow, Text: b.String(), Class: class}
}

// FormatGain formats a percentage change as "+X.XX%" for the gainers panel.
func FormatGain(pct *float64) string {
	if pct == nil {
		return Placeholder
	}
	s := signed(*pct, 2)
	if s == Placeholder {
		return Placeholder
	}
	return s + "%"
}

// ---------------------------------------------------------------------------
// Category mapping
// ---------------------------------------------------------------------------

// BaseCategoryClass is applied to every category badge.
const BaseCategoryClass = "cat"

var categoryIcons = map[domain.Category]string{
	domain.CategoryStock:     "📈",
	domain.CategoryIndex:     "📊",
	domain.CategoryCrypto:    "🪙",
	domain.CategoryCommodity: "🛢️",
}

var categoryClasses = map[domain.Category]string{
	domain.CategoryStock:     "cat cat-stock",
	domain.CategoryIndex:     "cat cat-index",
	domain.CategoryCrypto:    "cat cat-crypto",
	domain.CategoryCommodity: "cat cat-commodity",
}

// CategoryIcon returns the badge glyph for c, or "" for unknown categories.
func CategoryIcon(c domain.Category) string {
	return categoryIcons[c]
}

// CategoryClass returns the style class for c, falling back to the base class.
func CategoryClass(c domain.Category) string {
	if cls, ok := categoryClasses[c]; ok {
		return cls
	}
	return BaseCategoryClass
}

// ---------------------------------------------------------------------------
// Currency inference
// ---------------------------------------------------------------------------

// DefaultCurrency is used when no ticker rule matches.
const DefaultCurrency = "USD"

type currencyRule struct {
	suffix   string // matched against the end of the ticker
	contains string // matched anywhere in the ticker
	currency string
}

// Rules are checked in order; the first match wins.
var currencyRules = []currencyRule{
	{suffix: ".LS", currency: "EUR"},
	{suffix: ".PA", currency: "EUR"},
	{suffix: ".AS", currency: "EUR"},
	{suffix: ".DE", currency: "EUR"},
	{suffix: ".L", currency: "GBP"},
	{contains: "-EUR", currency: "EUR"},
	{contains: "-GBP", currency: "GBP"},
	{contains: "-USD", currency: "USD"},
}

// InferCurrency guesses a quote currency from its ticker.
func InferCurrency(ticker string) string {
	t := strings.ToUpper(ticker)
	for _, r := range currencyRules {
		if r.suffix != "" && strings.HasSuffix(t, r.suffix) {
			return r.currency
		}
		if r.contains != "" && strings.Contains(t, r.contains) {
			return r.currency
		}
	}
	return DefaultCurrency
}

// DisplayCurrency returns the quote's own currency when present, otherwise
// the inferred one.
func DisplayCurrency(q domain.Quote) string {
	if q.Currency != nil {
		if c := strings.TrimSpace(*q.Currency); c != "" && c != Placeholder {
			return c
		}
	}
	return InferCurrency(q.Ticker)
}

// SurfaceKey derives the chart surface key for a ticker. Characters other
// than ASCII letters and digits are dropped.
func SurfaceKey(ticker string) string {
	var b strings.Builder
	b.WriteString("chart-")
	for _, r := range ticker {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
