package page

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"
)

// Estimator approximates the laid-out width of a fragment: every text cell
// costs CharPx and every element carrying ItemClass adds ItemGapPx.
type Estimator struct {
	CharPx    float64
	ItemGapPx float64
	ItemClass string
}

// DefaultEstimator matches the stock ticker stylesheet.
var DefaultEstimator = Estimator{CharPx: 8, ItemGapPx: 48, ItemClass: "item"}

// Measure returns the estimated width in pixels.
func (e Estimator) Measure(fragment string) float64 {
	var cells, items int
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return float64(cells)*e.CharPx + float64(items)*e.ItemGapPx
		case html.TextToken:
			text := strings.Join(strings.Fields(string(z.Text())), " ")
			cells += runewidth.StringWidth(text)
		case html.StartTagToken, html.SelfClosingTagToken:
			if e.ItemClass != "" && hasClass(z, e.ItemClass) {
				items++
			}
		}
	}
}

func hasClass(z *html.Tokenizer, class string) bool {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "class" {
			for _, c := range strings.Fields(string(val)) {
				if c == class {
					return true
				}
			}
		}
		if !more {
			return false
		}
	}
}

// surfaceKeys lists the data-surface attributes found in a fragment, in
// document order.
func surfaceKeys(fragment string) []string {
	var keys []string
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return keys
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		_, hasAttr := z.TagName()
		for hasAttr {
			var key, val []byte
			key, val, hasAttr = z.TagAttr()
			if string(key) == "data-surface" && len(val) > 0 {
				keys = append(keys, string(val))
			}
		}
	}
}
