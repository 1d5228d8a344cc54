package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Estimate is an informational subtotal for a set of cart lines.
type Estimate struct {
	Subtotal decimal.Decimal
	// Unpriced lists ids whose price text is not a number. They are left out
	// of Subtotal.
	Unpriced []string
}

// EstimateTotal sums price * quantity over items. Prices are free text
// supplied by the catalog, so values that do not parse are reported instead
// of failing the whole estimate.
func EstimateTotal(items []Item) Estimate {
	est := Estimate{Subtotal: decimal.Zero}
	for _, item := range items {
		price, err := decimal.NewFromString(normalizePrice(item.Price))
		if err != nil {
			est.Unpriced = append(est.Unpriced, item.ID)
			continue
		}
		line := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		est.Subtotal = est.Subtotal.Add(line)
	}
	est.Subtotal = est.Subtotal.Round(2)
	return est
}

// normalizePrice strips digit grouping spaces and accepts a decimal comma,
// e.g. "1 500,50" becomes "1500.50".
func normalizePrice(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "", "\u00a0", "").Replace(s)
	return strings.Replace(s, ",", ".", 1)
}
