package invoice

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Totals summarises the monetary values of an invoice. Totals are derived from
// the current items and VAT rate and are never persisted.
type Totals struct {
	Subtotal  float64 `json:"subtotal"`
	VATAmount float64 `json:"vatAmount"`
	Total     float64 `json:"total"`
}

// LineAmount returns quantity multiplied by rate. Non-finite inputs count as zero.
func LineAmount(quantity, rate float64) float64 {
	return toDecimal(quantity).Mul(toDecimal(rate)).InexactFloat64()
}

// ParseNumber converts raw form input into a non-negative number. Empty,
// non-numeric and negative input yields zero so editing is never blocked.
func ParseNumber(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return 0
	}
	return d.InexactFloat64()
}

// Aggregate computes subtotal, VAT and total for the given items. Amounts are
// summed without intermediate rounding.
func Aggregate(items LineItems, vatRate float64) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(toDecimal(item.Amount))
	}
	vat := subtotal.Mul(toDecimal(vatRate))
	return Totals{
		Subtotal:  subtotal.InexactFloat64(),
		VATAmount: vat.InexactFloat64(),
		Total:     subtotal.Add(vat).InexactFloat64(),
	}
}

// FormatMoney renders a value with two decimal places for presentation.
func FormatMoney(v float64) string {
	return toDecimal(v).StringFixed(2)
}

// FormatPercent renders a fractional rate as a percentage label, e.g. 0.05 -> "5".
func FormatPercent(rate float64) string {
	return toDecimal(rate).Mul(decimal.NewFromInt(100)).String()
}

func toDecimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
