// Package pricing derives monetary totals from a cart snapshot. All
// functions are pure: no state, no mutation, no failure modes; an empty
// snapshot yields zero totals.
//
// Riel amounts are converted at a fixed rate and rounded to the nearest
// 100 KHR (the riel has no subunit in common use). Per-line KHR values
// and the grand-total KHR are each rounded from their own USD amounts,
// so the sum of the rounded lines can disagree with the rounded total
// by a few hundred riel. Invoices render both as-is.
package pricing

import (
	"math"

	"github.com/DavidEng0805/web-final-re-exam/internal/domain"
)

// KHRPerUSD is the fixed exchange rate applied to all conversions.
const KHRPerUSD = 4100

// Riel amounts are rounded to the nearest multiple of this.
const khrRoundingUnit = 100

// TotalUSD is the unrounded sum of price x qty over all line items.
func TotalUSD(snap domain.Snapshot) float64 {
	var sum float64
	for _, item := range snap {
		sum += item.Price * float64(item.Qty)
	}
	return sum
}

// TotalItems is the sum of quantities over all line items.
func TotalItems(snap domain.Snapshot) int {
	var count int
	for _, item := range snap {
		count += item.Qty
	}
	return count
}

// TotalKHR converts the USD total at the fixed rate and rounds once.
func TotalKHR(snap domain.Snapshot) int64 {
	return ToKHR(TotalUSD(snap))
}

// LineTotalUSD is the USD subtotal of a single line item.
func LineTotalUSD(item domain.LineItem) float64 {
	return item.Price * float64(item.Qty)
}

// LineTotalKHR rounds the line's own USD subtotal, independently of the
// grand total.
func LineTotalKHR(item domain.LineItem) int64 {
	return ToKHR(LineTotalUSD(item))
}

// UnitPriceKHR is the rounded riel equivalent of a single unit's price.
func UnitPriceKHR(p domain.Product) int64 {
	return ToKHR(p.Price)
}

// ToKHR converts a USD amount at the fixed rate and rounds the result
// to the nearest 100 riel, half away from zero. Rounding is applied
// after conversion, never before.
func ToKHR(usd float64) int64 {
	return int64(math.Round(usd*KHRPerUSD/khrRoundingUnit)) * khrRoundingUnit
}
