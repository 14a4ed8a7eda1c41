// Package invoice builds the printable invoice from a cart snapshot.
// It reads the snapshot and the pricing functions only; it never
// mutates the cart.
package invoice

import (
	"strconv"
	"strings"
	"time"

	"github.com/DavidEng0805/web-final-re-exam/internal/domain"
	"github.com/DavidEng0805/web-final-re-exam/internal/pricing"
)

const (
	StoreName    = "BaychaStore"
	StoreAddress = "123 Main Street, Phnom Penh, Cambodia"
	StorePhone   = "+855 12 345 678"
	StoreEmail   = "info@baychastore.com"
)

// Line is one invoice row. KHR values are rounded from this line's own
// USD amounts, independently of the invoice's grand total.
type Line struct {
	Title        string  `json:"title"`
	Qty          int     `json:"qty"`
	UnitPriceUSD float64 `json:"unit_price_usd"`
	UnitPriceKHR int64   `json:"unit_price_khr"`
	SubtotalUSD  float64 `json:"subtotal_usd"`
	SubtotalKHR  int64   `json:"subtotal_khr"`
}

type Invoice struct {
	Number     int64     `json:"number"`
	Store      string    `json:"store"`
	Address    string    `json:"address"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	IssuedAt   time.Time `json:"issued_at"`
	Lines      []Line    `json:"lines"`
	TotalItems int       `json:"total_items"`
	TotalUSD   float64   `json:"total_usd"`
	TotalKHR   int64     `json:"total_khr"`
}

// Build computes an invoice for the given snapshot, issued at the given
// time. The invoice number is the issue timestamp in milliseconds.
func Build(snap domain.Snapshot, issuedAt time.Time) Invoice {
	lines := make([]Line, len(snap))
	for i, item := range snap {
		lines[i] = Line{
			Title:        item.Title,
			Qty:          item.Qty,
			UnitPriceUSD: item.Price,
			UnitPriceKHR: pricing.UnitPriceKHR(item.Product),
			SubtotalUSD:  pricing.LineTotalUSD(item),
			SubtotalKHR:  pricing.LineTotalKHR(item),
		}
	}

	return Invoice{
		Number:     issuedAt.UnixMilli(),
		Store:      StoreName,
		Address:    StoreAddress,
		Phone:      StorePhone,
		Email:      StoreEmail,
		IssuedAt:   issuedAt,
		Lines:      lines,
		TotalItems: pricing.TotalItems(snap),
		TotalUSD:   pricing.TotalUSD(snap),
		TotalKHR:   pricing.TotalKHR(snap),
	}
}

// FormatKHR renders a riel amount with thousands separators, e.g.
// 184500 -> "184,500".
func FormatKHR(v int64) string {
	s := strconv.FormatInt(v, 10)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
		if len(s) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}
