package supply

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Format renders a supply with thousands separators and no decimals,
// rounding half away from zero: 1500000.5 becomes "1,500,001".
func Format(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
	rounded := decimal.NewFromFloat(value).Round(0)
	if rounded.IsZero() {
		return "0"
	}
	return humanize.Commaf(rounded.InexactFloat64())
}
