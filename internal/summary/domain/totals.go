package domain

import (
	cartdomain "github.com/dwikikusuma/marketplace-cart/internal/cart/domain"
	"github.com/shopspring/decimal"
)

type Totals struct {
	Price    decimal.Decimal
	Quantity int
}

// Compute sums price × quantity and quantity over items. Both are zero for an
// empty cart.
func Compute(items []cartdomain.LineItem) Totals {
	total := decimal.Zero
	qty := 0
	for _, it := range items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(line)
		qty += it.Quantity
	}
	return Totals{Price: total, Quantity: qty}
}
