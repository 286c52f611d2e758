package app

import (
	"context"
	"fmt"

	cartdomain "github.com/dwikikusuma/marketplace-cart/internal/cart/domain"
	"github.com/dwikikusuma/marketplace-cart/internal/summary/domain"
	"github.com/shopspring/decimal"
)

// CartScreen is the screen token the OpenCart action navigates to.
const CartScreen = "Cart"

const DefaultUnitLabel = "itens"

type Formatter interface {
	Currency(amount decimal.Decimal) string
}

type Navigator interface {
	Navigate(ctx context.Context, screen string) error
}

// View is what the floating cart shows.
type View struct {
	TotalPrice    string `json:"total_price"`
	TotalAmount   string `json:"total_amount"`
	TotalQuantity int    `json:"total_quantity"`
	QuantityLabel string `json:"quantity_label"`
}

type Presenter struct {
	format Formatter
	nav    Navigator
	unit   string
}

func NewPresenter(format Formatter, nav Navigator, unit string) *Presenter {
	if unit == "" {
		unit = DefaultUnitLabel
	}
	return &Presenter{format: format, nav: nav, unit: unit}
}

func (p *Presenter) Render(items []cartdomain.LineItem) View {
	t := domain.Compute(items)
	return View{
		TotalPrice:    p.format.Currency(t.Price),
		TotalAmount:   t.Price.StringFixed(2),
		TotalQuantity: t.Quantity,
		QuantityLabel: fmt.Sprintf("%d %s", t.Quantity, p.unit),
	}
}

// OpenCart triggers navigation to the cart detail screen.
func (p *Presenter) OpenCart(ctx context.Context) error {
	if p.nav == nil {
		return fmt.Errorf("open cart: no navigator configured")
	}
	return p.nav.Navigate(ctx, CartScreen)
}

// Watch renders every snapshot from feed until feed closes or ctx is done.
func (p *Presenter) Watch(ctx context.Context, feed <-chan []cartdomain.LineItem) <-chan View {
	out := make(chan View)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case items, ok := <-feed:
				if !ok {
					return
				}
				select {
				case out <- p.Render(items):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
