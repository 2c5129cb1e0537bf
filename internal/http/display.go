package http

import (
	"slices"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Prices are toman everywhere inside the service. These helpers are the only
// place the configured display currency is applied.

type productView struct {
	domain.Product
	Price      int64 `json:"price"`
	FinalPrice int64 `json:"finalPrice"`
}

func displayProducts(c domain.Currency, products []domain.Product) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, productView{
			Product:    p,
			Price:      c.DisplayPrice(p.Price),
			FinalPrice: c.DisplayPrice(p.FinalPrice()),
		})
	}
	return out
}

func displayLines(c domain.Currency, lines []domain.BasketLine) []domain.BasketLine {
	out := slices.Clone(lines)
	if out == nil {
		out = []domain.BasketLine{}
	}
	for i := range out {
		out[i].Price = c.DisplayPrice(out[i].Price)
	}
	return out
}

func displayOrder(c domain.Currency, o *domain.Order) *domain.Order {
	if o == nil {
		return nil
	}
	out := *o
	out.TotalAmount = c.DisplayPrice(o.TotalAmount)
	out.Items = slices.Clone(o.Items)
	for i := range out.Items {
		out.Items[i].Price = c.DisplayPrice(out.Items[i].Price)
		out.Items[i].Discount = c.DisplayPrice(out.Items[i].Discount)
	}
	return &out
}

func displayOrders(c domain.Currency, orders []domain.Order) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for i := range orders {
		out = append(out, *displayOrder(c, &orders[i]))
	}
	return out
}

func displayCheckout(c domain.Currency, v checkout.View) checkout.View {
	if v.Totals != nil {
		totals := domain.BasketTotals{
			Total:    c.DisplayPrice(v.Totals.Total),
			Discount: c.DisplayPrice(v.Totals.Discount),
		}
		v.Totals = &totals
	}
	v.Items = slices.Clone(v.Items)
	for i := range v.Items {
		p := &v.Items[i].Product
		p.Price = c.DisplayPrice(p.Price)
		if p.FinalPrice != nil {
			final := c.DisplayPrice(*p.FinalPrice)
			p.FinalPrice = &final
		}
	}
	v.Order = displayOrder(c, v.Order)
	return v
}
