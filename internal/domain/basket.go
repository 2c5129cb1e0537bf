package domain

// BasketLine is one product in the browser-local basket.
// The json tags are the persisted format and must not change.
type BasketLine struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// ProductRef is what an "add to cart" action carries.
type ProductRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// ServerBasket is the basket held by the backend after sync.
type ServerBasket struct {
	ID    string             `json:"id"`
	Items []ServerBasketItem `json:"basket_item"`
}

type ServerBasketItem struct {
	ID        string        `json:"id"`
	ProductID string        `json:"productId"`
	Quantity  int           `json:"quantity"`
	Product   BasketProduct `json:"product"`
}

type BasketProduct struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"`
	FinalPrice *int64 `json:"finalPrice,omitempty"`
}

// EffectivePrice falls back to the list price when the backend omitted finalPrice.
func (p BasketProduct) EffectivePrice() int64 {
	if p.FinalPrice != nil {
		return *p.FinalPrice
	}
	return p.Price
}

// Totals of a server basket as shown on the checkout summary.
type BasketTotals struct {
	Total    int64 `json:"total"`
	Discount int64 `json:"discount"`
}

func (b ServerBasket) Totals() BasketTotals {
	var t BasketTotals
	for _, item := range b.Items {
		qty := int64(item.Quantity)
		if qty < 1 {
			qty = 1
		}
		final := item.Product.EffectivePrice()
		t.Total += final * qty
		t.Discount += (item.Product.Price - final) * qty
	}
	return t
}
