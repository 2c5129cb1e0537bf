package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type basketProduct struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PushBasket adds the local basket lines to the server-side basket.
func (c *Client) PushBasket(ctx context.Context, token string, lines []domain.BasketLine) error {
	products := make([]basketProduct, 0, len(lines))
	for _, l := range lines {
		products = append(products, basketProduct{ProductID: l.ID, Quantity: l.Quantity})
	}
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/card/addToBasket",
		token:  token,
		body:   map[string]any{"products": products},
	}, nil)
}

func (c *Client) Basket(ctx context.Context, token string) (*domain.ServerBasket, error) {
	var b domain.ServerBasket
	if err := c.do(ctx, call{method: http.MethodGet, path: "/card", token: token}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) DeleteBasket(ctx context.Context, token, basketID string) error {
	return c.do(ctx, call{
		method: http.MethodDelete,
		path:   "/card/" + url.PathEscape(basketID),
		token:  token,
	}, nil)
}

func (c *Client) CreateOrder(ctx context.Context, token, addressID string, paymentType domain.PaymentType) (*domain.Order, error) {
	var o domain.Order
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/card/createOrder",
		token:  token,
		body: map[string]string{
			"addressId":   addressID,
			"paymentType": string(paymentType),
		},
	}, &o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) Order(ctx context.Context, token, orderID string) (*domain.Order, error) {
	var o domain.Order
	err := c.do(ctx, call{method: http.MethodGet, path: "/order/" + url.PathEscape(orderID), token: token}, &o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
