package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

func (c *Client) InitiatePayment(ctx context.Context, token, orderID, callbackURL string) (*domain.PaymentInitiation, error) {
	var p domain.PaymentInitiation
	err := c.do(ctx, call{
		method: http.MethodPost,
		path:   "/payments/initiate",
		token:  token,
		body: map[string]string{
			"orderId":     orderID,
			"callbackUrl": callbackURL,
		},
	}, &p)
	if err != nil {
		return nil, err
	}
	if !p.Success || p.PaymentURL == "" {
		return nil, &RemoteError{StatusCode: http.StatusBadGateway, Message: p.Message}
	}
	return &p, nil
}

// VerifyPayment asks the backend to settle a gateway authority. An
// unsuccessful verification is a result, not an error.
func (c *Client) VerifyPayment(ctx context.Context, token, authority string) (*domain.PaymentVerification, error) {
	var v domain.PaymentVerification
	err := c.do(ctx, call{
		method: http.MethodGet,
		path:   "/payments/verify",
		query:  url.Values{"authority": {authority}},
		token:  token,
	}, &v)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
