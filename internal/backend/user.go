package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

func (c *Client) User(ctx context.Context, token, userID string) (*domain.UserProfile, error) {
	var u domain.UserProfile
	err := c.do(ctx, call{method: http.MethodGet, path: "/user/" + url.PathEscape(userID), token: token}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) CompleteInfo(ctx context.Context, token, userID string, info domain.CompleteInfo) error {
	return c.do(ctx, call{
		method: http.MethodPut,
		path:   "/user/complateInfo/" + url.PathEscape(userID),
		token:  token,
		body:   info,
	}, nil)
}

func (c *Client) Provinces(ctx context.Context) ([]domain.Province, error) {
	var out []domain.Province
	if err := c.do(ctx, call{method: http.MethodGet, path: "/user/getProvince"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Cities lists the cities of a province, or every city when provinceID is empty.
func (c *Client) Cities(ctx context.Context, provinceID string) ([]domain.City, error) {
	cl := call{method: http.MethodGet, path: "/user/getCity"}
	if provinceID != "" {
		cl.query = url.Values{"provinceId": {provinceID}}
	}
	var out []domain.City
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MyOrders(ctx context.Context, token string) ([]domain.Order, error) {
	var out []domain.Order
	if err := c.do(ctx, call{method: http.MethodGet, path: "/card/myOrders", token: token}, &out); err != nil {
		return nil, err
	}
	return out, nil
}
