package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// SortProducts is the backend's paged, filtered product search.
func (c *Client) SortProducts(ctx context.Context, params url.Values) ([]domain.Product, error) {
	var products []domain.Product
	err := c.do(ctx, call{method: http.MethodGet, path: "/product/sort", query: params}, &products)
	if err != nil {
		return nil, err
	}
	return products, nil
}

// Categories returns the category forest, roots with nested children.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var cats []domain.Category
	if err := c.do(ctx, call{method: http.MethodGet, path: "/category"}, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (c *Client) CategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var cat domain.Category
	err := c.do(ctx, call{method: http.MethodGet, path: "/category/slug/" + url.PathEscape(slug)}, &cat)
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Client) TagBySlug(ctx context.Context, slug string) (*domain.Tag, error) {
	var tag domain.Tag
	err := c.do(ctx, call{method: http.MethodGet, path: "/tag/" + url.PathEscape(slug)}, &tag)
	if err != nil {
		return nil, err
	}
	return &tag, nil
}
