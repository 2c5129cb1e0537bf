package listing

import (
	"cmp"
	"context"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Page is one fetched slice of a listing.
type Page struct {
	Items   []domain.Product
	HasMore bool
}

// ProductSource produces the products of a listing page by page.
type ProductSource interface {
	Fetch(ctx context.Context, q Query, page int) (Page, error)
}

// Sorter is the backend's paged product search.
type Sorter interface {
	SortProducts(ctx context.Context, params url.Values) ([]domain.Product, error)
}

// RemoteSource asks the backend for every page. Identical concurrent page
// requests from different viewers share one backend call.
type RemoteSource struct {
	backend Sorter
	sf      singleflight.Group
}

func NewRemoteSource(backend Sorter) *RemoteSource {
	return &RemoteSource{backend: backend}
}

func (r *RemoteSource) Fetch(ctx context.Context, q Query, page int) (Page, error) {
	if page < 1 {
		page = 1
	}
	params := q.Values(page)

	v, err, _ := r.sf.Do(params.Encode(), func() (interface{}, error) {
		return r.backend.SortProducts(ctx, params)
	})
	if err != nil {
		return Page{}, fmt.Errorf("fetch listing page %d: %w", page, err)
	}

	items := slices.Clone(v.([]domain.Product))
	return Page{Items: items, HasMore: len(items) == PageSize}, nil
}

// MemorySource filters and sorts a product list that was fetched up front.
// Everything arrives on the first page. Fast shipping, color and network
// filters are not applied in this mode.
type MemorySource struct {
	products []domain.Product
}

func NewMemorySource(products []domain.Product) *MemorySource {
	return &MemorySource{products: slices.Clone(products)}
}

func (m *MemorySource) Fetch(_ context.Context, q Query, page int) (Page, error) {
	if page > 1 {
		return Page{}, nil
	}

	f := q.Filters
	items := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		if f.IsAvailable != nil && p.IsAvailable != *f.IsAvailable {
			continue
		}
		if f.OnlyDiscounted && p.Off <= 0 {
			continue
		}
		if f.MinPrice > 0 && p.Price < f.MinPrice {
			continue
		}
		if f.MaxPrice > 0 && p.Price > f.MaxPrice {
			continue
		}
		items = append(items, p)
	}

	if q.Sort.Field != "" {
		slices.SortStableFunc(items, func(a, b domain.Product) int {
			c := compareBy(q.Sort.Field, a, b)
			if q.Sort.Direction == Desc {
				return -c
			}
			return c
		})
	}
	return Page{Items: items, HasMore: false}, nil
}

func compareBy(field SortField, a, b domain.Product) int {
	switch field {
	case SortPrice:
		return cmp.Compare(a.Price, b.Price)
	case SortOff:
		return cmp.Compare(a.Off, b.Off)
	default:
		return compareCreated(a.CreatedAt, b.CreatedAt)
	}
}

// compareCreated orders RFC 3339 timestamps by instant and falls back to
// plain string order for anything else.
func compareCreated(a, b string) int {
	ta, errA := time.Parse(time.RFC3339Nano, a)
	tb, errB := time.Parse(time.RFC3339Nano, b)
	if errA == nil && errB == nil {
		return ta.Compare(tb)
	}
	return cmp.Compare(a, b)
}
