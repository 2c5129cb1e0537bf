// Package listing pages through filtered, sorted product listings and keeps
// the accumulated, de-duplicated result for one listing view.
package listing

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// PageSize is the number of products requested per page.
const PageSize = 20

type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortPrice     SortField = "price"
	SortOff       SortField = "off"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Scope selects the product set: a category, a tag or a search term.
type Scope struct {
	CategoryID string `json:"categoryId,omitempty"`
	TagID      string `json:"tagId,omitempty"`
	Search     string `json:"search,omitempty"`
}

type Filters struct {
	IsAvailable    *bool    `json:"isAvailable,omitempty"`
	OnlyDiscounted bool     `json:"onlyDiscounted,omitempty"`
	FastShipping   bool     `json:"fastShipping,omitempty"`
	MinPrice       int64    `json:"minPrice,omitempty"`
	MaxPrice       int64    `json:"maxPrice,omitempty"`
	Color          string   `json:"color,omitempty"`
	Networks       []string `json:"networks,omitempty"`
}

type Sort struct {
	Field     SortField `json:"sortBy"`
	Direction Direction `json:"order"`
}

// Query is everything that defines a listing except the page. Two listings
// with equal queries share pages.
type Query struct {
	Scope   Scope   `json:"scope"`
	Filters Filters `json:"filters"`
	Sort    Sort    `json:"sort"`
}

// Normalize fills in the default sort, newest first.
func (q Query) Normalize() Query {
	if q.Sort.Field == "" {
		q.Sort.Field = SortCreatedAt
	}
	if q.Sort.Direction == "" {
		q.Sort.Direction = Desc
	}
	q.Filters.Networks = slices.DeleteFunc(slices.Clone(q.Filters.Networks), func(s string) bool {
		return strings.TrimSpace(s) == ""
	})
	return q
}

func (q Query) Validate() error {
	switch q.Sort.Field {
	case SortCreatedAt, SortPrice, SortOff:
	default:
		return &domain.ValidationError{Field: "sortBy", Message: fmt.Sprintf("unknown sort field %q", q.Sort.Field)}
	}
	switch q.Sort.Direction {
	case Asc, Desc:
	default:
		return &domain.ValidationError{Field: "order", Message: fmt.Sprintf("unknown direction %q", q.Sort.Direction)}
	}
	if q.Filters.MinPrice < 0 || q.Filters.MaxPrice < 0 {
		return &domain.ValidationError{Field: "price", Message: "price bounds must not be negative"}
	}
	return nil
}

func (q Query) Equal(o Query) bool {
	a, b := q.Filters, o.Filters
	if (a.IsAvailable == nil) != (b.IsAvailable == nil) {
		return false
	}
	if a.IsAvailable != nil && *a.IsAvailable != *b.IsAvailable {
		return false
	}
	return q.Scope == o.Scope &&
		q.Sort == o.Sort &&
		a.OnlyDiscounted == b.OnlyDiscounted &&
		a.FastShipping == b.FastShipping &&
		a.MinPrice == b.MinPrice &&
		a.MaxPrice == b.MaxPrice &&
		a.Color == b.Color &&
		slices.Equal(a.Networks, b.Networks)
}

// Values renders the backend's /product/sort parameters for one page.
func (q Query) Values(page int) url.Values {
	v := url.Values{}
	if q.Scope.CategoryID != "" {
		v.Set("categoryId", q.Scope.CategoryID)
	}
	if q.Scope.TagID != "" {
		v.Set("tagId", q.Scope.TagID)
	}
	if q.Scope.Search != "" {
		v.Set("search", q.Scope.Search)
	}
	v.Set("take", strconv.Itoa(PageSize))
	v.Set("skip", strconv.Itoa((page-1)*PageSize))
	if q.Filters.IsAvailable != nil {
		v.Set("isAvailable", strconv.FormatBool(*q.Filters.IsAvailable))
	}
	if q.Filters.OnlyDiscounted {
		v.Set("onlyDiscounted", "true")
	}
	if q.Filters.FastShipping {
		v.Set("fastShipping", "true")
	}
	if q.Filters.MinPrice > 0 {
		v.Set("minPrice", strconv.FormatInt(q.Filters.MinPrice, 10))
	}
	if q.Filters.MaxPrice > 0 {
		v.Set("maxPrice", strconv.FormatInt(q.Filters.MaxPrice, 10))
	}
	if q.Filters.Color != "" {
		v.Set("color", q.Filters.Color)
	}
	if len(q.Filters.Networks) > 0 {
		v.Set("networks", strings.Join(q.Filters.Networks, ","))
	}
	if q.Sort.Field != "" {
		v.Set("sortBy", string(q.Sort.Field))
	}
	if q.Sort.Direction != "" {
		v.Set("order", string(q.Sort.Direction))
	}
	return v
}

// ParseQuery reads a listing query from storefront request parameters, which
// use the same names as the backend.
func ParseQuery(v url.Values) (Query, error) {
	q := Query{
		Scope: Scope{
			CategoryID: v.Get("categoryId"),
			TagID:      v.Get("tagId"),
			Search:     strings.TrimSpace(v.Get("search")),
		},
		Sort: Sort{
			Field:     SortField(v.Get("sortBy")),
			Direction: Direction(v.Get("order")),
		},
	}

	if s := v.Get("isAvailable"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Query{}, &domain.ValidationError{Field: "isAvailable", Message: "must be true or false"}
		}
		q.Filters.IsAvailable = &b
	}
	var err error
	if q.Filters.OnlyDiscounted, err = parseFlag(v, "onlyDiscounted"); err != nil {
		return Query{}, err
	}
	if q.Filters.FastShipping, err = parseFlag(v, "fastShipping"); err != nil {
		return Query{}, err
	}
	if q.Filters.MinPrice, err = parsePrice(v, "minPrice"); err != nil {
		return Query{}, err
	}
	if q.Filters.MaxPrice, err = parsePrice(v, "maxPrice"); err != nil {
		return Query{}, err
	}
	q.Filters.Color = v.Get("color")
	if s := v.Get("networks"); s != "" {
		q.Filters.Networks = strings.Split(s, ",")
	}

	q = q.Normalize()
	return q, q.Validate()
}

func parseFlag(v url.Values, name string) (bool, error) {
	s := v.Get(name)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, &domain.ValidationError{Field: name, Message: "must be true or false"}
	}
	return b, nil
}

func parsePrice(v url.Values, name string) (int64, error) {
	s := v.Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, &domain.ValidationError{Field: name, Message: "must be a non-negative integer"}
	}
	return n, nil
}
