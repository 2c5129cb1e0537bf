// Package catalog serves the category tree, tags, sale products and
// slug lookups that surround product listings.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"golang.org/x/sync/singleflight"
)

const noCategoryImage = "/no-category.png"

type Backend interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	CategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	TagBySlug(ctx context.Context, slug string) (*domain.Tag, error)
	SortProducts(ctx context.Context, params url.Values) ([]domain.Product, error)
}

// CategoryPage is a category with its breadcrumb, root first.
type CategoryPage struct {
	Category domain.Category   `json:"category"`
	Path     []domain.Category `json:"path"`
}

type Service struct {
	backend        Backend
	cache          TreeCache
	sfg            singleflight.Group
	mediaBaseURL   string
	saleCategoryID string
	log            *slog.Logger
}

func NewService(backend Backend, cache TreeCache, mediaBaseURL, saleCategoryID string, log *slog.Logger) *Service {
	return &Service{
		backend:        backend,
		cache:          cache,
		mediaBaseURL:   strings.TrimRight(mediaBaseURL, "/"),
		saleCategoryID: saleCategoryID,
		log:            log,
	}
}

// Tree returns the category forest, read through the cache. Concurrent
// misses share one backend call.
func (s *Service) Tree(ctx context.Context) ([]domain.Category, error) {
	v, err, _ := s.sfg.Do(treeKey, func() (interface{}, error) {
		tree, err := s.cache.Get(ctx)
		if err == nil {
			return tree, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.log.WarnContext(ctx, "category cache get failed", slog.Any("error", err))
		}

		tree, err = s.backend.Categories(ctx)
		if err != nil {
			return nil, err
		}
		tree = s.withImages(tree)

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.Set(ctx, tree); err != nil {
				s.log.Warn("category cache set failed", slog.Any("error", err))
			}
		}()
		return tree, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Category), nil
}

// Roots returns only the top-level categories.
func (s *Service) Roots(ctx context.Context) ([]domain.Category, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	return Roots(tree), nil
}

// BySlug resolves a category and its breadcrumb.
func (s *Service) BySlug(ctx context.Context, slug string) (*CategoryPage, error) {
	cat, err := s.backend.CategoryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	page := &CategoryPage{Category: s.withImage(*cat), Path: []domain.Category{*cat}}
	tree, err := s.Tree(ctx)
	if err != nil {
		// the breadcrumb is cosmetic; serve the category without it
		s.log.WarnContext(ctx, "category tree unavailable for breadcrumb", slog.Any("error", err))
		return page, nil
	}
	page.Path = Path(Flatten(tree), *cat)
	return page, nil
}

func (s *Service) Tag(ctx context.Context, slug string) (*domain.Tag, error) {
	return s.backend.TagBySlug(ctx, slug)
}

// SaleProducts lists the products of the sale category. A failure yields an
// empty list so the home page still renders.
func (s *Service) SaleProducts(ctx context.Context) []domain.Product {
	if s.saleCategoryID == "" {
		return []domain.Product{}
	}
	products, err := s.backend.SortProducts(ctx, url.Values{"categoryId": {s.saleCategoryID}})
	if err != nil {
		s.log.WarnContext(ctx, "sale products unavailable", slog.Any("error", err))
		return []domain.Product{}
	}
	return products
}

// IsProductSlug reports whether slug names a product.
func (s *Service) IsProductSlug(ctx context.Context, slug string) (bool, error) {
	products, err := s.backend.SortProducts(ctx, url.Values{"slug": {slug}})
	if err != nil {
		return false, err
	}
	return len(products) > 0, nil
}

func (s *Service) withImages(cats []domain.Category) []domain.Category {
	out := make([]domain.Category, len(cats))
	for i, c := range cats {
		out[i] = s.withImage(c)
	}
	return out
}

func (s *Service) withImage(c domain.Category) domain.Category {
	if c.ImageURL == "" {
		c.ImageURL = noCategoryImage
		if len(c.MediaOnCat) > 0 && c.MediaOnCat[0].Media.URL != "" {
			c.ImageURL = s.mediaBaseURL + "/media/" + c.MediaOnCat[0].Media.URL
		}
	}
	c.MediaOnCat = nil
	if len(c.Children) > 0 {
		c.Children = s.withImages(c.Children)
	}
	return c
}
