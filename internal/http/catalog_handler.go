package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/listing"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	catalog  *catalog.Service
	listings *ListingHandler
	currency domain.Currency
	timeout  time.Duration
}

func NewCatalogHandler(svc *catalog.Service, listings *ListingHandler, currency domain.Currency, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		catalog:  svc,
		listings: listings,
		currency: currency,
		timeout:  timeout,
	}
}

type CategoryResponseDTO struct {
	Category   domain.Category    `json:"category"`
	Breadcrumb []domain.Category  `json:"breadcrumb"`
	Listing    ListingResponseDTO `json:"listing"`
}

type TagResponseDTO struct {
	Tag     domain.Tag         `json:"tag"`
	Listing ListingResponseDTO `json:"listing"`
}

// GET /api/v1/categories
func (h *CatalogHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	roots, _ := strconv.ParseBool(r.URL.Query().Get("roots"))

	var (
		cats []domain.Category
		err  error
	)
	if roots {
		cats, err = h.catalog.Roots(ctx)
	} else {
		cats, err = h.catalog.Tree(ctx)
	}
	if err != nil {
		handleBackendError(w, r, "/", err)
		return
	}
	respondJSON(w, http.StatusOK, cats)
}

// GET /api/v1/categories/{slug}
func (h *CatalogHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	q, err := listing.ParseQuery(r.URL.Query())
	if err != nil {
		handleBackendError(w, r, "/", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err := h.catalog.BySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		handleBackendError(w, r, "/", err)
		return
	}

	q.Scope = listing.Scope{CategoryID: page.Category.ID}
	products, err := h.listings.seed(ctx, getProfileID(r.Context()), q)
	if err != nil {
		handleBackendError(w, r, "/", err)
		return
	}

	respondJSON(w, http.StatusOK, CategoryResponseDTO{
		Category:   page.Category,
		Breadcrumb: page.Path,
		Listing:    products,
	})
}

// GET /api/v1/tags/{slug}
func (h *CatalogHandler) GetTag(w http.ResponseWriter, r *http.Request) {
	q, err := listing.ParseQuery(r.URL.Query())
	if err != nil {
		handleBackendError(w, r, "/", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	tag, err := h.catalog.Tag(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		handleBackendError(w, r, "/", err)
		return
	}

	q.Scope = listing.Scope{TagID: tag.ID}
	products, err := h.listings.seed(ctx, getProfileID(r.Context()), q)
	if err != nil {
		handleBackendError(w, r, "/", err)
		return
	}

	respondJSON(w, http.StatusOK, TagResponseDTO{Tag: *tag, Listing: products})
}

// GET /api/v1/products/sale filters and sorts the sale products in memory;
// the whole set is fetched at once.
func (h *CatalogHandler) GetSaleProducts(w http.ResponseWriter, r *http.Request) {
	q, err := listing.ParseQuery(r.URL.Query())
	if err != nil {
		handleBackendError(w, r, "/", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err := listing.NewMemorySource(h.catalog.SaleProducts(ctx)).Fetch(ctx, q, 1)
	if err != nil {
		handleBackendError(w, r, "/", err)
		return
	}

	respondJSON(w, http.StatusOK, ListingResponseDTO{
		Query:   q,
		Items:   displayProducts(h.currency, page.Items),
		HasMore: page.HasMore,
		Page:    1,
	})
}
