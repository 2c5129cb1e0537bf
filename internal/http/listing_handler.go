package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/listing"
	"github.com/fjod/go_cart/storefront/internal/session"
)

// ListingHandler serves the infinite-scroll product list of a browser
// profile. Each profile has one listing view at a time.
type ListingHandler struct {
	sessions *session.Registry[*listing.Controller]
	source   listing.ProductSource
	currency domain.Currency
	timeout  time.Duration
}

func NewListingHandler(sessions *session.Registry[*listing.Controller], source listing.ProductSource, currency domain.Currency, timeout time.Duration) *ListingHandler {
	return &ListingHandler{
		sessions: sessions,
		source:   source,
		currency: currency,
		timeout:  timeout,
	}
}

type ListingResponseDTO struct {
	Query   listing.Query `json:"query"`
	Items   []productView `json:"items"`
	HasMore bool          `json:"hasMore"`
	Page    int           `json:"page"`
	Loading bool          `json:"loading"`
}

func (h *ListingHandler) toDTO(res listing.Result) ListingResponseDTO {
	return ListingResponseDTO{
		Query:   res.Query,
		Items:   displayProducts(h.currency, res.Items),
		HasMore: res.HasMore,
		Page:    res.Page,
		Loading: res.Loading,
	}
}

// GET /api/v1/listing
func (h *ListingHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	q, err := listing.ParseQuery(r.URL.Query())
	if err != nil {
		handleBackendError(w, r, "/", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.sessions.Get(getProfileID(r.Context())).SetQuery(ctx, q)
	h.respondListing(w, r, res, err)
}

// POST /api/v1/listing/next
func (h *ListingHandler) Next(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	res, err := h.sessions.Get(getProfileID(r.Context())).Advance(ctx)
	h.respondListing(w, r, res, err)
}

// seed renders the first page of q ahead of time and installs it as the
// profile's listing, so the page and the following scroll share state.
func (h *ListingHandler) seed(ctx context.Context, profileID string, q listing.Query) (ListingResponseDTO, error) {
	page, err := h.source.Fetch(ctx, q.Normalize(), 1)
	if err != nil {
		return ListingResponseDTO{}, err
	}
	return h.toDTO(h.sessions.Get(profileID).Seed(q, page.Items)), nil
}

func (h *ListingHandler) respondListing(w http.ResponseWriter, r *http.Request, res listing.Result, err error) {
	// a newer query owns the listing now; answer with its state
	if err != nil && !errors.Is(err, listing.ErrSuperseded) {
		handleBackendError(w, r, "/", err)
		return
	}
	respondJSON(w, http.StatusOK, h.toDTO(res))
}
