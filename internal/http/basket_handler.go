package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/basket"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

const eventsHeartbeat = 25 * time.Second

type BasketHandler struct {
	baskets  *basket.Baskets
	hub      *basket.Hub
	pusher   basket.Pusher
	currency domain.Currency
	timeout  time.Duration
	log      *slog.Logger
}

func NewBasketHandler(baskets *basket.Baskets, hub *basket.Hub, pusher basket.Pusher, currency domain.Currency, timeout time.Duration, log *slog.Logger) *BasketHandler {
	return &BasketHandler{
		baskets:  baskets,
		hub:      hub,
		pusher:   pusher,
		currency: currency,
		timeout:  timeout,
		log:      log,
	}
}

// AddItemRequestDTO carries the price as the client displayed it, in the
// configured display currency.
type AddItemRequestDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type UpdateQuantityRequestDTO struct {
	Delta int `json:"delta"`
}

type BasketResponseDTO struct {
	Items      []domain.BasketLine `json:"items"`
	TotalValue int64               `json:"totalValue"`
	TotalCount int                 `json:"totalCount"`
}

func (h *BasketHandler) respondBasket(w http.ResponseWriter, r *http.Request, status int) {
	lines := h.baskets.For(getProfileID(r.Context())).All(r.Context())
	respondJSON(w, status, BasketResponseDTO{
		Items:      displayLines(h.currency, lines),
		TotalValue: h.currency.DisplayPrice(basket.TotalValue(lines)),
		TotalCount: basket.TotalCount(lines),
	})
}

// GET /api/v1/basket
func (h *BasketHandler) GetBasket(w http.ResponseWriter, r *http.Request) {
	h.respondBasket(w, r, http.StatusOK)
}

// POST /api/v1/basket/items
func (h *BasketHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Price < 0 {
		respondError(w, http.StatusBadRequest, "invalid_price", "price must not be negative")
		return
	}

	price, err := h.currency.StoredPrice(req.Price)
	if err != nil {
		h.basketError(w, r, err)
		return
	}

	ref := domain.ProductRef{ID: strings.TrimSpace(req.ID), Name: req.Name, Price: price}
	if err := h.baskets.For(getProfileID(r.Context())).Add(r.Context(), ref); err != nil {
		h.basketError(w, r, err)
		return
	}
	h.respondBasket(w, r, http.StatusCreated)
}

// PATCH /api/v1/basket/items/{id}
func (h *BasketHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.baskets.For(getProfileID(r.Context())).SetQuantity(r.Context(), id, req.Delta); err != nil {
		h.basketError(w, r, err)
		return
	}
	h.respondBasket(w, r, http.StatusOK)
}

// DELETE /api/v1/basket/items/{id}
func (h *BasketHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.baskets.For(getProfileID(r.Context())).Remove(r.Context(), id); err != nil {
		h.basketError(w, r, err)
		return
	}
	h.respondBasket(w, r, http.StatusOK)
}

// DELETE /api/v1/basket
func (h *BasketHandler) ClearBasket(w http.ResponseWriter, r *http.Request) {
	if err := h.baskets.For(getProfileID(r.Context())).Clear(r.Context()); err != nil {
		h.basketError(w, r, err)
		return
	}
	h.respondBasket(w, r, http.StatusOK)
}

// POST /api/v1/basket/sync hands the basket to the backend and continues to
// checkout.
func (h *BasketHandler) Sync(w http.ResponseWriter, r *http.Request) {
	cred, err := auth.FromContext(r.Context())
	if err != nil {
		auth.RedirectToLogin(w, r, "/cart")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	err = h.baskets.For(getProfileID(r.Context())).Sync(ctx, cred.Token, h.pusher)
	switch {
	case errors.Is(err, basket.ErrEmptyBasket):
		respondError(w, http.StatusBadRequest, "empty_basket", "basket is empty")
	case err != nil:
		handleBackendError(w, r, "/cart", err)
	default:
		http.Redirect(w, r, "/checkout", http.StatusSeeOther)
	}
}

// GET /api/v1/basket/events streams a hint whenever the basket changes. The
// event carries no data; clients re-read GET /api/v1/basket.
func (h *BasketHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming not supported")
		return
	}

	changed := make(chan struct{}, 1)
	unsubscribe := h.hub.Subscribe(getProfileID(r.Context()), func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(eventsHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-changed:
			fmt.Fprint(w, "event: basket-changed\ndata: {}\n\n")
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
		}
		flusher.Flush()
	}
}

func (h *BasketHandler) basketError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		handleBackendError(w, r, "/cart", err)
		return
	}
	h.log.ErrorContext(r.Context(), "basket write failed", slog.Any("error", err))
	respondError(w, http.StatusServiceUnavailable, "basket_unavailable", "basket could not be saved")
}
