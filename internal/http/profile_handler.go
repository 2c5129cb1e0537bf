package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/profile"
)

type ProfileHandler struct {
	profiles *profile.Service
	currency domain.Currency
	timeout  time.Duration
}

func NewProfileHandler(svc *profile.Service, currency domain.Currency, timeout time.Duration) *ProfileHandler {
	return &ProfileHandler{
		profiles: svc,
		currency: currency,
		timeout:  timeout,
	}
}

// GET /api/v1/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	cred, err := auth.FromContext(r.Context())
	if err != nil {
		auth.RedirectToLogin(w, r, "/profile")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, err := h.profiles.Get(ctx, cred)
	if err != nil {
		handleBackendError(w, r, "/profile", err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// PUT /api/v1/profile completes the profile. With fromCheckout=1 the browser
// is sent back to checkout.
func (h *ProfileHandler) CompleteProfile(w http.ResponseWriter, r *http.Request) {
	fromCheckout, _ := strconv.ParseBool(r.URL.Query().Get("fromCheckout"))
	returnPath := "/complete-info"
	if fromCheckout {
		returnPath = "/complete-info?fromCheckout=1"
	}

	cred, err := auth.FromContext(r.Context())
	if err != nil {
		auth.RedirectToLogin(w, r, returnPath)
		return
	}

	var form domain.CompleteInfo
	if !decodeJSON(w, r, &form) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	next, err := h.profiles.Complete(ctx, cred, form, fromCheckout)
	if err != nil {
		handleBackendError(w, r, returnPath, err)
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// GET /api/v1/provinces
func (h *ProfileHandler) GetProvinces(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	provinces, err := h.profiles.Provinces(ctx)
	if err != nil {
		handleBackendError(w, r, "/complete-info", err)
		return
	}
	respondJSON(w, http.StatusOK, provinces)
}

// GET /api/v1/cities
func (h *ProfileHandler) GetCities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cities, err := h.profiles.Cities(ctx, r.URL.Query().Get("provinceId"))
	if err != nil {
		handleBackendError(w, r, "/complete-info", err)
		return
	}
	respondJSON(w, http.StatusOK, cities)
}

// GET /api/v1/orders
func (h *ProfileHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	cred, err := auth.FromContext(r.Context())
	if err != nil {
		auth.RedirectToLogin(w, r, "/profile")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.profiles.Orders(ctx, cred)
	if err != nil {
		handleBackendError(w, r, "/profile", err)
		return
	}
	respondJSON(w, http.StatusOK, displayOrders(h.currency, orders))
}
