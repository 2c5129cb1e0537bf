package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
)

const checkoutReturn = "/checkout"

type CheckoutHandler struct {
	sessions *session.Registry[*checkout.Orchestrator]
	currency domain.Currency
	timeout  time.Duration
}

func NewCheckoutHandler(sessions *session.Registry[*checkout.Orchestrator], currency domain.Currency, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: sessions,
		currency: currency,
		timeout:  timeout,
	}
}

type SelectAddressRequestDTO struct {
	AddressID string `json:"addressId"`
}

type SubmitOrderRequestDTO struct {
	AddressID   string `json:"addressId"`
	PaymentType string `json:"paymentType"`
}

func (h *CheckoutHandler) orchestrator(r *http.Request) *checkout.Orchestrator {
	return h.sessions.Get(getProfileID(r.Context()))
}

// GET /api/v1/checkout starts, or restarts, the checkout.
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o := h.orchestrator(r)
	state, err := o.Start(ctx, auth.TokenFromRequest(r))
	h.respond(w, r, o, state, err, checkoutReturn)
}

// POST /api/v1/checkout/address
func (h *CheckoutHandler) SelectAddress(w http.ResponseWriter, r *http.Request) {
	var req SelectAddressRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	o := h.orchestrator(r)
	state, err := o.SelectAddress(req.AddressID)
	h.respond(w, r, o, state, err, checkoutReturn)
}

// POST /api/v1/checkout/orders
func (h *CheckoutHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	paymentType, err := domain.ParsePaymentType(req.PaymentType)
	if err != nil {
		handleBackendError(w, r, checkoutReturn, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o := h.orchestrator(r)
	state, err := o.Submit(ctx, auth.TokenFromRequest(r), req.AddressID, paymentType)
	if online, ok := state.(checkout.AwaitingOnlinePayment); ok && err == nil {
		http.Redirect(w, r, online.PaymentURL, http.StatusSeeOther)
		return
	}
	h.respond(w, r, o, state, err, checkoutReturn)
}

// POST /api/v1/checkout/confirm-transfer
func (h *CheckoutHandler) ConfirmTransfer(w http.ResponseWriter, r *http.Request) {
	o := h.orchestrator(r)
	state, err := o.ConfirmTransfer(r.Context())
	h.respond(w, r, o, state, err, checkoutReturn)
}

// DELETE /api/v1/checkout/basket?confirm=true
func (h *CheckoutHandler) DeleteBasket(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o := h.orchestrator(r)
	state, err := o.DeleteBasket(ctx, auth.TokenFromRequest(r), confirmed)
	if errors.Is(err, checkout.ErrNoBasket) {
		respondError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	h.respond(w, r, o, state, err, checkoutReturn)
}

// GET /api/v1/checkout/callback is where the payment gateway returns the
// browser, with Authority and Status query parameters.
func (h *CheckoutHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	o := h.orchestrator(r)
	state, err := o.HandleCallback(ctx, auth.TokenFromRequest(r), q.Get("Authority"), q.Get("Status"))
	h.respond(w, r, o, state, err, r.URL.RequestURI())
}

func (h *CheckoutHandler) respond(w http.ResponseWriter, r *http.Request, o *checkout.Orchestrator, state checkout.State, err error, returnPath string) {
	switch st := state.(type) {
	case checkout.Unauthenticated:
		auth.RedirectToLogin(w, r, returnPath)
		return
	case checkout.ProfileIncomplete:
		http.Redirect(w, r, st.RedirectURL, http.StatusSeeOther)
		return
	}

	// a failed payment is a result to show, not a request error
	if err != nil && !errors.Is(err, checkout.ErrPaymentFailed) {
		handleBackendError(w, r, returnPath, err)
		return
	}
	respondJSON(w, http.StatusOK, displayCheckout(h.currency, o.View()))
}
