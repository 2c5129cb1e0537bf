package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/auth"
)

type AuthHandler struct {
	auth         *auth.Service
	cookieSecure bool
	timeout      time.Duration
}

func NewAuthHandler(svc *auth.Service, cookieSecure bool, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		auth:         svc,
		cookieSecure: cookieSecure,
		timeout:      timeout,
	}
}

type SendOTPRequestDTO struct {
	Mobile string `json:"mobile"`
}

type VerifyOTPRequestDTO struct {
	Code     string `json:"code"`
	Redirect string `json:"redirect"`
}

// POST /api/v1/auth/otp
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req SendOTPRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.auth.SendOTP(ctx, req.Mobile); err != nil {
		handleBackendError(w, r, "/auth", err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// POST /api/v1/auth/verify sets the bearer cookie and sends the browser back
// where it came from.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token, err := h.auth.Verify(ctx, req.Code)
	if err != nil {
		handleBackendError(w, r, "/auth", err)
		return
	}

	auth.SetTokenCookie(w, token, h.cookieSecure)
	http.Redirect(w, r, auth.SafeReturnPath(req.Redirect), http.StatusSeeOther)
}

// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w, h.cookieSecure)
	w.WriteHeader(http.StatusNoContent)
}
