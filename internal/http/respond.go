package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// handleBackendError maps an error from a service call to a response. A
// missing or rejected credential is never shown inline: the browser goes
// to the login page and comes back to returnPath.
func handleBackendError(w http.ResponseWriter, r *http.Request, returnPath string, err error) {
	if errors.Is(err, backend.ErrUnauthorized) || errors.Is(err, auth.ErrNoCredential) || errors.Is(err, auth.ErrInvalidToken) {
		auth.RedirectToLogin(w, r, returnPath)
		return
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   verr.Message,
			Code:    "validation_error",
			Details: verr.Field,
		})
		return
	}

	var illegal *checkout.IllegalTransitionError
	if errors.As(err, &illegal) {
		respondError(w, http.StatusConflict, "illegal_transition", illegal.Error())
		return
	}

	var remote *backend.RemoteError
	switch {
	case errors.As(err, &remote) && backend.IsNotFound(remote):
		respondError(w, http.StatusNotFound, "not_found", remote.Message)
	case errors.As(err, &remote):
		respondJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   remote.Message,
			Code:    "backend_error",
			Details: http.StatusText(remote.StatusCode),
		})
	case errors.Is(err, backend.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "backend temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "backend did not answer in time")
	default:
		slog.ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		respondError(w, http.StatusBadGateway, "backend_error", "backend request failed")
	}
}
