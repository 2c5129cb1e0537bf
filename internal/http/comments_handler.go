package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/comments"
	"github.com/go-chi/chi/v5"
)

type CommentsHandler struct {
	comments *comments.Service
	timeout  time.Duration
}

func NewCommentsHandler(svc *comments.Service, timeout time.Duration) *CommentsHandler {
	return &CommentsHandler{comments: svc, timeout: timeout}
}

type CommentRequestDTO struct {
	ProductID string `json:"productId"`
	Comment   string `json:"comment"`
	Star      int    `json:"star"`
}

// GET /api/v1/products/{id}/comments
func (h *CommentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var viewerID string
	if cred, err := auth.FromContext(r.Context()); err == nil {
		viewerID = cred.UserID
	}

	thread, err := h.comments.List(ctx, chi.URLParam(r, "id"), viewerID)
	if err != nil {
		handleBackendError(w, r, "/", err)
		return
	}
	respondJSON(w, http.StatusOK, thread)
}

// POST /api/v1/products/{id}/comments
func (h *CommentsHandler) Save(w http.ResponseWriter, r *http.Request) {
	cred, ok := h.credential(w, r)
	if !ok {
		return
	}
	var req CommentRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.comments.Save(ctx, cred, chi.URLParam(r, "id"), req.Comment, req.Star); err != nil {
		handleBackendError(w, r, "/", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// PUT /api/v1/comments/{id}
func (h *CommentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	cred, ok := h.credential(w, r)
	if !ok {
		return
	}
	var req CommentRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.comments.Update(ctx, cred, chi.URLParam(r, "id"), req.ProductID, req.Comment, req.Star); err != nil {
		handleBackendError(w, r, "/", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /api/v1/comments/{id}
func (h *CommentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	cred, ok := h.credential(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.comments.Delete(ctx, cred, chi.URLParam(r, "id")); err != nil {
		handleBackendError(w, r, "/", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/comments/{id}/replies
func (h *CommentsHandler) Reply(w http.ResponseWriter, r *http.Request) {
	cred, ok := h.credential(w, r)
	if !ok {
		return
	}
	var req CommentRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.comments.Reply(ctx, cred, chi.URLParam(r, "id"), req.Comment); err != nil {
		handleBackendError(w, r, "/", err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *CommentsHandler) credential(w http.ResponseWriter, r *http.Request) (auth.Credential, bool) {
	cred, err := auth.FromContext(r.Context())
	if err != nil {
		auth.RedirectToLogin(w, r, auth.SafeReturnPath(r.Header.Get("X-Return-Path")))
		return auth.Credential{}, false
	}
	return cred, true
}
