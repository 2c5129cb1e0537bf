package http

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	ProfileCookie  = "sf_profile"
	profileTTL     = 365 * 24 * time.Hour
	requestIDLimit = 128
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	profileIDKey
)

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" || len(requestID) > requestIDLimit {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// ProfileMiddleware identifies the browser profile by a long-lived cookie,
// issuing one on first visit. The basket and the per-profile sessions hang
// off this id.
func ProfileMiddleware(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var profileID string
			if c, err := r.Cookie(ProfileCookie); err == nil {
				if id, err := uuid.Parse(c.Value); err == nil {
					profileID = id.String()
				}
			}
			if profileID == "" {
				profileID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     ProfileCookie,
					Value:    profileID,
					Path:     "/",
					MaxAge:   int(profileTTL.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), profileIDKey, profileID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getProfileID(ctx context.Context) string {
	if id, ok := ctx.Value(profileIDKey).(string); ok {
		return id
	}
	return ""
}

// ProductSlugChecker answers whether a bare path segment is a product slug.
type ProductSlugChecker interface {
	IsProductSlug(ctx context.Context, slug string) (bool, error)
}

var slugPattern = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N}_-]*$`)

// SlugRedirectMiddleware sends /{slug} to /product/{slug} when slug names a
// product. Anything else, or a failed lookup, falls through.
func SlugRedirectMiddleware(checker ProductSlugChecker, timeout time.Duration, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slug, ok := bareSlug(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			isProduct, err := checker.IsProductSlug(ctx, slug)
			if err != nil {
				log.WarnContext(r.Context(), "product slug lookup failed", slog.String("slug", slug), slog.Any("error", err))
			}
			if isProduct {
				http.Redirect(w, r, "/product/"+slug, http.StatusMovedPermanently)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bareSlug(r *http.Request) (string, bool) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return "", false
	}
	path := strings.Trim(r.URL.Path, "/")
	if path == "" || strings.Contains(path, "/") {
		return "", false
	}
	switch path {
	case "health", "api", "auth", "checkout", "complete-info", "profile", "product", "category", "tag", "cart":
		return "", false
	}
	if !slugPattern.MatchString(path) {
		return "", false
	}
	return path, true
}
