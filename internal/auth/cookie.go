package auth

import (
	"context"
	"net/http"
	"strings"
	"time"
)

const (
	TokenCookie = "token"
	TokenTTL    = 7 * 24 * time.Hour
)

func SetTokenCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(TokenTTL),
		MaxAge:   int(TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearTokenCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest reads the bearer from the cookie, falling back to the
// Authorization header.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// Credential is the signed-in user of a request.
type Credential struct {
	Token  string
	UserID string
}

type credentialKey struct{}

func WithCredential(ctx context.Context, c Credential) context.Context {
	return context.WithValue(ctx, credentialKey{}, c)
}

func FromContext(ctx context.Context) (Credential, error) {
	c, ok := ctx.Value(credentialKey{}).(Credential)
	if !ok || c.Token == "" {
		return Credential{}, ErrNoCredential
	}
	return c, nil
}

// Middleware attaches the request's credential when there is a readable one.
// Pages that require it check with FromContext.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token != "" {
			if id, err := UserID(token); err == nil {
				r = r.WithContext(WithCredential(r.Context(), Credential{Token: token, UserID: id}))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RedirectToLogin sends the browser to the login page with a way back.
func RedirectToLogin(w http.ResponseWriter, r *http.Request, returnPath string) {
	http.Redirect(w, r, LoginURL(returnPath), http.StatusSeeOther)
}
