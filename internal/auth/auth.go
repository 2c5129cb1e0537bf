// Package auth handles OTP login, the bearer cookie and the redirect to the
// login page when a page needs a signed-in user.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var (
	ErrNoCredential = errors.New("no credential")
	ErrInvalidToken = errors.New("invalid token")
)

var (
	mobilePattern = regexp.MustCompile(`^9\d{9}$`)
	nonDigits     = regexp.MustCompile(`\D`)
	otpPattern    = regexp.MustCompile(`^\d{4,8}$`)
)

// NormalizeMobile strips everything but digits.
func NormalizeMobile(raw string) string {
	return nonDigits.ReplaceAllString(raw, "")
}

// ValidateMobile accepts ten digits starting with 9, without the leading 0.
func ValidateMobile(mobile string) error {
	if !mobilePattern.MatchString(mobile) {
		return &domain.ValidationError{Field: "mobile", Message: "must be 10 digits starting with 9"}
	}
	return nil
}

func parseOTP(code string) (int, error) {
	code = strings.TrimSpace(code)
	if !otpPattern.MatchString(code) {
		return 0, &domain.ValidationError{Field: "code", Message: "must be 4 to 8 digits"}
	}
	return strconv.Atoi(code)
}

// tokenParser only inspects claims; the backend checks the signature on
// every call.
var tokenParser = jwt.NewParser(jwt.WithJSONNumber(), jwt.WithPaddingAllowed())

// UserID reads the "id" claim of a bearer token.
func UserID(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := tokenParser.ParseUnverified(token, claims); err != nil {
		return "", ErrInvalidToken
	}

	switch id := claims["id"].(type) {
	case string:
		if id != "" {
			return id, nil
		}
	case json.Number:
		return id.String(), nil
	}
	return "", ErrInvalidToken
}

// LoginURL is the login page that returns to returnPath afterwards.
func LoginURL(returnPath string) string {
	return "/auth?redirect=" + url.QueryEscape(SafeReturnPath(returnPath))
}

// SafeReturnPath keeps post-login redirects on this site.
func SafeReturnPath(raw string) string {
	if decoded, err := url.QueryUnescape(raw); err == nil {
		raw = decoded
	}
	if raw == "" {
		return "/"
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}
	return raw
}

type OTPBackend interface {
	SendOTP(ctx context.Context, mobile string) error
	VerifyOTP(ctx context.Context, code int) (string, error)
}

type Service struct {
	backend OTPBackend
}

func NewService(backend OTPBackend) *Service {
	return &Service{backend: backend}
}

// SendOTP validates the mobile number before asking the backend for a code.
func (s *Service) SendOTP(ctx context.Context, rawMobile string) error {
	mobile := NormalizeMobile(rawMobile)
	if err := ValidateMobile(mobile); err != nil {
		return err
	}
	return s.backend.SendOTP(ctx, mobile)
}

// Verify exchanges the code for a bearer token.
func (s *Service) Verify(ctx context.Context, code string) (string, error) {
	n, err := parseOTP(code)
	if err != nil {
		return "", err
	}
	token, err := s.backend.VerifyOTP(ctx, n)
	if err != nil {
		return "", err
	}
	if _, err := UserID(token); err != nil {
		return "", err
	}
	return token, nil
}
