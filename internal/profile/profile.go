// Package profile reads and completes the signed-in user's profile.
package profile

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	checkoutReturn = "/checkout?addressAdded=1"
	profileReturn  = "/profile"
)

type Backend interface {
	User(ctx context.Context, token, userID string) (*domain.UserProfile, error)
	CompleteInfo(ctx context.Context, token, userID string, info domain.CompleteInfo) error
	Provinces(ctx context.Context) ([]domain.Province, error)
	Cities(ctx context.Context, provinceID string) ([]domain.City, error)
	MyOrders(ctx context.Context, token string) ([]domain.Order, error)
}

type Service struct {
	backend Backend
	log     *slog.Logger
}

func NewService(backend Backend, log *slog.Logger) *Service {
	return &Service{backend: backend, log: log}
}

func (s *Service) Get(ctx context.Context, cred auth.Credential) (*domain.UserProfile, error) {
	return s.backend.User(ctx, cred.Token, cred.UserID)
}

func (s *Service) Provinces(ctx context.Context) ([]domain.Province, error) {
	return s.backend.Provinces(ctx)
}

func (s *Service) Cities(ctx context.Context, provinceID string) ([]domain.City, error) {
	return s.backend.Cities(ctx, provinceID)
}

func (s *Service) Orders(ctx context.Context, cred auth.Credential) ([]domain.Order, error) {
	orders, err := s.backend.MyOrders(ctx, cred.Token)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// Complete sends the completed profile and returns where the browser goes
// next: back to checkout when it came from there, else the profile page.
func (s *Service) Complete(ctx context.Context, cred auth.Credential, form domain.CompleteInfo, fromCheckout bool) (string, error) {
	form, err := normalize(form)
	if err != nil {
		return "", err
	}
	form.Address = s.fullAddress(ctx, form)

	if err := s.backend.CompleteInfo(ctx, cred.Token, cred.UserID, form); err != nil {
		return "", err
	}
	if fromCheckout {
		return checkoutReturn, nil
	}
	return profileReturn, nil
}

// fullAddress appends the city and province names the way they are printed
// on shipping labels. Unknown names are left out.
func (s *Service) fullAddress(ctx context.Context, form domain.CompleteInfo) string {
	parts := []string{form.Address}

	cities, err := s.backend.Cities(ctx, form.ProvinceID)
	if err != nil {
		s.log.WarnContext(ctx, "city lookup failed", slog.Any("error", err))
	}
	for _, c := range cities {
		if c.ID == form.CityID && c.Name != "" {
			parts = append(parts, c.Name)
			break
		}
	}

	provinces, err := s.backend.Provinces(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "province lookup failed", slog.Any("error", err))
	}
	for _, p := range provinces {
		if p.ID == form.ProvinceID && p.Name != "" {
			parts = append(parts, p.Name)
			break
		}
	}
	return strings.Join(parts, "، ")
}

func normalize(form domain.CompleteInfo) (domain.CompleteInfo, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.LastName = strings.TrimSpace(form.LastName)
	form.Email = strings.TrimSpace(form.Email)
	form.Address = strings.TrimSpace(form.Address)

	required := []struct{ field, value string }{
		{"name", form.Name},
		{"lastName", form.LastName},
		{"address", form.Address},
		{"provinceId", form.ProvinceID},
		{"cityId", form.CityID},
	}
	for _, r := range required {
		if r.value == "" {
			return form, &domain.ValidationError{Field: r.field, Message: "is required"}
		}
	}

	if form.Mobile != "" {
		form.Mobile = auth.NormalizeMobile(form.Mobile)
		if err := auth.ValidateMobile(form.Mobile); err != nil {
			return form, err
		}
	}
	if form.Email != "" && !strings.Contains(form.Email, "@") {
		return form, &domain.ValidationError{Field: "email", Message: "is not an email address"}
	}

	postal := strings.TrimLeft(digits(form.PostalCode), "0")
	if len(postal) == 0 || len(postal) > 10 {
		return form, &domain.ValidationError{Field: "postalCode", Message: "must be up to 10 digits"}
	}
	form.PostalCode = postal
	return form, nil
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
