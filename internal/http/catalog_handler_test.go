package http

import (
	"net/http"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/listing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListing_AccumulatesPages(t *testing.T) {
	app := newTestApp(t, domain.CurrencyToman)

	rec := app.do(t, http.MethodGet, "/api/v1/listing?sortBy=createdAt&order=desc", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[ListingResponseDTO](t, rec)
	assert.Len(t, got.Items, listing.PageSize)
	assert.True(t, got.HasMore)
	assert.Equal(t, 1, got.Page)

	rec = app.do(t, http.MethodPost, "/api/v1/listing/next", nil, false)
	got = decodeBody[ListingResponseDTO](t, rec)
	assert.Len(t, got.Items, 2*listing.PageSize)
	assert.True(t, got.HasMore)

	rec = app.do(t, http.MethodPost, "/api/v1/listing/next", nil, false)
	got = decodeBody[ListingResponseDTO](t, rec)
	assert.Len(t, got.Items, 45)
	assert.False(t, got.HasMore)
	assert.Equal(t, 3, got.Page)

	rec = app.do(t, http.MethodPost, "/api/v1/listing/next", nil, false)
	got = decodeBody[ListingResponseDTO](t, rec)
	assert.Len(t, got.Items, 45)
	assert.Equal(t, 3, got.Page)
}

func TestListing_InvalidSort(t *testing.T) {
	app := newTestApp(t, domain.CurrencyToman)

	rec := app.do(t, http.MethodGet, "/api/v1/listing?sortBy=name", nil, false)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeBody[ErrorResponse](t, rec).Code)
}

func TestListing_FinalPriceInDisplayCurrency(t *testing.T) {
	app := newTestApp(t, domain.CurrencyRial)
	app.fake.products[0].Off = 15
	app.fake.products[0].Price = 10000

	rec := app.do(t, http.MethodGet, "/api/v1/listing", nil, false)

	got := decodeBody[ListingResponseDTO](t, rec)
	assert.Equal(t, int64(100000), got.Items[0].Price)
	assert.Equal(t, int64(85000), got.Items[0].FinalPrice)
}

func TestCategory_SeedsListing(t *testing.T) {
	app := newTestApp(t, domain.CurrencyToman)

	rec := app.do(t, http.MethodGet, "/api/v1/categories/phones", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[CategoryResponseDTO](t, rec)
	assert.Equal(t, "c-1", got.Category.ID)
	assert.Equal(t, "c-1", got.Listing.Query.Scope.CategoryID)
	assert.Len(t, got.Listing.Items, listing.PageSize)

	// scrolling continues the seeded listing
	rec = app.do(t, http.MethodPost, "/api/v1/listing/next", nil, false)
	next := decodeBody[ListingResponseDTO](t, rec)
	assert.Equal(t, 2, next.Page)
	assert.Equal(t, "c-1", next.Query.Scope.CategoryID)
}

func TestCategory_NotFound(t *testing.T) {
	app := newTestApp(t, domain.CurrencyToman)

	rec := app.do(t, http.MethodGet, "/api/v1/categories/nothing", nil, false)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategories_Tree(t *testing.T) {
	app := newTestApp(t, domain.CurrencyToman)

	rec := app.do(t, http.MethodGet, "/api/v1/categories?roots=true", nil, false)

	require.Equal(t, http.StatusOK, rec.Code)
	cats := decodeBody[[]domain.Category](t, rec)
	require.Len(t, cats, 1)
	assert.Equal(t, "/no-category.png", cats[0].ImageURL)
}

func TestSlugRedirect(t *testing.T) {
	app := newTestApp(t, domain.CurrencyToman)

	rec := app.do(t, http.MethodGet, "/product-3", nil, false)
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/product/product-3", rec.Header().Get("Location"))

	rec = app.do(t, http.MethodGet, "/unknown-thing", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_VerifySetsCookieAndRedirects(t *testing.T) {
	app := newTestApp(t, domain.CurrencyToman)

	rec := app.do(t, http.MethodPost, "/api/v1/auth/verify", VerifyOTPRequestDTO{Code: "12345", Redirect: "/checkout"}, false)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/checkout", rec.Header().Get("Location"))
	var token string
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			token = c.Value
		}
	}
	assert.Equal(t, testToken, token)
}

func TestAuth_VerifyRejectsOffsiteRedirect(t *testing.T) {
	app := newTestApp(t, domain.CurrencyToman)

	rec := app.do(t, http.MethodPost, "/api/v1/auth/verify", VerifyOTPRequestDTO{Code: "12345", Redirect: "//evil.example"}, false)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestAuth_InvalidMobile(t *testing.T) {
	app := newTestApp(t, domain.CurrencyToman)

	rec := app.do(t, http.MethodPost, "/api/v1/auth/otp", SendOTPRequestDTO{Mobile: "12345"}, false)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
