package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckout_RequiresLogin(t *testing.T) {
	app := newTestApp(t, domain.CurrencyToman)

	rec := app.do(t, http.MethodGet, "/api/v1/checkout", nil, false)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth?redirect=%2Fcheckout", rec.Header().Get("Location"))
}

func TestCheckout_ZeroAddressesRedirectsToProfile(t *testing.T) {
	app := newTestApp(t, domain.CurrencyToman)
	app.fake.addresses = nil

	rec := app.do(t, http.MethodGet, "/api/v1/checkout", nil, true)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/complete-info?fromCheckout=1", rec.Header().Get("Location"))

	rec = app.do(t, http.MethodPost, "/api/v1/checkout/orders", SubmitOrderRequestDTO{AddressID: "a-1", PaymentType: "ONLINE"}, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Zero(t, app.fake.orders)
}

func TestCheckout_ShowsSummaryInDisplayCurrency(t *testing.T) {
	app := newTestApp(t, domain.CurrencyRial)

	rec := app.do(t, http.MethodGet, "/api/v1/checkout", nil, true)

	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[checkout.View](t, rec)
	assert.Equal(t, "awaiting_address_selection", view.State)
	assert.Equal(t, "a-1", view.SelectedAddressID)
	require.NotNil(t, view.Totals)
	assert.Equal(t, int64(40000), view.Totals.Total)
	assert.Equal(t, int64(20000), view.Items[0].Product.Price)
}

func TestCheckout_EmptyAddressIsRejected(t *testing.T) {
	app := newTestApp(t, domain.CurrencyToman)
	app.do(t, http.MethodGet, "/api/v1/checkout", nil, true)

	rec := app.do(t, http.MethodPost, "/api/v1/checkout/orders", SubmitOrderRequestDTO{PaymentType: "ONLINE"}, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", resp.Code)
	assert.Equal(t, "addressId", resp.Details)
	assert.Zero(t, app.fake.orders)
}

func TestCheckout_OnlinePaymentFlow(t *testing.T) {
	app := newTestApp(t, domain.CurrencyToman)
	ctx := context.Background()
	require.NoError(t, app.baskets.For(testProfile).Add(ctx, domain.ProductRef{ID: "p-09", Price: 1}))

	rec := app.do(t, http.MethodGet, "/api/v1/checkout", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/v1/checkout/orders", SubmitOrderRequestDTO{AddressID: "a-1", PaymentType: "ONLINE"}, true)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://gateway.example/StartPay/A1", rec.Header().Get("Location"))

	rec = app.do(t, http.MethodGet, "/api/v1/checkout/callback?Authority=A1&Status=OK", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[checkout.View](t, rec)
	assert.Equal(t, "success", view.State)
	assert.Equal(t, "R-77", view.RefID)
	require.NotNil(t, view.Order)
	assert.Equal(t, "o-1", view.Order.ID)
	assert.Empty(t, app.baskets.For(testProfile).All(ctx))

	// the gateway or the user repeats the return
	rec = app.do(t, http.MethodGet, "/api/v1/checkout/callback?Authority=A1&Status=OK", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", decodeBody[checkout.View](t, rec).State)
	assert.Equal(t, 1, app.fake.verifies)
}

func TestCheckout_CallbackCancelled(t *testing.T) {
	app := newTestApp(t, domain.CurrencyToman)

	rec := app.do(t, http.MethodGet, "/api/v1/checkout/callback?Authority=A1&Status=NOK", nil, true)

	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[checkout.View](t, rec)
	assert.Equal(t, "failed", view.State)
	assert.NotEmpty(t, view.Error)
	assert.Zero(t, app.fake.verifies)
}

func TestCheckout_CallbackWithoutLoginReturnsToCallback(t *testing.T) {
	app := newTestApp(t, domain.CurrencyToman)

	rec := app.do(t, http.MethodGet, "/api/v1/checkout/callback?Authority=A1&Status=OK", nil, false)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth?redirect=%2Fapi%2Fv1%2Fcheckout%2Fcallback%3FAuthority%3DA1%26Status%3DOK", rec.Header().Get("Location"))
}

func TestCheckout_BankTransfer(t *testing.T) {
	app := newTestApp(t, domain.CurrencyToman)
	app.do(t, http.MethodGet, "/api/v1/checkout", nil, true)

	rec := app.do(t, http.MethodPost, "/api/v1/checkout/orders", SubmitOrderRequestDTO{AddressID: "a-1", PaymentType: "BANK_TRANSFER"}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "awaiting_manual_confirmation", decodeBody[checkout.View](t, rec).State)

	rec = app.do(t, http.MethodPost, "/api/v1/checkout/confirm-transfer", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[checkout.View](t, rec)
	assert.Equal(t, "success", view.State)
	assert.Equal(t, domain.PaymentBankTransfer, view.PaymentType)
}

func TestCheckout_UnknownPaymentType(t *testing.T) {
	app := newTestApp(t, domain.CurrencyToman)
	app.do(t, http.MethodGet, "/api/v1/checkout", nil, true)

	rec := app.do(t, http.MethodPost, "/api/v1/checkout/orders", SubmitOrderRequestDTO{AddressID: "a-1", PaymentType: "CRYPTO"}, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, app.fake.orders)
}
