package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountedPrice(t *testing.T) {
	tests := []struct {
		name  string
		price int64
		off   int64
		want  int64
	}{
		{"fifteen percent", 10000, 15, 8500},
		{"no discount", 10000, 0, 10000},
		{"floors the discount", 999, 33, 999 - 329},
		{"full discount", 500, 100, 0},
		{"negative off ignored", 700, -5, 700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DiscountedPrice(tt.price, tt.off))
		})
	}
}

func TestProduct_FinalPrice(t *testing.T) {
	p := Product{ID: "p1", Name: "Kettle", Price: 10000, Off: 15}
	assert.Equal(t, int64(8500), p.FinalPrice())
	assert.Equal(t, ProductRef{ID: "p1", Name: "Kettle", Price: 8500}, p.Ref())
}

func TestCurrency_DisplayPrice(t *testing.T) {
	toman, err := ParseCurrency("toman")
	require.NoError(t, err)
	rial, err := ParseCurrency("rial")
	require.NoError(t, err)

	assert.Equal(t, int64(8500), toman.DisplayPrice(8500))
	assert.Equal(t, int64(85000), rial.DisplayPrice(8500))

	def, err := ParseCurrency("")
	require.NoError(t, err)
	assert.Equal(t, CurrencyToman, def)

	_, err = ParseCurrency("usd")
	assert.Error(t, err)
}

func TestCurrency_StoredPrice(t *testing.T) {
	got, err := CurrencyToman.StoredPrice(8501)
	require.NoError(t, err)
	assert.Equal(t, int64(8501), got)

	got, err = CurrencyRial.StoredPrice(85000)
	require.NoError(t, err)
	assert.Equal(t, int64(8500), got)
	assert.Equal(t, int64(85000), CurrencyRial.DisplayPrice(got))

	_, err = CurrencyRial.StoredPrice(85005)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "price", ve.Field)
}

func TestServerBasket_Totals(t *testing.T) {
	final := int64(900)
	b := ServerBasket{
		ID: "b1",
		Items: []ServerBasketItem{
			{ID: "i1", ProductID: "p1", Quantity: 2, Product: BasketProduct{ID: "p1", Price: 1000, FinalPrice: &final}},
			{ID: "i2", ProductID: "p2", Quantity: 1, Product: BasketProduct{ID: "p2", Price: 500}},
		},
	}

	totals := b.Totals()
	assert.Equal(t, int64(2300), totals.Total)
	assert.Equal(t, int64(200), totals.Discount)
}

func TestParsePaymentType(t *testing.T) {
	pt, err := ParsePaymentType("BANK_TRANSFER")
	require.NoError(t, err)
	assert.Equal(t, PaymentBankTransfer, pt)

	pt, err = ParsePaymentType("")
	require.NoError(t, err)
	assert.Equal(t, PaymentOnline, pt)

	_, err = ParsePaymentType("CRYPTO")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "paymentType", verr.Field)
}
