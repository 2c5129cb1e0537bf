package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, logger.Discard())
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":    success,
		"statusCode": status,
		"message":    message,
		"data":       data,
	})
}

func TestClient_SortProducts(t *testing.T) {
	var gotQuery url.Values
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/product/sort", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		gotQuery = r.URL.Query()
		writeEnvelope(w, http.StatusOK, true, "", []map[string]any{
			{"id": "p1", "name": "Phone", "price": 10000, "off": 15},
		})
	})

	products, err := client.SortProducts(context.Background(), url.Values{"categoryId": {"c1"}, "take": {"20"}})

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(8500), products[0].FinalPrice())
	assert.Equal(t, "c1", gotQuery.Get("categoryId"))
}

func TestClient_SendsBearerAndBody(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"addressId": "a1", "paymentType": "ONLINE"}, body)
		writeEnvelope(w, http.StatusCreated, true, "", map[string]any{"id": "o1", "orderNumber": "1001", "totalAmount": 5000})
	})

	order, err := client.CreateOrder(context.Background(), "tok-1", "a1", domain.PaymentOnline)

	require.NoError(t, err)
	assert.Equal(t, "o1", order.ID)
	assert.Equal(t, int64(5000), order.TotalAmount)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		checkErr func(t *testing.T, err error)
	}{
		{
			name: "401 is unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			checkErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnauthorized)
			},
		},
		{
			name: "envelope with 401 status is unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "statusCode": 401, "message": "expired"})
			},
			checkErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnauthorized)
			},
		},
		{
			name: "non-2xx carries message",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusNotFound, false, "no such user", nil)
			},
			checkErr: func(t *testing.T, err error) {
				var re *RemoteError
				require.ErrorAs(t, err, &re)
				assert.Equal(t, http.StatusNotFound, re.StatusCode)
				assert.Equal(t, "no such user", re.Message)
				assert.True(t, IsNotFound(err))
			},
		},
		{
			name: "success false on 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusOK, false, "address is not yours", nil)
			},
			checkErr: func(t *testing.T, err error) {
				var re *RemoteError
				require.ErrorAs(t, err, &re)
				assert.Equal(t, "address is not yours", re.Message)
			},
		},
		{
			name: "plain text 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, "boom")
			},
			checkErr: func(t *testing.T, err error) {
				var re *RemoteError
				require.ErrorAs(t, err, &re)
				assert.Equal(t, http.StatusInternalServerError, re.StatusCode)
				assert.Empty(t, re.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupTestServer(t, tt.handler)

			_, err := client.User(context.Background(), "tok", "u1")

			require.Error(t, err)
			tt.checkErr(t, err)
		})
	}
}

func TestClient_BareObjectWithoutEnvelope(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "u7", "userName": "sara"})
	})

	who, err := client.WhoAmI(context.Background(), "tok")

	require.NoError(t, err)
	assert.Equal(t, "u7", who.ID)
	assert.Equal(t, "sara", who.UserName)
}

func TestClient_CircuitBreaker(t *testing.T) {
	t.Run("opens after repeated server errors", func(t *testing.T) {
		var hits atomic.Int32
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		for i := 0; i < 5; i++ {
			_, err := client.Provinces(context.Background())
			require.Error(t, err)
		}
		_, err := client.Provinces(context.Background())

		assert.ErrorIs(t, err, ErrUnavailable)
		assert.Equal(t, int32(5), hits.Load())
	})

	t.Run("client errors do not trip", func(t *testing.T) {
		var hits atomic.Int32
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			writeEnvelope(w, http.StatusBadRequest, false, "bad", nil)
		})

		for i := 0; i < 10; i++ {
			_, err := client.Provinces(context.Background())
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrUnavailable))
		}
		assert.Equal(t, int32(10), hits.Load())
	})
}

func TestClient_PushBasket(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/card/addToBasket", r.URL.Path)
		var body struct {
			Products []struct {
				ProductID string `json:"productId"`
				Quantity  int    `json:"quantity"`
			} `json:"products"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Products, 2)
		assert.Equal(t, "A", body.Products[0].ProductID)
		assert.Equal(t, 3, body.Products[0].Quantity)
		writeEnvelope(w, http.StatusOK, true, "", nil)
	})

	err := client.PushBasket(context.Background(), "tok", []domain.BasketLine{
		{ID: "A", Price: 1, Quantity: 3},
		{ID: "B", Price: 2, Quantity: 1},
	})

	assert.NoError(t, err)
}

func TestClient_BasketAndPayments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /card", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, "", map[string]any{
			"id": "b1",
			"basket_item": []map[string]any{
				{"id": "i1", "productId": "p1", "quantity": 2, "product": map[string]any{"id": "p1", "name": "x", "price": 1000, "finalPrice": 900}},
			},
		})
	})
	mux.HandleFunc("POST /payments/initiate", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, "", map[string]any{"success": true, "paymentUrl": "https://gw/pay/A1", "authority": "A1"})
	})
	mux.HandleFunc("GET /payments/verify", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "A1", r.URL.Query().Get("authority"))
		writeEnvelope(w, http.StatusOK, true, "", map[string]any{"success": true, "refId": "R9", "orderId": "o1"})
	})
	mux.HandleFunc("DELETE /card/b1", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, "", nil)
	})
	client := setupTestServer(t, mux.ServeHTTP)
	ctx := context.Background()

	b, err := client.Basket(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)
	assert.Equal(t, domain.BasketTotals{Total: 1800, Discount: 200}, b.Totals())

	p, err := client.InitiatePayment(ctx, "tok", "o1", "https://shop/checkout/callback")
	require.NoError(t, err)
	assert.Equal(t, "A1", p.Authority)

	v, err := client.VerifyPayment(ctx, "tok", "A1")
	require.NoError(t, err)
	assert.True(t, v.Success)
	assert.Equal(t, "R9", v.RefID)

	assert.NoError(t, client.DeleteBasket(ctx, "tok", "b1"))
}

func TestClient_InitiatePaymentWithoutURL(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, "gateway down", map[string]any{"success": false, "message": "gateway down"})
	})

	_, err := client.InitiatePayment(context.Background(), "tok", "o1", "cb")

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "gateway down", re.Message)
}

func TestClient_VerifyOTP(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 12345, body["code"])
		writeEnvelope(w, http.StatusOK, true, "", map[string]any{"user": map[string]string{"token": "jwt"}})
	})

	token, err := client.VerifyOTP(context.Background(), 12345)

	require.NoError(t, err)
	assert.Equal(t, "jwt", token)
}

func TestClient_Comments(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/comment/getcomment/p1", r.URL.Path)
		writeEnvelope(w, http.StatusOK, true, "", []map[string]any{
			{
				"id": "c1", "userId": "u1", "comment": "great", "star": 5,
				"User":           map[string]string{"id": "u1", "userName": "ali"},
				"replay_comment": []map[string]any{{"id": "r1", "userId": "u2", "comment": "agreed"}},
			},
		})
	})

	records, err := client.Comments(context.Background(), "p1")

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ali", records[0].User.UserName)
	require.Len(t, records[0].Replies, 1)
	assert.Equal(t, "agreed", records[0].Replies[0].Comment)
}
