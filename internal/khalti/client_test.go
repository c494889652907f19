package khalti

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SiddharthaDhakal2/Agri-Backend/internal/models"
)

func testOrder() *models.Order {
	return &models.Order{
		ID:            42,
		UserID:        1,
		Total:         125.50,
		CustomerName:  "Asha",
		CustomerEmail: "asha@example.com",
		Phone:         "9800000000",
	}
}

func TestInitiateBuildsGatewayRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/initiate/", r.URL.Path)
		require.Equal(t, "Key secret-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"pidx":        "pidx-abc",
			"payment_url": "https://pay.example/pidx-abc",
		})
	}))
	defer srv.Close()

	c := NewClient(Config{
		SecretKey:  "secret-key",
		BaseURL:    srv.URL,
		ReturnURL:  "https://shop.example/payment/return",
		WebsiteURL: "https://shop.example",
	})

	res, err := c.Initiate(context.Background(), testOrder())
	require.NoError(t, err)
	require.Equal(t, "pidx-abc", res.Pidx)
	require.Equal(t, "https://pay.example/pidx-abc", res.PaymentURL)

	// amount in paisa
	require.Equal(t, float64(12550), got["amount"])
	require.Equal(t, "42", got["purchase_order_id"])
	require.Equal(t, "Order-42", got["purchase_order_name"])
	require.Equal(t, "https://shop.example/payment/return?orderId=42", got["return_url"])
	require.Equal(t, "https://shop.example", got["website_url"])

	customer, ok := got["customer_info"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Asha", customer["name"])
	require.Equal(t, "asha@example.com", customer["email"])
	require.Equal(t, "9800000000", customer["phone"])
}

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/lookup/", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "pidx-abc", body["pidx"])

		json.NewEncoder(w).Encode(map[string]string{
			"status":            "Completed",
			"transaction_id":    "txn-7",
			"purchase_order_id": "42",
		})
	}))
	defer srv.Close()

	c := NewClient(Config{SecretKey: "secret-key", BaseURL: srv.URL, ReturnURL: "https://shop.example/r"})

	res, err := c.Lookup(context.Background(), "pidx-abc")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, res.Status)
	require.Equal(t, "txn-7", res.TransactionID)
	require.Equal(t, "42", res.PurchaseOrderID)
}

func TestGatewayErrorCarriesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Amount too low"})
	}))
	defer srv.Close()

	c := NewClient(Config{SecretKey: "secret-key", BaseURL: srv.URL, ReturnURL: "https://shop.example/r"})

	_, err := c.Lookup(context.Background(), "pidx-abc")
	var gw *GatewayError
	require.ErrorAs(t, err, &gw)
	require.Equal(t, http.StatusBadRequest, gw.StatusCode)
	require.Equal(t, "Amount too low", gw.Detail)
}

func TestUnreachableGateway(t *testing.T) {
	c := NewClient(Config{SecretKey: "secret-key", BaseURL: "http://127.0.0.1:1", ReturnURL: "https://shop.example/r"})

	_, err := c.Lookup(context.Background(), "pidx-abc")
	var gw *GatewayError
	require.ErrorAs(t, err, &gw)
	require.Zero(t, gw.StatusCode)
}

func TestNotConfigured(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.Initiate(context.Background(), testOrder())
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = c.Lookup(context.Background(), "pidx")
	require.ErrorIs(t, err, ErrNotConfigured)

	c = NewClient(Config{SecretKey: "secret"})
	_, err = c.Initiate(context.Background(), testOrder())
	require.ErrorIs(t, err, ErrNotConfigured)
}
