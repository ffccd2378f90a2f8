package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticketshop/internal/config"
	"ticketshop/internal/models"
)

func TestMollieRegisterOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payments", r.URL.Path)
		require.Equal(t, "Bearer test_key", r.Header.Get("Authorization"))

		var req MollieCreatePaymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "EUR", req.Amount.Currency)
		assert.Equal(t, "123.45", req.Amount.Value)
		assert.Equal(t, "7", req.Metadata["order_id"])

		var response MolliePaymentResponse
		response.ID = "tr_abc123"
		response.Status = ProviderStatusOpen
		response.Links.Checkout.Href = "https://checkout.example/tr_abc123"

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	svc := NewMolliePaymentService(config.MollieConfig{
		APIKey:  "test_key",
		BaseURL: server.URL,
	})

	reference, paymentURL, err := svc.RegisterOrder(context.Background(), &models.Order{ID: 7}, 12345)
	require.NoError(t, err)
	assert.Equal(t, "tr_abc123", reference)
	assert.Equal(t, "https://checkout.example/tr_abc123", paymentURL)
}

func TestMollieUpdateStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/payments/tr_abc123", r.URL.Path)

		json.NewEncoder(w).Encode(MolliePaymentResponse{ID: "tr_abc123", Status: ProviderStatusPaid})
	}))
	defer server.Close()

	svc := NewMolliePaymentService(config.MollieConfig{APIKey: "test_key", BaseURL: server.URL})

	status, err := svc.UpdateStatus(context.Background(), "tr_abc123")
	require.NoError(t, err)
	assert.Equal(t, ProviderStatusPaid, status)
}

func TestMollieRejectedRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"detail": "The amount is higher than the maximum"})
	}))
	defer server.Close()

	svc := NewMolliePaymentService(config.MollieConfig{APIKey: "test_key", BaseURL: server.URL})

	_, _, err := svc.RegisterOrder(context.Background(), &models.Order{ID: 7}, 100000000)
	var rejected *models.PaymentError
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.Detail, "higher than the maximum")
}

func TestMollieUnknownReference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "No payment exists with token tr_gone"})
	}))
	defer server.Close()

	svc := NewMolliePaymentService(config.MollieConfig{APIKey: "test_key", BaseURL: server.URL})

	_, err := svc.UpdateStatus(context.Background(), "tr_gone")
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestMollieUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	svc := NewMolliePaymentService(config.MollieConfig{APIKey: "test_key", BaseURL: server.URL})

	_, err := svc.UpdateStatus(context.Background(), "tr_abc123")
	var unreachable *models.PaymentUnreachableError
	assert.ErrorAs(t, err, &unreachable)
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		amount int
		want   string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{50, "0.50"},
		{5000, "50.00"},
		{12345, "123.45"},
	}

	for _, tt := range tests {
		if got := formatCents(tt.amount); got != tt.want {
			t.Errorf("formatCents(%d) = %s, want %s", tt.amount, got, tt.want)
		}
	}
}

func TestMapProviderStatus(t *testing.T) {
	tests := []struct {
		status string
		want   models.OrderStatus
		ok     bool
	}{
		{ProviderStatusOpen, models.OrderPending, true},
		{ProviderStatusPending, models.OrderPending, true},
		{ProviderStatusPaid, models.OrderPaid, true},
		{ProviderStatusCanceled, models.OrderCancelled, true},
		{ProviderStatusFailed, models.OrderCancelled, true},
		{ProviderStatusExpired, models.OrderExpired, true},
		{"chargeback", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got, ok := MapProviderStatus(tt.status)
			if got != tt.want || ok != tt.ok {
				t.Errorf("MapProviderStatus(%q) = (%s, %v), want (%s, %v)", tt.status, got, ok, tt.want, tt.ok)
			}
		})
	}
}
