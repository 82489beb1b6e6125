package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"b2b_marketplace_backend/internal/quotes/domain"
	"b2b_marketplace_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() domain.OrderRequest {
	return domain.OrderRequest{
		IdempotencyKey: "quote-RFQ-2026-000001",
		QuoteNumber:    "RFQ-2026-000001",
		BuyerID:        uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		SupplierID:     uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		PaymentType:    domain.PaymentNet30,
		Items: []domain.OrderLine{
			{ProductID: "p-1", Quantity: 10, UnitPrice: decimal.RequireFromString("4"), LineTotal: decimal.RequireFromString("40")},
		},
		Subtotal:    decimal.RequireFromString("40"),
		TotalAmount: decimal.RequireFromString("36"),
	}
}

func TestCreateOrder(t *testing.T) {
	var gotKey, gotAuth string
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/orders", r.URL.Path)
		gotKey = r.Header.Get("Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ord-1","orderNumber":"ORD-2026-0001"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "svc-token", logger.Nop())
	ref, err := c.CreateOrder(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.OrderReference{OrderID: "ord-1", OrderNumber: "ORD-2026-0001"}, ref)
	assert.Equal(t, "quote-RFQ-2026-000001", gotKey)
	assert.Equal(t, "Bearer svc-token", gotAuth)
	assert.Equal(t, "NET_30", body["paymentType"])
	assert.Equal(t, "36", body["totalAmount"])
}

func TestCreateOrderReplayIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"id":"ord-1","orderNumber":"ORD-2026-0001"}`))
	}))
	defer srv.Close()

	ref, err := New(srv.URL, "", logger.Nop()).CreateOrder(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "ord-1", ref.OrderID)
}

func TestCreateOrderUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "stock service unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", logger.Nop()).CreateOrder(context.Background(), sampleRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "stock service unavailable")
}

func TestCreateOrderHonoursContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := New(srv.URL, "", logger.Nop()).CreateOrder(ctx, sampleRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
