package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"b2b_marketplace_backend/internal/quotes/domain"
	"b2b_marketplace_backend/internal/quotes/repository"
	"b2b_marketplace_backend/internal/quotes/service"
	"b2b_marketplace_backend/internal/quotes/transport"
	"b2b_marketplace_backend/platform/httpkit"
	"b2b_marketplace_backend/platform/logger"
	"b2b_marketplace_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserHeader = "X-Test-User"

var (
	buyerID    = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	supplierID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

type stubOrders struct {
	calls int
}

func (s *stubOrders) CreateOrder(context.Context, domain.OrderRequest) (domain.OrderReference, error) {
	s.calls++
	return domain.OrderReference{OrderID: "ord-9", OrderNumber: "ORD-9"}, nil
}

// fakeAuth stands in for JWT validation: the caller id comes from a header.
func fakeAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := c.GetHeader(testUserHeader); raw != "" {
			c.Set(httpkit.ContextUserIDKey, uuid.MustParse(raw))
			c.Set(httpkit.ContextNameKey, "tester")
		}
		c.Next()
	}
}

func newRouter(t *testing.T) (*gin.Engine, *stubOrders) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	orders := &stubOrders{}
	svc := service.New(repository.NewMemoryStore(), orders, nil, logger.Nop(), service.Settings{ConversionTimeout: time.Second})

	r := gin.New()
	group := r.Group("/api/v1/quotes", fakeAuth())
	New(svc, validator.New()).RegisterRoutes(group)
	return r, orders
}

func do(r *gin.Engine, method, path string, user uuid.UUID, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != uuid.Nil {
		req.Header.Set(testUserHeader, user.String())
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createQuote(t *testing.T, r *gin.Engine) transport.QuoteResponse {
	t.Helper()
	w := do(r, http.MethodPost, "/api/v1/quotes", buyerID, map[string]any{
		"supplierId": supplierID,
		"items": []map[string]any{
			{"productId": "p-1", "productName": "Bolts", "quantity": 10, "originalPrice": "5"},
		},
		"shippingAddress": "1 Main St",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, `W/"1"`, w.Header().Get("ETag"))

	var resp transport.QuoteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body httpkit.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestCreateRequiresAuthentication(t *testing.T) {
	r, _ := newRouter(t)
	w := do(r, http.MethodPost, "/api/v1/quotes", uuid.Nil, map[string]any{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateValidatesBody(t *testing.T) {
	r, _ := newRouter(t)

	w := do(r, http.MethodPost, "/api/v1/quotes", buyerID, map[string]any{"supplierId": supplierID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", bytes.NewBufferString("{not json"))
	req.Header.Set(testUserHeader, buyerID.String())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFullNegotiationOverHTTP(t *testing.T) {
	r, orders := newRouter(t)
	created := createQuote(t, r)
	base := "/api/v1/quotes/" + created.QuoteNumber

	w := do(r, http.MethodPost, base+"/respond", supplierID, map[string]any{
		"items":              []map[string]any{{"itemId": created.Items[0].ID, "price": "4"}},
		"discountPercentage": "10",
	}, "If-Match", `W/"1"`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `W/"2"`, w.Header().Get("ETag"))

	w = do(r, http.MethodPost, base+"/approve", supplierID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodPost, base+"/convert", buyerID, map[string]any{"paymentType": "NET_30"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var conv transport.ConversionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &conv))
	assert.Equal(t, "ORD-9", conv.OrderNumber)
	assert.Equal(t, "CONVERTED", conv.Quote.Status)
	assert.Equal(t, 1, orders.calls)

	w = do(r, http.MethodPost, base+"/convert", buyerID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_state", errorCode(t, w))
	assert.Equal(t, 1, orders.calls)

	w = do(r, http.MethodGet, base+"/messages", supplierID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var msgs struct {
		Items []transport.QuoteMessageResponse `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msgs))
	require.Len(t, msgs.Items, 4)
	assert.Equal(t, "Quote converted to order ORD-9", msgs.Items[0].Message)
}

func TestStatusCodes(t *testing.T) {
	r, _ := newRouter(t)
	created := createQuote(t, r)
	base := "/api/v1/quotes/" + created.QuoteNumber
	stranger := uuid.New()

	w := do(r, http.MethodGet, base, stranger, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodGet, "/api/v1/quotes/RFQ-2026-999999", buyerID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, base+"/approve", buyerID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "buyers cannot approve")

	w = do(r, http.MethodPost, base+"/reject", supplierID, nil, "If-Match", `W/"7"`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", errorCode(t, w))

	w = do(r, http.MethodPost, base+"/reject", supplierID, nil, "If-Match", "garbage")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, base+"/counter-offer", buyerID, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "counter-offer needs a message")

	w = do(r, http.MethodPost, base+"/convert", buyerID, map[string]any{"paymentType": "BARTER"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSetsETagAndLowercaseNumbers(t *testing.T) {
	r, _ := newRouter(t)
	created := createQuote(t, r)

	w := do(r, http.MethodGet, "/api/v1/quotes/"+created.QuoteNumber, supplierID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `W/"1"`, w.Header().Get("ETag"))

	w = do(r, http.MethodGet, "/api/v1/quotes/rfq-2026-000001", buyerID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListEndpoints(t *testing.T) {
	r, _ := newRouter(t)
	createQuote(t, r)

	w := do(r, http.MethodGet, "/api/v1/quotes/buyer?status=PENDING", buyerID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list transport.QuoteListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	w = do(r, http.MethodGet, "/api/v1/quotes/supplier?pageSize=500", supplierID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, "/api/v1/quotes/supplier?status=UNKNOWN", supplierID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", errorCode(t, w))
}

func TestAddMessage(t *testing.T) {
	r, _ := newRouter(t)
	created := createQuote(t, r)

	w := do(r, http.MethodPost, "/api/v1/quotes/"+created.QuoteNumber+"/messages", supplierID, map[string]any{"message": "Which finish?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var msg transport.QuoteMessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
	assert.Equal(t, "SUPPLIER", msg.SenderType)
	assert.Equal(t, "tester", msg.SenderName)
	assert.Equal(t, "TEXT", msg.MessageType)

	w = do(r, http.MethodPost, "/api/v1/quotes/"+created.QuoteNumber+"/messages", supplierID,
		map[string]any{"message": "Matte is 5% extra", "messageType": "price_update"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
	assert.Equal(t, "PRICE_UPDATE", msg.MessageType)

	for _, msgType := range []string{"SYSTEM", "GOSSIP", "APPROVAL"} {
		w = do(r, http.MethodPost, "/api/v1/quotes/"+created.QuoteNumber+"/messages", buyerID,
			map[string]any{"message": "hello", "messageType": msgType})
		assert.Equal(t, http.StatusBadRequest, w.Code, msgType)
		assert.Equal(t, "validation", errorCode(t, w), msgType)
	}
}
