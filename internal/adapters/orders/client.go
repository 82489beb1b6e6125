// Package orders provides the HTTP client for the orders service.
package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"b2b_marketplace_backend/internal/quotes/domain"
	"b2b_marketplace_backend/internal/quotes/ports"
	"b2b_marketplace_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ordersPath                = "/api/v1/orders"
	headerContentType         = "Content-Type"
	headerAccept              = "Accept"
	headerAuthorization       = "Authorization"
	headerIdempotencyKey      = "Idempotency-Key"
	mimeApplicationJSON       = "application/json"
	authorizationBearerPrefix = "Bearer "
	maxErrorBodyBytes         = 2048
)

// Client creates orders over HTTP.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	serviceToken string
	log          *logger.Logger
}

// New creates an orders client. The per-call deadline comes from the
// caller's context; the client timeout is only a backstop.
func New(baseURL, serviceToken string, log *logger.Logger) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      strings.TrimRight(baseURL, "/"),
		serviceToken: serviceToken,
		log:          log,
	}
}

type createOrderLine struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

type createOrderBody struct {
	QuoteNumber     string            `json:"quoteNumber"`
	BuyerID         uuid.UUID         `json:"buyerId"`
	SupplierID      uuid.UUID         `json:"supplierId"`
	ShippingAddress string            `json:"shippingAddress"`
	BillingAddress  string            `json:"billingAddress"`
	PaymentType     string            `json:"paymentType"`
	Notes           string            `json:"notes"`
	Items           []createOrderLine `json:"items"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	Tax             decimal.Decimal   `json:"tax"`
	ShippingCost    decimal.Decimal   `json:"shippingCost"`
	TotalAmount     decimal.Decimal   `json:"totalAmount"`
}

type createOrderResponse struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber"`
}

// CreateOrder posts the order. A 409 carrying an order body is the orders
// service replaying an earlier request with the same idempotency key and
// counts as success.
func (c *Client) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderReference, error) {
	payload, err := json.Marshal(toBody(req))
	if err != nil {
		return domain.OrderReference{}, fmt.Errorf("marshal order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ordersPath, bytes.NewReader(payload))
	if err != nil {
		return domain.OrderReference{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set(headerContentType, mimeApplicationJSON)
	httpReq.Header.Set(headerAccept, mimeApplicationJSON)
	httpReq.Header.Set(headerIdempotencyKey, req.IdempotencyKey)
	if c.serviceToken != "" {
		httpReq.Header.Set(headerAuthorization, authorizationBearerPrefix+c.serviceToken)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return domain.OrderReference{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusConflict:
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		c.log.Error("orders upstream error", "status", resp.StatusCode, "quoteNumber", req.QuoteNumber)
		return domain.OrderReference{}, fmt.Errorf("orders service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.OrderReference{}, fmt.Errorf("decode response: %w", err)
	}
	if out.ID == "" {
		return domain.OrderReference{}, fmt.Errorf("orders service returned status %d without an order id", resp.StatusCode)
	}

	return domain.OrderReference{OrderID: out.ID, OrderNumber: out.OrderNumber}, nil
}

func toBody(req domain.OrderRequest) createOrderBody {
	lines := make([]createOrderLine, len(req.Items))
	for i, it := range req.Items {
		lines[i] = createOrderLine{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		}
	}
	return createOrderBody{
		QuoteNumber:     req.QuoteNumber,
		BuyerID:         req.BuyerID,
		SupplierID:      req.SupplierID,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentType:     string(req.PaymentType),
		Notes:           req.Notes,
		Items:           lines,
		Subtotal:        req.Subtotal,
		Tax:             req.Tax,
		ShippingCost:    req.ShippingCost,
		TotalAmount:     req.TotalAmount,
	}
}

var _ ports.OrderCreator = (*Client)(nil)
