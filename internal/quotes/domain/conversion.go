package domain

import (
	"fmt"
	"strings"
	"time"

	"b2b_marketplace_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine is one line of an order request.
type OrderLine struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// OrderRequest is what the order service receives at conversion.
type OrderRequest struct {
	IdempotencyKey  string
	QuoteNumber     string
	BuyerID         uuid.UUID
	SupplierID      uuid.UUID
	ShippingAddress string
	BillingAddress  string
	PaymentType     PaymentType
	Notes           string
	Items           []OrderLine
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	ShippingCost    decimal.Decimal
	TotalAmount     decimal.Decimal
}

// OrderReference identifies the order created from a quote.
type OrderReference struct {
	OrderID     string
	OrderNumber string
}

// ConversionOptions are the buyer's inputs to conversion.
type ConversionOptions struct {
	PaymentType     PaymentType
	ShippingAddress string
	Notes           string
}

// CheckConvertible verifies, in order, that requester is the buyer, the
// quote has not expired and the quote is APPROVED.
func (q *Quote) CheckConvertible(requester uuid.UUID, now time.Time) error {
	if err := q.requireBuyer(requester); err != nil {
		return err
	}
	if q.IsExpired(now) {
		return apperr.Expired(fmt.Sprintf("quote expired on %s", q.ValidUntil.Format(time.DateOnly)))
	}
	if q.Status != StatusApproved {
		return q.stateError("convert")
	}
	return nil
}

// BuildOrderRequest prices every line through the cascade and assembles the
// order payload. The total is FinalTotal, including a zero FinalTotal left by
// a full discount. Only a quote stored without computed totals falls back to
// the cascaded subtotal.
func (q *Quote) BuildOrderRequest(opts ConversionOptions) OrderRequest {
	lines := make([]OrderLine, 0, len(q.Items))
	for _, item := range q.Items {
		lines = append(lines, OrderLine{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice(),
			LineTotal:   item.LineTotal(),
		})
	}
	subtotal := Subtotal(q.Items)

	shipping := strings.TrimSpace(opts.ShippingAddress)
	if shipping == "" {
		shipping = q.ShippingAddress
	}
	billing := q.Buyer.Address
	if billing == "" {
		billing = shipping
	}

	payment := opts.PaymentType
	if payment == "" {
		payment = DefaultPaymentType
	}

	notes := "Converted from quote " + q.QuoteNumber
	if extra := strings.TrimSpace(opts.Notes); extra != "" {
		notes += "\n" + extra
	}

	total := q.FinalTotal
	if q.totalsMissing() {
		total = subtotal
	}

	return OrderRequest{
		IdempotencyKey:  "quote-" + q.QuoteNumber,
		QuoteNumber:     q.QuoteNumber,
		BuyerID:         q.BuyerID,
		SupplierID:      q.SupplierID,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		PaymentType:     payment,
		Notes:           notes,
		Items:           lines,
		Subtotal:        subtotal,
		Tax:             decimal.Zero,
		ShippingCost:    decimal.Zero,
		TotalAmount:     total,
	}
}

// totalsMissing reports a quote whose aggregate totals were never computed.
// FinalTotal is derived from QuotedTotal, so both are absent together.
func (q *Quote) totalsMissing() bool {
	return q.OriginalTotal.IsZero() && q.QuotedTotal.IsZero() && q.FinalTotal.IsZero() &&
		q.DiscountAmount.IsZero()
}

// MarkConverted records the created order. The quote must still be APPROVED.
func (q *Quote) MarkConverted(ref OrderReference, now time.Time) error {
	if q.Status != StatusApproved {
		return q.stateError("convert")
	}
	orderID, orderNumber := ref.OrderID, ref.OrderNumber
	q.OrderID = &orderID
	q.OrderNumber = &orderNumber
	q.ConvertedToOrderAt = &now
	q.Status = StatusConverted
	q.touch(now)
	q.appendSystem(MessageSystem, fmt.Sprintf("Quote converted to order %s", orderNumber), now)
	return nil
}
