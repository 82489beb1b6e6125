package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// QuoteItemRequest is one requested product line.
type QuoteItemRequest struct {
	ProductID      string          `json:"productId" validate:"required,max=100"`
	ProductName    string          `json:"productName" validate:"required,max=300"`
	ProductImage   string          `json:"productImage" validate:"omitempty,max=1000"`
	Quantity       int             `json:"quantity" validate:"required,min=1"`
	OriginalPrice  decimal.Decimal `json:"originalPrice"`
	Specifications string          `json:"specifications" validate:"max=4000"`
	Unit           string          `json:"unit" validate:"max=30"`
}

// CreateQuoteRequest opens a quote. The buyer is the caller.
type CreateQuoteRequest struct {
	SupplierID        uuid.UUID          `json:"supplierId" validate:"required"`
	Items             []QuoteItemRequest `json:"items" validate:"required,min=1,max=200,dive"`
	BuyerRequirements string             `json:"buyerRequirements" validate:"max=8000"`
	ShippingAddress   string             `json:"shippingAddress" validate:"max=1000"`
	ValidityDays      int                `json:"validityDays" validate:"min=0,max=365"`
}

// ItemPricingRequest updates one line during respond or approve.
type ItemPricingRequest struct {
	ItemID       int64           `json:"itemId" validate:"required,min=1"`
	Price        decimal.Decimal `json:"price"`
	Quantity     *int            `json:"quantity" validate:"omitempty,min=1"`
	LeadTimeDays *int            `json:"leadTimeDays" validate:"omitempty,min=0,max=3650"`
	Notes        *string         `json:"notes" validate:"omitempty,max=2000"`
}

// RespondQuoteRequest is the supplier's pricing response.
type RespondQuoteRequest struct {
	Items              []ItemPricingRequest `json:"items" validate:"omitempty,max=200,dive"`
	DiscountPercentage *decimal.Decimal     `json:"discountPercentage"`
	ValidityDays       *int                 `json:"validityDays" validate:"omitempty,min=1,max=365"`
	SupplierNotes      *string              `json:"supplierNotes" validate:"omitempty,max=8000"`
	Message            string               `json:"message" validate:"max=4000"`
}

// ApproveQuoteRequest fixes final pricing.
type ApproveQuoteRequest struct {
	Items              []ItemPricingRequest `json:"items" validate:"omitempty,max=200,dive"`
	DiscountPercentage *decimal.Decimal     `json:"discountPercentage"`
	ValidityDays       *int                 `json:"validityDays" validate:"omitempty,min=1,max=365"`
	Message            string               `json:"message" validate:"max=4000"`
}

// CounterOfferRequest is the buyer's negotiation message.
type CounterOfferRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// RejectQuoteRequest carries the supplier's reason.
type RejectQuoteRequest struct {
	Reason string `json:"reason" validate:"max=4000"`
}

// CancelQuoteRequest carries the buyer's optional reason.
type CancelQuoteRequest struct {
	Reason string `json:"reason" validate:"max=4000"`
}

// ExtendValidityRequest extends validUntil. Zero or negative days fall back
// to the configured default.
type ExtendValidityRequest struct {
	Days int `json:"days" validate:"max=365"`
}

// ConvertQuoteRequest turns an approved quote into an order.
type ConvertQuoteRequest struct {
	PaymentType     string `json:"paymentType" validate:"max=32"`
	ShippingAddress string `json:"shippingAddress" validate:"max=1000"`
	Notes           string `json:"notes" validate:"max=4000"`
}

// AddMessageRequest appends to the negotiation thread. MessageType
// defaults to TEXT.
type AddMessageRequest struct {
	Message       string `json:"message" validate:"max=4000"`
	MessageType   string `json:"messageType" validate:"max=32"`
	AttachmentURL string `json:"attachmentUrl" validate:"omitempty,max=1000"`
}

// PresignAttachmentUploadRequest asks for an upload URL for a thread attachment.
type PresignAttachmentUploadRequest struct {
	FileName    string `json:"fileName" validate:"required,min=1,max=255"`
	ContentType string `json:"contentType" validate:"required,max=100"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

// ListQuotesRequest is bound from the query string.
type ListQuotesRequest struct {
	Status   string `form:"status"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// QuoteItemResponse is one line of a quote.
type QuoteItemResponse struct {
	ID                int64            `json:"id"`
	ProductID         string           `json:"productId"`
	ProductName       string           `json:"productName"`
	ProductImage      string           `json:"productImage,omitempty"`
	Quantity          int              `json:"quantity"`
	RequestedQuantity int              `json:"requestedQuantity"`
	OriginalPrice     decimal.Decimal  `json:"originalPrice"`
	QuotedPrice       *decimal.Decimal `json:"quotedPrice,omitempty"`
	FinalPrice        *decimal.Decimal `json:"finalPrice,omitempty"`
	UnitPrice         decimal.Decimal  `json:"unitPrice"`
	LineTotal         decimal.Decimal  `json:"lineTotal"`
	LeadTimeDays      *int             `json:"leadTimeDays,omitempty"`
	Specifications    string           `json:"specifications,omitempty"`
	Unit              string           `json:"unit,omitempty"`
	Notes             string           `json:"notes,omitempty"`
}

// BuyerResponse is the buyer display snapshot.
type BuyerResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Company string    `json:"company"`
	Email   string    `json:"email,omitempty"`
	Phone   string    `json:"phone,omitempty"`
	Address string    `json:"address,omitempty"`
}

// SupplierResponse is the supplier display snapshot.
type SupplierResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// QuoteResponse is the full quote view.
type QuoteResponse struct {
	ID                 int64               `json:"id"`
	QuoteNumber        string              `json:"quoteNumber"`
	Buyer              BuyerResponse       `json:"buyer"`
	Supplier           SupplierResponse    `json:"supplier"`
	Status             string              `json:"status"`
	OriginalTotal      decimal.Decimal     `json:"originalTotal"`
	QuotedTotal        decimal.Decimal     `json:"quotedTotal"`
	FinalTotal         decimal.Decimal     `json:"finalTotal"`
	DiscountPercentage *decimal.Decimal    `json:"discountPercentage,omitempty"`
	DiscountAmount     decimal.Decimal     `json:"discountAmount"`
	ValidityDays       int                 `json:"validityDays"`
	ValidUntil         string              `json:"validUntil"`
	IsExpired          bool                `json:"isExpired"`
	DaysRemaining      int                 `json:"daysRemaining"`
	NegotiationCount   int                 `json:"negotiationCount"`
	BuyerRequirements  string              `json:"buyerRequirements,omitempty"`
	SupplierNotes      string              `json:"supplierNotes,omitempty"`
	RejectionReason    string              `json:"rejectionReason,omitempty"`
	ShippingAddress    string              `json:"shippingAddress,omitempty"`
	OrderID            *string             `json:"orderId,omitempty"`
	OrderNumber        *string             `json:"orderNumber,omitempty"`
	ConvertedToOrderAt *time.Time          `json:"convertedToOrderAt,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
	RespondedAt        *time.Time          `json:"respondedAt,omitempty"`
	ApprovedAt         *time.Time          `json:"approvedAt,omitempty"`
	Version            int64               `json:"version"`
	Items              []QuoteItemResponse `json:"items"`
}

// QuoteSummaryResponse is a list row.
type QuoteSummaryResponse struct {
	QuoteNumber      string          `json:"quoteNumber"`
	BuyerID          uuid.UUID       `json:"buyerId"`
	BuyerCompany     string          `json:"buyerCompany"`
	SupplierID       uuid.UUID       `json:"supplierId"`
	SupplierName     string          `json:"supplierName"`
	Status           string          `json:"status"`
	ItemCount        int             `json:"itemCount"`
	FinalTotal       decimal.Decimal `json:"finalTotal"`
	ValidUntil       string          `json:"validUntil"`
	IsExpired        bool            `json:"isExpired"`
	DaysRemaining    int             `json:"daysRemaining"`
	NegotiationCount int             `json:"negotiationCount"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// QuoteListResponse is a page of quote summaries.
type QuoteListResponse struct {
	Items      []QuoteSummaryResponse `json:"items"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"pageSize"`
	TotalPages int                    `json:"totalPages"`
}

// QuoteMessageResponse is one thread entry.
type QuoteMessageResponse struct {
	ID            int64      `json:"id"`
	SenderID      *uuid.UUID `json:"senderId,omitempty"`
	SenderName    string     `json:"senderName"`
	SenderType    string     `json:"senderType"`
	MessageType   string     `json:"messageType"`
	Message       string     `json:"message"`
	AttachmentURL string     `json:"attachmentUrl,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ConversionResponse reports the order created from a quote.
type ConversionResponse struct {
	QuoteNumber string        `json:"quoteNumber"`
	OrderID     string        `json:"orderId"`
	OrderNumber string        `json:"orderNumber"`
	Quote       QuoteResponse `json:"quote"`
}

// PresignedUploadResponse is the presigned upload URL response.
type PresignedUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileKey   string `json:"fileKey"`
	ExpiresAt int64  `json:"expiresAt"`
}
