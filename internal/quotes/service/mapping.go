package service

import (
	"time"

	"b2b_marketplace_backend/internal/quotes/domain"
	"b2b_marketplace_backend/internal/quotes/transport"
)

// buildResponse converts the aggregate into its transport view.
func (s *Service) buildResponse(q *domain.Quote) *transport.QuoteResponse {
	now := s.now()

	items := make([]transport.QuoteItemResponse, len(q.Items))
	for i, it := range q.Items {
		items[i] = transport.QuoteItemResponse{
			ID:                it.ID,
			ProductID:         it.ProductID,
			ProductName:       it.ProductName,
			ProductImage:      it.ProductImage,
			Quantity:          it.Quantity,
			RequestedQuantity: it.RequestedQuantity,
			OriginalPrice:     it.OriginalPrice,
			QuotedPrice:       it.QuotedPrice,
			FinalPrice:        it.FinalPrice,
			UnitPrice:         it.UnitPrice(),
			LineTotal:         it.LineTotal(),
			LeadTimeDays:      it.LeadTimeDays,
			Specifications:    it.Specifications,
			Unit:              it.Unit,
			Notes:             it.Notes,
		}
	}

	return &transport.QuoteResponse{
		ID:          q.ID,
		QuoteNumber: q.QuoteNumber,
		Buyer: transport.BuyerResponse{
			ID:      q.BuyerID,
			Name:    q.Buyer.Name,
			Company: q.Buyer.Company,
			Email:   q.Buyer.Email,
			Phone:   q.Buyer.Phone,
			Address: q.Buyer.Address,
		},
		Supplier: transport.SupplierResponse{
			ID:   q.SupplierID,
			Name: q.SupplierName,
		},
		Status:             string(q.Status),
		OriginalTotal:      q.OriginalTotal,
		QuotedTotal:        q.QuotedTotal,
		FinalTotal:         q.FinalTotal,
		DiscountPercentage: q.DiscountPercentage,
		DiscountAmount:     q.DiscountAmount,
		ValidityDays:       q.ValidityDays,
		ValidUntil:         q.ValidUntil.Format(time.DateOnly),
		IsExpired:          q.IsExpired(now),
		DaysRemaining:      q.DaysRemaining(now),
		NegotiationCount:   q.NegotiationCount,
		BuyerRequirements:  q.BuyerRequirements,
		SupplierNotes:      q.SupplierNotes,
		RejectionReason:    q.RejectionReason,
		ShippingAddress:    q.ShippingAddress,
		OrderID:            q.OrderID,
		OrderNumber:        q.OrderNumber,
		ConvertedToOrderAt: q.ConvertedToOrderAt,
		CreatedAt:          q.CreatedAt,
		UpdatedAt:          q.UpdatedAt,
		RespondedAt:        q.RespondedAt,
		ApprovedAt:         q.ApprovedAt,
		Version:            q.Version,
		Items:              items,
	}
}

func buildSummary(q *domain.Quote, now time.Time) transport.QuoteSummaryResponse {
	return transport.QuoteSummaryResponse{
		QuoteNumber:      q.QuoteNumber,
		BuyerID:          q.BuyerID,
		BuyerCompany:     q.Buyer.Company,
		SupplierID:       q.SupplierID,
		SupplierName:     q.SupplierName,
		Status:           string(q.Status),
		ItemCount:        len(q.Items),
		FinalTotal:       q.FinalTotal,
		ValidUntil:       q.ValidUntil.Format(time.DateOnly),
		IsExpired:        q.IsExpired(now),
		DaysRemaining:    q.DaysRemaining(now),
		NegotiationCount: q.NegotiationCount,
		CreatedAt:        q.CreatedAt,
		UpdatedAt:        q.UpdatedAt,
	}
}

func buildMessage(m domain.QuoteMessage) transport.QuoteMessageResponse {
	return transport.QuoteMessageResponse{
		ID:            m.ID,
		SenderID:      m.SenderID,
		SenderName:    m.SenderName,
		SenderType:    string(m.SenderType),
		MessageType:   string(m.MessageType),
		Message:       m.Message,
		AttachmentURL: m.AttachmentURL,
		CreatedAt:     m.CreatedAt,
	}
}
