package service

import (
	"context"
	"time"

	"b2b_marketplace_backend/internal/events"
	"b2b_marketplace_backend/internal/quotes/domain"
	"b2b_marketplace_backend/internal/quotes/transport"
	"b2b_marketplace_backend/platform/sanitize"
)

// Create opens a quote request from the buyer to a supplier.
func (s *Service) Create(ctx context.Context, actor Actor, req transport.CreateQuoteRequest) (*transport.QuoteResponse, error) {
	buyer := s.buyerSnapshot(ctx, actor)
	supplierName := s.supplierName(ctx, req.SupplierID)

	items := make([]domain.NewItem, len(req.Items))
	for i, it := range req.Items {
		items[i] = domain.NewItem{
			ProductID:      it.ProductID,
			ProductName:    sanitize.StripHTML(it.ProductName),
			ProductImage:   it.ProductImage,
			Quantity:       it.Quantity,
			OriginalPrice:  it.OriginalPrice,
			Specifications: sanitize.Text(it.Specifications),
			Unit:           it.Unit,
		}
	}

	validityDays := req.ValidityDays
	if validityDays == 0 {
		validityDays = s.settings.DefaultValidityDays
	}

	q, err := domain.NewQuote(domain.NewQuoteParams{
		BuyerID:           actor.ID,
		Buyer:             buyer,
		SupplierID:        req.SupplierID,
		SupplierName:      supplierName,
		Items:             items,
		BuyerRequirements: sanitize.Text(req.BuyerRequirements),
		ShippingAddress:   sanitize.Text(req.ShippingAddress),
		ValidityDays:      validityDays,
	}, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}

	s.publish(ctx, events.QuoteCreated{
		BaseEvent:     events.NewBaseEvent(s.now()),
		QuoteRef:      refOf(q, actor.ID),
		ItemCount:     len(q.Items),
		OriginalTotal: q.OriginalTotal.StringFixed(2),
	})

	return s.buildResponse(q), nil
}

// Respond applies the supplier's pricing and moves the quote to SUPPLIER_RESPONDED.
func (s *Service) Respond(ctx context.Context, actor Actor, quoteNumber string, ifMatch int64, req transport.RespondQuoteRequest) (*transport.QuoteResponse, error) {
	q, err := s.mutate(ctx, quoteNumber, ifMatch, func(q *domain.Quote, now time.Time) error {
		return q.Respond(actor.ID, actor.Name, domain.RespondInput{
			Items:              toItemPricing(req.Items),
			DiscountPercentage: req.DiscountPercentage,
			ValidityDays:       req.ValidityDays,
			SupplierNotes:      sanitize.TextPtr(req.SupplierNotes),
			Message:            sanitize.Text(req.Message),
		}, now)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.QuoteResponded{
		BaseEvent:        events.NewBaseEvent(s.now()),
		QuoteRef:         refOf(q, actor.ID),
		QuotedTotal:      q.QuotedTotal.StringFixed(2),
		FinalTotal:       q.FinalTotal.StringFixed(2),
		NegotiationCount: q.NegotiationCount,
	})
	return s.buildResponse(q), nil
}

// CounterOffer records the buyer's request for further negotiation.
func (s *Service) CounterOffer(ctx context.Context, actor Actor, quoteNumber string, ifMatch int64, req transport.CounterOfferRequest) (*transport.QuoteResponse, error) {
	q, err := s.mutate(ctx, quoteNumber, ifMatch, func(q *domain.Quote, now time.Time) error {
		return q.CounterOffer(actor.ID, actor.Name, sanitize.Text(req.Message), now)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.QuoteCounterOffered{
		BaseEvent:        events.NewBaseEvent(s.now()),
		QuoteRef:         refOf(q, actor.ID),
		NegotiationCount: q.NegotiationCount,
	})
	return s.buildResponse(q), nil
}

// Approve fixes final pricing on the supplier side.
func (s *Service) Approve(ctx context.Context, actor Actor, quoteNumber string, ifMatch int64, req transport.ApproveQuoteRequest) (*transport.QuoteResponse, error) {
	q, err := s.mutate(ctx, quoteNumber, ifMatch, func(q *domain.Quote, now time.Time) error {
		return q.Approve(actor.ID, actor.Name, domain.ApproveInput{
			Items:              toItemPricing(req.Items),
			DiscountPercentage: req.DiscountPercentage,
			ValidityDays:       req.ValidityDays,
			Message:            sanitize.Text(req.Message),
		}, now)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.QuoteApproved{
		BaseEvent:  events.NewBaseEvent(s.now()),
		QuoteRef:   refOf(q, actor.ID),
		FinalTotal: q.FinalTotal.StringFixed(2),
	})
	return s.buildResponse(q), nil
}

// Reject ends the negotiation on the supplier side.
func (s *Service) Reject(ctx context.Context, actor Actor, quoteNumber string, ifMatch int64, req transport.RejectQuoteRequest) (*transport.QuoteResponse, error) {
	q, err := s.mutate(ctx, quoteNumber, ifMatch, func(q *domain.Quote, now time.Time) error {
		return q.Reject(actor.ID, actor.Name, sanitize.Text(req.Reason), now)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.QuoteRejected{
		BaseEvent: events.NewBaseEvent(s.now()),
		QuoteRef:  refOf(q, actor.ID),
		Reason:    q.RejectionReason,
	})
	return s.buildResponse(q), nil
}

// Cancel withdraws the request on the buyer side.
func (s *Service) Cancel(ctx context.Context, actor Actor, quoteNumber string, ifMatch int64, req transport.CancelQuoteRequest) (*transport.QuoteResponse, error) {
	q, err := s.mutate(ctx, quoteNumber, ifMatch, func(q *domain.Quote, now time.Time) error {
		return q.Cancel(actor.ID, actor.Name, sanitize.Text(req.Reason), now)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.QuoteCancelled{
		BaseEvent: events.NewBaseEvent(s.now()),
		QuoteRef:  refOf(q, actor.ID),
	})
	return s.buildResponse(q), nil
}

// ExtendValidity pushes validUntil out. Zero or negative days use the
// configured default extension.
func (s *Service) ExtendValidity(ctx context.Context, actor Actor, quoteNumber string, ifMatch int64, req transport.ExtendValidityRequest) (*transport.QuoteResponse, error) {
	q, err := s.mutate(ctx, quoteNumber, ifMatch, func(q *domain.Quote, now time.Time) error {
		return q.ExtendValidity(actor.ID, actor.Name, req.Days, s.settings.DefaultExtensionDays, now)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.QuoteValidityExtended{
		BaseEvent:    events.NewBaseEvent(s.now()),
		QuoteRef:     refOf(q, actor.ID),
		ValidUntil:   q.ValidUntil.Format(time.DateOnly),
		ValidityDays: q.ValidityDays,
	})
	return s.buildResponse(q), nil
}

func toItemPricing(in []transport.ItemPricingRequest) []domain.ItemPricing {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.ItemPricing, len(in))
	for i, it := range in {
		out[i] = domain.ItemPricing{
			ItemID:       it.ItemID,
			Price:        it.Price,
			Quantity:     it.Quantity,
			LeadTimeDays: it.LeadTimeDays,
			Notes:        sanitize.TextPtr(it.Notes),
		}
	}
	return out
}
