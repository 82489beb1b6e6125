package service

import (
	"context"
	"errors"
	"time"

	"b2b_marketplace_backend/internal/events"
	"b2b_marketplace_backend/internal/quotes/domain"
	"b2b_marketplace_backend/internal/quotes/transport"
	"b2b_marketplace_backend/platform/apperr"
	"b2b_marketplace_backend/platform/sanitize"
)

const (
	collaboratorOrders       = "orders"
	msgConversionInFlight    = "quote conversion is already in progress"
	msgOrderCreateFailed     = "order service failed to create the order"
	recordConversionAttempts = 3
)

// Convert turns an APPROVED quote into an order. The order service is
// called at most once per successful conversion: the per-quote write lock
// is held for the whole call, so neither another convert nor any other
// mutation can interleave, and the quote number is sent as idempotency key.
// When the call fails the quote is left unchanged.
func (s *Service) Convert(ctx context.Context, actor Actor, quoteNumber string, ifMatch int64, req transport.ConvertQuoteRequest) (*transport.ConversionResponse, error) {
	paymentType, err := domain.ParsePaymentType(req.PaymentType)
	if err != nil {
		return nil, err
	}

	q, err := s.repo.GetByNumber(ctx, quoteNumber)
	if err != nil {
		return nil, err
	}
	if err := q.CheckConvertible(actor.ID, s.now()); err != nil {
		return nil, err
	}
	if err := checkVersion(q, ifMatch); err != nil {
		return nil, err
	}

	release, err := s.lockQuote(ctx, quoteNumber, s.settings.ConversionLockTTL, msgConversionInFlight)
	if err != nil {
		return nil, err
	}
	defer release()

	// the quote may have changed between the first read and the lock
	q, err = s.repo.GetByNumber(ctx, quoteNumber)
	if err != nil {
		return nil, err
	}
	if err := q.CheckConvertible(actor.ID, s.now()); err != nil {
		return nil, err
	}

	orderReq := q.BuildOrderRequest(domain.ConversionOptions{
		PaymentType:     paymentType,
		ShippingAddress: sanitize.Text(req.ShippingAddress),
		Notes:           sanitize.Text(req.Notes),
	})

	ref, err := s.createOrder(ctx, orderReq)
	if err != nil {
		return nil, err
	}

	q, err = s.recordConversion(ctx, q, ref)
	if err != nil {
		// the order exists; a retry resends the same idempotency key
		s.log.WithContext(ctx).Error("failed to record quote conversion",
			"quoteNumber", quoteNumber, "orderId", ref.OrderID, "error", err)
		return nil, err
	}

	s.publish(ctx, events.QuoteConverted{
		BaseEvent:   events.NewBaseEvent(s.now()),
		QuoteRef:    refOf(q, actor.ID),
		OrderID:     ref.OrderID,
		OrderNumber: ref.OrderNumber,
	})

	return &transport.ConversionResponse{
		QuoteNumber: q.QuoteNumber,
		OrderID:     ref.OrderID,
		OrderNumber: ref.OrderNumber,
		Quote:       *s.buildResponse(q),
	}, nil
}

// recordConversion stores the order reference on the quote. The order
// already exists at this point, so a version conflict reloads the quote and
// applies the conversion again instead of failing.
func (s *Service) recordConversion(ctx context.Context, q *domain.Quote, ref domain.OrderReference) (*domain.Quote, error) {
	var err error
	for attempt := 1; attempt <= recordConversionAttempts; attempt++ {
		if q.Status == domain.StatusConverted && q.OrderID != nil && *q.OrderID == ref.OrderID {
			return q, nil
		}
		if err = q.MarkConverted(ref, s.now()); err != nil {
			return nil, err
		}
		if err = s.repo.Save(ctx, q); err == nil {
			return q, nil
		}
		if !apperr.Is(err, apperr.KindConflict) {
			return nil, err
		}

		s.log.WithContext(ctx).Warn("quote changed while its order was created, reapplying conversion",
			"quoteNumber", q.QuoteNumber, "attempt", attempt)
		reloaded, loadErr := s.repo.GetByNumber(ctx, q.QuoteNumber)
		if loadErr != nil {
			return nil, loadErr
		}
		q = reloaded
	}
	return nil, err
}

func (s *Service) createOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderReference, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.settings.ConversionTimeout)
	defer cancel()

	started := time.Now()
	ref, err := s.orders.CreateOrder(callCtx, req)
	if err != nil {
		s.log.WithContext(ctx).CollaboratorFailure(collaboratorOrders, "create_order", err)
		return domain.OrderReference{}, apperr.Upstream(msgOrderCreateFailed, err)
	}
	if ref.OrderID == "" {
		err := errors.New("order service returned an empty order id")
		s.log.WithContext(ctx).CollaboratorFailure(collaboratorOrders, "create_order", err)
		return domain.OrderReference{}, apperr.Upstream(msgOrderCreateFailed, err)
	}

	s.log.WithContext(ctx).Info("order created from quote",
		"quoteNumber", req.QuoteNumber,
		"orderNumber", ref.OrderNumber,
		"latencyMs", time.Since(started).Milliseconds(),
	)
	return ref, nil
}
