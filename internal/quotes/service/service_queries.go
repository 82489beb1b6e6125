package service

import (
	"context"
	"strings"

	"b2b_marketplace_backend/internal/quotes/domain"
	"b2b_marketplace_backend/internal/quotes/repository"
	"b2b_marketplace_backend/internal/quotes/transport"
)

// Get returns a quote to its buyer or supplier.
func (s *Service) Get(ctx context.Context, actor Actor, quoteNumber string) (*transport.QuoteResponse, error) {
	q, _, err := s.loadForParticipant(ctx, actor, quoteNumber)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(q), nil
}

// ListAsBuyer lists quotes the actor requested, newest first.
func (s *Service) ListAsBuyer(ctx context.Context, actor Actor, req transport.ListQuotesRequest) (*transport.QuoteListResponse, error) {
	params, err := listParams(req)
	if err != nil {
		return nil, err
	}
	params.BuyerID = &actor.ID
	return s.list(ctx, params)
}

// ListAsSupplier lists quotes addressed to the actor, newest first.
func (s *Service) ListAsSupplier(ctx context.Context, actor Actor, req transport.ListQuotesRequest) (*transport.QuoteListResponse, error) {
	params, err := listParams(req)
	if err != nil {
		return nil, err
	}
	params.SupplierID = &actor.ID
	return s.list(ctx, params)
}

func (s *Service) list(ctx context.Context, params repository.ListParams) (*transport.QuoteListResponse, error) {
	result, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}

	now := s.now()
	items := make([]transport.QuoteSummaryResponse, len(result.Items))
	for i := range result.Items {
		items[i] = buildSummary(&result.Items[i], now)
	}

	return &transport.QuoteListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

func listParams(req transport.ListQuotesRequest) (repository.ListParams, error) {
	params := repository.ListParams{Page: req.Page, PageSize: req.PageSize}
	if strings.TrimSpace(req.Status) != "" {
		status, err := domain.ParseStatus(req.Status)
		if err != nil {
			return params, err
		}
		params.Status = &status
	}
	return params, nil
}
