package repository

import (
	"context"
	"fmt"
	"time"

	"b2b_marketplace_backend/internal/quotes/domain"

	"github.com/google/uuid"
)

const (
	quoteNotFoundMsg = "quote not found"
	staleVersionMsg  = "quote was modified by another request; reload and retry"

	defaultPageSize = 20
	maxPageSize     = 100
)

// Store persists the quote aggregate. Implementations must save the header,
// items and pending messages atomically and reject stale versions with a
// Conflict error.
type Store interface {
	Create(ctx context.Context, q *domain.Quote) error
	GetByNumber(ctx context.Context, quoteNumber string) (*domain.Quote, error)
	Save(ctx context.Context, q *domain.Quote) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	ListMessages(ctx context.Context, quoteID int64) ([]domain.QuoteMessage, error)
}

// ListParams filters a quote listing. Exactly one of BuyerID and SupplierID
// is set by the service.
type ListParams struct {
	BuyerID    *uuid.UUID
	SupplierID *uuid.UUID
	Status     *domain.Status
	Page       int
	PageSize   int
}

// ListResult contains the paginated result of listing quotes.
type ListResult struct {
	Items      []domain.Quote
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

func (p ListParams) normalized() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

func (p ListParams) offset() int {
	return (p.Page - 1) * p.PageSize
}

func totalPages(total, pageSize int) int {
	if total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// FormatQuoteNumber renders the external quote identifier.
func FormatQuoteNumber(year int, seq int64) string {
	return fmt.Sprintf("RFQ-%d-%06d", year, seq)
}

func quoteYear(t time.Time) int {
	return t.UTC().Year()
}
