package repository

import (
	"context"
	"slices"
	"sync"

	"b2b_marketplace_backend/internal/quotes/domain"
	"b2b_marketplace_backend/platform/apperr"
)

// MemoryStore is an in-process Store with the same version semantics as
// Repository. It backs service and handler tests and local runs without
// PostgreSQL.
type MemoryStore struct {
	mu       sync.RWMutex
	byNumber map[string]*domain.Quote
	byID     map[int64]string
	messages map[int64][]domain.QuoteMessage
	counters map[int]int64
	nextID   int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byNumber: make(map[string]*domain.Quote),
		byID:     make(map[int64]string),
		messages: make(map[int64][]domain.QuoteMessage),
		counters: make(map[int]int64),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

// Create assigns ids and the quote number and stores a copy.
func (s *MemoryStore) Create(_ context.Context, q *domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	year := quoteYear(q.CreatedAt)
	s.counters[year]++
	q.QuoteNumber = FormatQuoteNumber(year, s.counters[year])
	q.ID = s.id()
	q.Version = 1
	for i := range q.Items {
		q.Items[i].ID = s.id()
		q.Items[i].QuoteID = q.ID
	}

	s.appendPending(q)
	s.byNumber[q.QuoteNumber] = cloneQuote(q)
	s.byID[q.ID] = q.QuoteNumber
	q.ClearPending()
	return nil
}

// GetByNumber returns a copy of the stored quote.
func (s *MemoryStore) GetByNumber(_ context.Context, quoteNumber string) (*domain.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.byNumber[quoteNumber]
	if !ok {
		return nil, apperr.NotFound(quoteNotFoundMsg)
	}
	return cloneQuote(q), nil
}

// Save replaces the stored quote when versions match.
func (s *MemoryStore) Save(_ context.Context, q *domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	number, ok := s.byID[q.ID]
	if !ok {
		return apperr.NotFound(quoteNotFoundMsg)
	}
	current := s.byNumber[number]
	if current.Version != q.Version {
		return apperr.Conflict(staleVersionMsg)
	}

	s.appendPending(q)
	q.Version++
	s.byNumber[number] = cloneQuote(q)
	q.ClearPending()
	return nil
}

// List filters, sorts newest first and paginates.
func (s *MemoryStore) List(_ context.Context, params ListParams) (*ListResult, error) {
	params = params.normalized()

	s.mu.RLock()
	var matched []domain.Quote
	for _, q := range s.byNumber {
		if params.BuyerID != nil && q.BuyerID != *params.BuyerID {
			continue
		}
		if params.SupplierID != nil && q.SupplierID != *params.SupplierID {
			continue
		}
		if params.Status != nil && q.Status != *params.Status {
			continue
		}
		matched = append(matched, *cloneQuote(q))
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b domain.Quote) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})

	total := len(matched)
	start := min(params.offset(), total)
	end := min(start+params.PageSize, total)

	return &ListResult{
		Items:      matched[start:end],
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages(total, params.PageSize),
	}, nil
}

// ListMessages returns the thread newest first.
func (s *MemoryStore) ListMessages(_ context.Context, quoteID int64) ([]domain.QuoteMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.messages[quoteID]
	out := make([]domain.QuoteMessage, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

func (s *MemoryStore) appendPending(q *domain.Quote) {
	pending := q.PendingMessages()
	for i := range pending {
		pending[i].ID = s.id()
		pending[i].QuoteID = q.ID
		s.messages[q.ID] = append(s.messages[q.ID], pending[i])
	}
}

func cloneQuote(q *domain.Quote) *domain.Quote {
	c := *q
	c.DiscountPercentage = clonePtr(q.DiscountPercentage)
	c.OrderID = clonePtr(q.OrderID)
	c.OrderNumber = clonePtr(q.OrderNumber)
	c.ConvertedToOrderAt = clonePtr(q.ConvertedToOrderAt)
	c.RespondedAt = clonePtr(q.RespondedAt)
	c.ApprovedAt = clonePtr(q.ApprovedAt)
	c.Items = make([]domain.QuoteItem, len(q.Items))
	for i, item := range q.Items {
		item.QuotedPrice = clonePtr(item.QuotedPrice)
		item.FinalPrice = clonePtr(item.FinalPrice)
		item.LeadTimeDays = clonePtr(item.LeadTimeDays)
		c.Items[i] = item
	}
	c.ClearPending()
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
