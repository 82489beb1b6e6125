package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"b2b_marketplace_backend/internal/quotes/domain"
	"b2b_marketplace_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// querier is the part of *pgxpool.Pool the repository uses.
type querier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is the PostgreSQL Store.
type Repository struct {
	pool querier
}

// New creates a new quotes repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

const quoteColumns = `
	id, quote_number, buyer_id, buyer_name, buyer_company, buyer_email, buyer_phone, buyer_address,
	supplier_id, supplier_name, status,
	original_total, quoted_total, final_total, discount_percentage, discount_amount,
	validity_days, valid_until, negotiation_count,
	buyer_requirements, supplier_notes, rejection_reason, shipping_address,
	order_id, order_number, converted_to_order_at,
	created_at, updated_at, responded_at, approved_at, version`

const itemColumns = `
	id, quote_id, product_id, product_name, product_image, quantity, requested_quantity,
	original_price, quoted_price, final_price, lead_time_days, specifications, unit, notes`

// Create assigns the quote number and inserts the quote, its items and its
// pending messages in one transaction.
func (r *Repository) Create(ctx context.Context, q *domain.Quote) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	year := quoteYear(q.CreatedAt)
	var seq int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO quote_number_counters (year, last_number)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_number = quote_number_counters.last_number + 1
		RETURNING last_number`, year).Scan(&seq); err != nil {
		return fmt.Errorf("failed to generate quote number: %w", err)
	}
	q.QuoteNumber = FormatQuoteNumber(year, seq)
	q.Version = 1

	if err := tx.QueryRow(ctx, `
		INSERT INTO quotes (
			quote_number, buyer_id, buyer_name, buyer_company, buyer_email, buyer_phone, buyer_address,
			supplier_id, supplier_name, status,
			original_total, quoted_total, final_total, discount_percentage, discount_amount,
			validity_days, valid_until, negotiation_count,
			buyer_requirements, supplier_notes, rejection_reason, shipping_address,
			created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
		RETURNING id`,
		q.QuoteNumber, q.BuyerID, q.Buyer.Name, q.Buyer.Company, q.Buyer.Email, q.Buyer.Phone, q.Buyer.Address,
		q.SupplierID, q.SupplierName, string(q.Status),
		q.OriginalTotal, q.QuotedTotal, q.FinalTotal, q.DiscountPercentage, q.DiscountAmount,
		q.ValidityDays, q.ValidUntil, q.NegotiationCount,
		q.BuyerRequirements, q.SupplierNotes, q.RejectionReason, q.ShippingAddress,
		q.CreatedAt, q.UpdatedAt, q.Version,
	).Scan(&q.ID); err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}

	for i := range q.Items {
		item := &q.Items[i]
		item.QuoteID = q.ID
		if err := tx.QueryRow(ctx, `
			INSERT INTO quote_items (
				quote_id, product_id, product_name, product_image, quantity, requested_quantity,
				original_price, quoted_price, final_price, lead_time_days, specifications, unit, notes, sort_order
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id`,
			item.QuoteID, item.ProductID, item.ProductName, item.ProductImage, item.Quantity, item.RequestedQuantity,
			item.OriginalPrice, item.QuotedPrice, item.FinalPrice, item.LeadTimeDays,
			item.Specifications, item.Unit, item.Notes, i,
		).Scan(&item.ID); err != nil {
			return fmt.Errorf("failed to insert quote item: %w", err)
		}
	}

	if err := r.insertPendingMessages(ctx, tx, q); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit quote: %w", err)
	}
	q.ClearPending()
	return nil
}

// Save writes the aggregate if its version still matches the stored one.
func (r *Repository) Save(ctx context.Context, q *domain.Quote) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE quotes SET
			status = $3,
			original_total = $4, quoted_total = $5, final_total = $6,
			discount_percentage = $7, discount_amount = $8,
			validity_days = $9, valid_until = $10, negotiation_count = $11,
			supplier_notes = $12, rejection_reason = $13,
			order_id = $14, order_number = $15, converted_to_order_at = $16,
			updated_at = $17, responded_at = $18, approved_at = $19,
			version = version + 1
		WHERE id = $1 AND version = $2`,
		q.ID, q.Version, string(q.Status),
		q.OriginalTotal, q.QuotedTotal, q.FinalTotal,
		q.DiscountPercentage, q.DiscountAmount,
		q.ValidityDays, q.ValidUntil, q.NegotiationCount,
		q.SupplierNotes, q.RejectionReason,
		q.OrderID, q.OrderNumber, q.ConvertedToOrderAt,
		q.UpdatedAt, q.RespondedAt, q.ApprovedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update quote: %w", err)
	}
	if result.RowsAffected() == 0 {
		return r.missingOrStale(ctx, tx, q.ID)
	}

	for _, item := range q.Items {
		if _, err := tx.Exec(ctx, `
			UPDATE quote_items SET
				quantity = $2, quoted_price = $3, final_price = $4, lead_time_days = $5, notes = $6
			WHERE id = $1`,
			item.ID, item.Quantity, item.QuotedPrice, item.FinalPrice, item.LeadTimeDays, item.Notes,
		); err != nil {
			return fmt.Errorf("failed to update quote item: %w", err)
		}
	}

	if err := r.insertPendingMessages(ctx, tx, q); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit quote: %w", err)
	}
	q.Version++
	q.ClearPending()
	return nil
}

func (r *Repository) missingOrStale(ctx context.Context, tx pgx.Tx, id int64) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quotes WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check quote: %w", err)
	}
	if !exists {
		return apperr.NotFound(quoteNotFoundMsg)
	}
	return apperr.Conflict(staleVersionMsg)
}

func (r *Repository) insertPendingMessages(ctx context.Context, tx pgx.Tx, q *domain.Quote) error {
	pending := q.PendingMessages()
	for i := range pending {
		m := &pending[i]
		if err := tx.QueryRow(ctx, `
			INSERT INTO quote_messages (
				quote_id, sender_id, sender_name, sender_type, message_type, message, attachment_url, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			q.ID, m.SenderID, m.SenderName, string(m.SenderType), string(m.MessageType),
			m.Message, m.AttachmentURL, m.CreatedAt,
		).Scan(&m.ID); err != nil {
			return fmt.Errorf("failed to insert quote message: %w", err)
		}
		m.QuoteID = q.ID
	}
	return nil
}

// GetByNumber loads a quote and its items by quote number.
func (r *Repository) GetByNumber(ctx context.Context, quoteNumber string) (*domain.Quote, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE quote_number = $1`, quoteNumber)
	q, err := scanQuote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(quoteNotFoundMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	items, err := r.itemsFor(ctx, []int64{q.ID})
	if err != nil {
		return nil, err
	}
	q.Items = items[q.ID]
	return q, nil
}

// List returns quotes for one party, newest first, with their items.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	params = params.normalized()

	var (
		where []string
		args  []any
	)
	if params.BuyerID != nil {
		args = append(args, *params.BuyerID)
		where = append(where, fmt.Sprintf("buyer_id = $%d", len(args)))
	}
	if params.SupplierID != nil {
		args = append(args, *params.SupplierID)
		where = append(where, fmt.Sprintf("supplier_id = $%d", len(args)))
	}
	if params.Status != nil {
		args = append(args, string(*params.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quotes`+whereClause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count quotes: %w", err)
	}

	args = append(args, params.PageSize, params.offset())
	query := fmt.Sprintf(`SELECT %s FROM quotes%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		quoteColumns, whereClause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]domain.Quote, 0, params.PageSize)
	ids := make([]int64, 0, params.PageSize)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, *q)
		ids = append(ids, q.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotes: %w", err)
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range quotes {
		quotes[i].Items = items[quotes[i].ID]
	}

	return &ListResult{
		Items:      quotes,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages(total, params.PageSize),
	}, nil
}

// ListMessages returns the thread of a quote, newest first.
func (r *Repository) ListMessages(ctx context.Context, quoteID int64) ([]domain.QuoteMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, quote_id, sender_id, sender_name, sender_type, message_type, message, attachment_url, created_at
		FROM quote_messages
		WHERE quote_id = $1
		ORDER BY created_at DESC, id DESC`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quote messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.QuoteMessage
	for rows.Next() {
		var (
			m                   domain.QuoteMessage
			senderType, msgType string
		)
		if err := rows.Scan(&m.ID, &m.QuoteID, &m.SenderID, &m.SenderName, &senderType, &msgType,
			&m.Message, &m.AttachmentURL, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quote message: %w", err)
		}
		// A bad stored value is an internal error, not a validation error.
		if m.SenderType, err = domain.ParseSenderType(senderType); err != nil {
			return nil, fmt.Errorf("unknown stored sender type %q on message %d", senderType, m.ID)
		}
		if m.MessageType, err = domain.ParseMessageType(msgType); err != nil {
			return nil, fmt.Errorf("unknown stored message type %q on message %d", msgType, m.ID)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *Repository) itemsFor(ctx context.Context, quoteIDs []int64) (map[int64][]domain.QuoteItem, error) {
	result := make(map[int64][]domain.QuoteItem, len(quoteIDs))
	if len(quoteIDs) == 0 {
		return result, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+`
		FROM quote_items WHERE quote_id = ANY($1) ORDER BY quote_id, sort_order, id`, quoteIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list quote items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item          domain.QuoteItem
			quoted, final decimal.NullDecimal
		)
		if err := rows.Scan(
			&item.ID, &item.QuoteID, &item.ProductID, &item.ProductName, &item.ProductImage,
			&item.Quantity, &item.RequestedQuantity,
			&item.OriginalPrice, &quoted, &final, &item.LeadTimeDays,
			&item.Specifications, &item.Unit, &item.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan quote item: %w", err)
		}
		item.QuotedPrice = nullDecimalPtr(quoted)
		item.FinalPrice = nullDecimalPtr(final)
		result[item.QuoteID] = append(result[item.QuoteID], item)
	}
	return result, rows.Err()
}

func scanQuote(row pgx.Row) (*domain.Quote, error) {
	var (
		q        domain.Quote
		status   string
		discount decimal.NullDecimal
	)
	err := row.Scan(
		&q.ID, &q.QuoteNumber, &q.BuyerID, &q.Buyer.Name, &q.Buyer.Company, &q.Buyer.Email, &q.Buyer.Phone, &q.Buyer.Address,
		&q.SupplierID, &q.SupplierName, &status,
		&q.OriginalTotal, &q.QuotedTotal, &q.FinalTotal, &discount, &q.DiscountAmount,
		&q.ValidityDays, &q.ValidUntil, &q.NegotiationCount,
		&q.BuyerRequirements, &q.SupplierNotes, &q.RejectionReason, &q.ShippingAddress,
		&q.OrderID, &q.OrderNumber, &q.ConvertedToOrderAt,
		&q.CreatedAt, &q.UpdatedAt, &q.RespondedAt, &q.ApprovedAt, &q.Version,
	)
	if err != nil {
		return nil, err
	}
	if q.Status, err = domain.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("unknown stored status %q on quote %d", status, q.ID)
	}
	q.DiscountPercentage = nullDecimalPtr(discount)
	return &q, nil
}

func nullDecimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
