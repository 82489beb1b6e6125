package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"b2b_marketplace_backend/internal/quotes/domain"
	"b2b_marketplace_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepository(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &Repository{pool: mock}, mock
}

// storedQuote returns a quote as loaded at version 3 with its creation message pending.
func storedQuote(t *testing.T) *domain.Quote {
	t.Helper()
	q := newQuote(t, uuid.New(), uuid.New(), time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC))
	q.ID = 7
	q.QuoteNumber = "RFQ-2026-000007"
	q.Version = 3
	q.Items[0].ID = 11
	return q
}

func TestSaveStaleVersionIsConflict(t *testing.T) {
	repo, mock := newMockRepository(t)
	q := storedQuote(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE quotes SET").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := repo.Save(context.Background(), q)
	assert.True(t, apperr.Is(err, apperr.KindConflict), "got %v", err)
	assert.Equal(t, int64(3), q.Version)
	assert.NotEmpty(t, q.PendingMessages())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveMissingRowIsNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	q := storedQuote(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE quotes SET").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := repo.Save(context.Background(), q)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
	assert.Equal(t, int64(3), q.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRollsBackWhenMessageInsertFails(t *testing.T) {
	repo, mock := newMockRepository(t)
	q := storedQuote(t)
	pending := len(q.PendingMessages())
	require.NotZero(t, pending)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE quotes SET").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE quote_items SET").WithArgs(int64(11), pgxmock.AnyArg(), pgxmock.AnyArg(),
		pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("INSERT INTO quote_messages").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Save(context.Background(), q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert quote message")
	assert.Equal(t, int64(3), q.Version, "version moves only after commit")
	assert.Len(t, q.PendingMessages(), pending, "pending messages are kept for the next save")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveCommitsAndAdvancesVersion(t *testing.T) {
	repo, mock := newMockRepository(t)
	q := storedQuote(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE quotes SET").WithArgs(int64(7), int64(3), "PENDING",
		pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE quote_items SET").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	for i := range q.PendingMessages() {
		mock.ExpectQuery("INSERT INTO quote_messages").
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(100 + i)))
	}
	mock.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), q))
	assert.Equal(t, int64(4), q.Version)
	assert.Empty(t, q.PendingMessages())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMessagesRejectsUnknownStoredType(t *testing.T) {
	repo, mock := newMockRepository(t)
	sender := uuid.New()
	at := time.Date(2026, time.May, 2, 9, 0, 0, 0, time.UTC)
	columns := []string{"id", "quote_id", "sender_id", "sender_name", "sender_type", "message_type",
		"message", "attachment_url", "created_at"}

	mock.ExpectQuery("FROM quote_messages").WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(2), int64(7), &sender, "Acme", "SUPPLIER", "PRICE_UPDATE", "10% off", "", at))
	messages, err := repo.ListMessages(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, domain.SenderSupplier, messages[0].SenderType)
	assert.Equal(t, domain.MessagePriceUpdate, messages[0].MessageType)

	mock.ExpectQuery("FROM quote_messages").WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(3), int64(7), &sender, "Acme", "AUDITOR", "TEXT", "hi", "", at))
	_, err = repo.ListMessages(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown stored sender type "AUDITOR"`)
	assert.False(t, apperr.Is(err, apperr.KindValidation))
	assert.NoError(t, mock.ExpectationsWereMet())
}
