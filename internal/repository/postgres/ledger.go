package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/digibank/internal/apperrors"
	"github.com/nkiryanov/digibank/internal/models"
)

type LedgerRepo struct {
	DB DBTX
}

const insertTransaction = `-- name: InsertTransaction
INSERT INTO transactions (id, transfer_id, sender_account_id, receiver_account_id, amount, type, status, description, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id
`

// Select transactions together with account numbers of both sides
// Newest first; seq breaks ties between records created at the same instant
const selectTransactions = `
SELECT t.id, t.transfer_id, t.sender_account_id, t.receiver_account_id,
	s.account_number, r.account_number,
	t.amount, t.type, t.status, t.description, t.created_at
FROM transactions t
JOIN accounts s ON s.id = t.sender_account_id
JOIN accounts r ON r.id = t.receiver_account_id
`

const orderNewestFirst = `
ORDER BY t.created_at DESC, t.seq DESC
`

func (r *LedgerRepo) CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if !t.Amount.IsPositive() {
		return t, apperrors.ErrInvalidAmount
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	rows, _ := r.DB.Query(ctx, insertTransaction,
		t.ID, t.TransferID, t.SenderAccountID, t.ReceiverAccountID,
		t.Amount, t.Type, t.Status, t.Description, t.CreatedAt,
	)
	_, err := pgx.CollectOneRow(rows, pgx.RowTo[uuid.UUID])

	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return t, nil
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation:
		return t, apperrors.ErrAccountNotFound
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation:
		return t, apperrors.ErrInvalidAmount
	default:
		return t, fmt.Errorf("db error: %w", err)
	}
}

func (r *LedgerRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Transaction, error) {
	const query = selectTransactions + `WHERE t.sender_account_id = $1 OR t.receiver_account_id = $1` + orderNewestFirst

	rows, _ := r.DB.Query(ctx, query, accountID)
	return collectTransactions(rows)
}

func (r *LedgerRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	const query = selectTransactions + `WHERE s.user_id = $1 OR r.user_id = $1` + orderNewestFirst

	rows, _ := r.DB.Query(ctx, query, userID)
	return collectTransactions(rows)
}

func (r *LedgerRepo) ListAll(ctx context.Context, limit int) ([]models.Transaction, error) {
	const query = selectTransactions + orderNewestFirst + `LIMIT $1`

	// LIMIT NULL means no limit
	var l *int
	if limit > 0 {
		l = &limit
	}

	rows, _ := r.DB.Query(ctx, query, l)
	return collectTransactions(rows)
}

func (r *LedgerRepo) CountTransactions(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

func collectTransactions(rows pgx.Rows) ([]models.Transaction, error) {
	transactions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Transaction, error) {
		var t models.Transaction
		err := row.Scan(
			&t.ID, &t.TransferID, &t.SenderAccountID, &t.ReceiverAccountID,
			&t.SenderAccountNumber, &t.ReceiverAccountNumber,
			&t.Amount, &t.Type, &t.Status, &t.Description, &t.CreatedAt,
		)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return transactions, nil
}
