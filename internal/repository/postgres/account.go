package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/digibank/internal/apperrors"
	"github.com/nkiryanov/digibank/internal/models"
	"github.com/nkiryanov/digibank/internal/repository"
)

type AccountRepo struct {
	DB DBTX
}

const accountColumns = `id, account_number, user_id, account_type, balance, is_frozen, created_at, updated_at`

// Conflict on number returns no rows, so the surrounding transaction stays usable for a retry
const insertAccount = `-- name: InsertAccount
INSERT INTO accounts (id, account_number, user_id, account_type, balance, is_frozen, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
ON CONFLICT (account_number) DO NOTHING
RETURNING ` + accountColumns

func (r *AccountRepo) InsertAccount(ctx context.Context, a models.Account) (models.Account, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Balance.IsNegative() || a.Balance.Round(2).GreaterThan(models.MaxBalance) {
		return a, apperrors.ErrInvariantViolation
	}

	rows, _ := r.DB.Query(ctx, insertAccount, a.ID, a.Number, a.UserID, a.Type, a.Balance, a.IsFrozen)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNumberTaken
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation:
		return account, apperrors.ErrUserNotFound
	case errors.As(err, &pgErr) && outOfBounds(pgErr):
		return account, apperrors.ErrInvariantViolation
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

// Negative balance breaks the check, a too large one overflows NUMERIC(18,2)
func outOfBounds(pgErr *pgconn.PgError) bool {
	return pgErr.Code == pgerrcode.CheckViolation || pgErr.Code == pgerrcode.NumericValueOutOfRange
}

const getAccount = `-- name: GetAccount
SELECT ` + accountColumns + ` FROM accounts
WHERE id = $1
`

func (r *AccountRepo) GetAccount(ctx context.Context, id uuid.UUID, lock bool) (models.Account, error) {
	query := getAccount
	if lock {
		query += "FOR UPDATE"
	}

	rows, _ := r.DB.Query(ctx, query, id)
	return collectAccount(rows)
}

const getAccountByNumber = `-- name: GetAccountByNumber
SELECT ` + accountColumns + ` FROM accounts
WHERE account_number = $1
`

func (r *AccountRepo) GetAccountByNumber(ctx context.Context, number string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getAccountByNumber, number)
	return collectAccount(rows)
}

// Rows are locked in id order whichever side they play,
// so two opposite transfers never wait for each other in a cycle
const lockForTransfer = `-- name: LockForTransfer
SELECT ` + accountColumns + ` FROM accounts
WHERE id = $1 OR account_number = $2
ORDER BY id
FOR UPDATE
`

func (r *AccountRepo) LockForTransfer(ctx context.Context, senderID uuid.UUID, receiverNumber string) (repository.TransferPair, error) {
	var pair repository.TransferPair

	rows, _ := r.DB.Query(ctx, lockForTransfer, senderID, receiverNumber)
	accounts, err := pgx.CollectRows(rows, rowToAccount)
	if err != nil {
		return pair, fmt.Errorf("db error: %w", err)
	}

	for i := range accounts {
		a := accounts[i]
		if a.ID == senderID {
			pair.Sender = &a
		}
		if a.Number == receiverNumber {
			pair.Receiver = &a
		}
	}

	return pair, nil
}

const saveAccount = `-- name: SaveAccount
UPDATE accounts
SET balance = $2, is_frozen = $3, updated_at = NOW()
WHERE id = $1
RETURNING ` + accountColumns

func (r *AccountRepo) SaveAccount(ctx context.Context, a models.Account) (models.Account, error) {
	if a.Balance.IsNegative() || a.Balance.Round(2).GreaterThan(models.MaxBalance) {
		return a, fmt.Errorf("balance %s of account %s: %w", a.Balance, a.Number, apperrors.ErrInvariantViolation)
	}

	rows, _ := r.DB.Query(ctx, saveAccount, a.ID, a.Balance, a.IsFrozen)
	return collectAccount(rows)
}

const listAccounts = `-- name: ListAccounts
SELECT ` + accountColumns + ` FROM accounts
WHERE user_id = $1
ORDER BY created_at, account_number
`

func (r *AccountRepo) ListAccounts(ctx context.Context, userID uuid.UUID) ([]models.Account, error) {
	rows, _ := r.DB.Query(ctx, listAccounts, userID)
	accounts, err := pgx.CollectRows(rows, rowToAccount)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return accounts, nil
}

func (r *AccountRepo) CountAccounts(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

func (r *AccountRepo) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.DB.QueryRow(ctx, `SELECT COALESCE(SUM(balance), 0) FROM accounts`).Scan(&total)
	if err != nil {
		return total, fmt.Errorf("db error: %w", err)
	}

	return total, nil
}

func collectAccount(rows pgx.Rows) (models.Account, error) {
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	case errors.As(err, &pgErr) && outOfBounds(pgErr):
		return account, apperrors.ErrInvariantViolation
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Number, &a.UserID, &a.Type, &a.Balance, &a.IsFrozen, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
