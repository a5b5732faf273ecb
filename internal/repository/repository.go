package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/digibank/internal/models"
)

// Storage gives access to every repository
// Repositories obtained inside InTx share one atomic unit of work
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Account() AccountRepo
	Ledger() LedgerRepo

	// Run fn in transaction
	// Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error

	// Run read-only fn so that every read sees the same committed state
	InSnapshot(ctx context.Context, fn func(Storage) error) error
}

// User repository interface
type UserRepo interface {
	// Create user with role
	// If user with username exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, username string, hashedPassword string, role string) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)

	SetRole(ctx context.Context, userID uuid.UUID, role string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CountUsers(ctx context.Context) (int64, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token if it exists even if it expired or used
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Mark token used and return it
	// If the token is already used, must not overwrite 'usedAt' and return apperrors.ErrRefreshTokenIsUsed
	GetAndMarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error)
}

// Pair of account rows locked for a transfer
// Nil means the side was not found
type TransferPair struct {
	Sender   *models.Account
	Receiver *models.Account
}

// Account repository interface
type AccountRepo interface {
	// Insert new account
	// If the number is taken must return apperrors.ErrAccountNumberTaken and keep transaction usable
	InsertAccount(ctx context.Context, account models.Account) (models.Account, error)

	// Get account by internal id
	// lock: hold row lock until the surrounding transaction ends
	GetAccount(ctx context.Context, accountID uuid.UUID, lock bool) (models.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (models.Account, error)

	// Lock sender (by id) and receiver (by number) rows in stable order
	LockForTransfer(ctx context.Context, senderID uuid.UUID, receiverNumber string) (TransferPair, error)

	// Persist balance and frozen flag. Number, owner and type are never updated.
	// Negative balance must be rejected with apperrors.ErrInvariantViolation
	SaveAccount(ctx context.Context, account models.Account) (models.Account, error)

	ListAccounts(ctx context.Context, userID uuid.UUID) ([]models.Account, error)
	CountAccounts(ctx context.Context) (int64, error)
	TotalBalance(ctx context.Context) (decimal.Decimal, error)
}

// Ledger repository interface
// Append-only: there are no update or delete methods
type LedgerRepo interface {
	CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error)

	// Transactions where account is sender or receiver, newest first
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Transaction, error)

	// Transactions touching any account of the user, newest first
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)

	// Newest transactions; limit <= 0 means no limit
	ListAll(ctx context.Context, limit int) ([]models.Transaction, error)
	CountTransactions(ctx context.Context) (int64, error)
}
