package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/digibank/internal/apperrors"
	"github.com/nkiryanov/digibank/internal/models"
	"github.com/nkiryanov/digibank/internal/repository"
)

type CreateParams struct {
	UserID         uuid.UUID
	Type           string
	InitialBalance decimal.Decimal
}

// Create opens an account with a fresh unique number
// Collisions are retried until a free number is found; only storage errors and ctx cancellation stop the loop
func Create(ctx context.Context, repo repository.AccountRepo, gen NumberGenerator, p CreateParams) (models.Account, error) {
	if !models.ValidAccountType(p.Type) {
		return models.Account{}, apperrors.ErrAccountTypeInvalid
	}
	if p.InitialBalance.IsNegative() || p.InitialBalance.GreaterThan(models.MaxBalance) {
		return models.Account{}, apperrors.ErrInvalidAmount
	}

	for {
		if err := ctx.Err(); err != nil {
			return models.Account{}, err
		}

		number, err := gen.Next()
		if err != nil {
			return models.Account{}, err
		}

		_, err = repo.GetAccountByNumber(ctx, number)
		switch {
		case err == nil:
			continue
		case !errors.Is(err, apperrors.ErrAccountNotFound):
			return models.Account{}, fmt.Errorf("error while checking account number. Err: %w", err)
		}

		account, err := repo.InsertAccount(ctx, models.Account{
			ID:      uuid.New(),
			Number:  number,
			UserID:  p.UserID,
			Type:    p.Type,
			Balance: p.InitialBalance,
		})
		switch {
		case err == nil:
			return account, nil
		case errors.Is(err, apperrors.ErrAccountNumberTaken):
			continue // taken between lookup and insert
		default:
			return models.Account{}, fmt.Errorf("error while creating account. Err: %w", err)
		}
	}
}

type Service struct {
	storage repository.Storage
	numbers NumberGenerator
}

func NewService(storage repository.Storage, numbers NumberGenerator) *Service {
	if numbers == nil {
		numbers = DefaultNumbers
	}

	return &Service{
		storage: storage,
		numbers: numbers,
	}
}

// Open new empty account for the user
func (s *Service) CreateAccount(ctx context.Context, owner models.User, accountType string) (models.Account, error) {
	return Create(ctx, s.storage.Account(), s.numbers, CreateParams{
		UserID:         owner.ID,
		Type:           accountType,
		InitialBalance: decimal.Zero,
	})
}

func (s *Service) ListAccounts(ctx context.Context, owner models.User) ([]models.Account, error) {
	accounts, err := s.storage.Account().ListAccounts(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("can't list accounts. Err: %w", err)
	}

	return accounts, nil
}

// Get account visible to requester: own accounts or any for admin
func (s *Service) GetAccount(ctx context.Context, requester models.User, accountID uuid.UUID) (models.Account, error) {
	account, err := s.storage.Account().GetAccount(ctx, accountID, false)
	if err != nil {
		return account, err
	}

	if account.UserID != requester.ID && !requester.IsAdmin() {
		return models.Account{}, apperrors.ErrForbidden
	}

	return account, nil
}
