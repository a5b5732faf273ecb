package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/digibank/internal/apperrors"
	"github.com/nkiryanov/digibank/internal/models"
	"github.com/nkiryanov/digibank/internal/repository"
)

// Read side of the transaction ledger
type Service struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *Service {
	return &Service{storage: storage}
}

// Transactions of one account, newest first
// Visible to the account owner and admins
func (s *Service) ListForAccount(ctx context.Context, requester models.User, accountID uuid.UUID) ([]models.Transaction, error) {
	account, err := s.storage.Account().GetAccount(ctx, accountID, false)
	if err != nil {
		return nil, err
	}

	if account.UserID != requester.ID && !requester.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	transactions, err := s.storage.Ledger().ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("can't list account transactions. Err: %w", err)
	}

	return transactions, nil
}

// Transactions touching any account of the user, newest first
// Visible to the user and admins
func (s *Service) ListForUser(ctx context.Context, requester models.User, userID uuid.UUID) ([]models.Transaction, error) {
	if userID != requester.ID && !requester.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}

	transactions, err := s.storage.Ledger().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("can't list user transactions. Err: %w", err)
	}

	return transactions, nil
}
