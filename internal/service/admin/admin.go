package admin

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/digibank/internal/logger"
	"github.com/nkiryanov/digibank/internal/models"
	"github.com/nkiryanov/digibank/internal/repository"
)

// Number of transactions shown in stats
const recentTransactions = 10

type Service struct {
	storage repository.Storage
	logger  logger.Logger
}

func NewService(storage repository.Storage, l logger.Logger) *Service {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Service{
		storage: storage,
		logger:  l.With("component", "admin"),
	}
}

// Flip frozen flag of the account
// The row is locked, so a transfer running at the same time keeps its balance change
func (s *Service) ToggleFreeze(ctx context.Context, accountID uuid.UUID) (models.Account, error) {
	var account models.Account

	err := s.storage.InTx(ctx, func(storage repository.Storage) error {
		a, err := storage.Account().GetAccount(ctx, accountID, true)
		if err != nil {
			return err
		}

		a.IsFrozen = !a.IsFrozen
		account, err = storage.Account().SaveAccount(ctx, a)
		return err
	})
	if err != nil {
		return models.Account{}, fmt.Errorf("can't toggle freeze. Err: %w", err)
	}

	s.logger.Info("Account freeze toggled", "account", account.Number, "frozen", account.IsFrozen)
	return account, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.storage.User().ListUsers(ctx)
}

// All transactions, newest first
func (s *Service) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.storage.Ledger().ListAll(ctx, 0)
}

func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	var (
		stats models.Stats
		err   error
	)

	// Totals must agree with each other while transfers keep running
	err = s.storage.InSnapshot(ctx, func(storage repository.Storage) error {
		if stats.TotalUsers, err = storage.User().CountUsers(ctx); err != nil {
			return err
		}
		if stats.TotalAccounts, err = storage.Account().CountAccounts(ctx); err != nil {
			return err
		}
		if stats.TotalTransactions, err = storage.Ledger().CountTransactions(ctx); err != nil {
			return err
		}
		if stats.TotalBalance, err = storage.Account().TotalBalance(ctx); err != nil {
			return err
		}
		stats.RecentTransactions, err = storage.Ledger().ListAll(ctx, recentTransactions)
		return err
	})
	if err != nil {
		return models.Stats{}, fmt.Errorf("can't collect stats. Err: %w", err)
	}

	return stats, nil
}
