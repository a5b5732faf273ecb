package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/digibank/internal/apperrors"
	"github.com/nkiryanov/digibank/internal/models"
	"github.com/nkiryanov/digibank/internal/repository"
)

type AccountRepo struct {
	s *Storage
}

// Same bounds as the balance column of the postgres schema
func balanceInRange(b decimal.Decimal) bool {
	b = b.Round(2)
	return !b.IsNegative() && b.LessThanOrEqual(models.MaxBalance)
}

func (r *AccountRepo) InsertAccount(ctx context.Context, a models.Account) (models.Account, error) {
	if !balanceInRange(a.Balance) {
		return a, apperrors.ErrInvariantViolation
	}

	err := r.s.do(ctx, func(st *state) error {
		if _, ok := st.numbers[a.Number]; ok {
			return apperrors.ErrAccountNumberTaken
		}
		if _, ok := st.users[a.UserID]; !ok {
			return apperrors.ErrUserNotFound
		}

		now := time.Now()
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		a.Balance = a.Balance.Round(2)
		a.CreatedAt, a.UpdatedAt = now, now

		put(st, st.accounts, a.ID, a)
		put(st, st.numbers, a.Number, a.ID)
		return nil
	})

	return a, err
}

// lock is ignored: every operation is already serialized by the storage mutex
func (r *AccountRepo) GetAccount(ctx context.Context, id uuid.UUID, _ bool) (models.Account, error) {
	var account models.Account

	err := r.s.do(ctx, func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return apperrors.ErrAccountNotFound
		}
		account = a
		return nil
	})

	return account, err
}

func (r *AccountRepo) GetAccountByNumber(ctx context.Context, number string) (models.Account, error) {
	var account models.Account

	err := r.s.do(ctx, func(st *state) error {
		id, ok := st.numbers[number]
		if !ok {
			return apperrors.ErrAccountNotFound
		}
		account = st.accounts[id]
		return nil
	})

	return account, err
}

func (r *AccountRepo) LockForTransfer(ctx context.Context, senderID uuid.UUID, receiverNumber string) (repository.TransferPair, error) {
	var pair repository.TransferPair

	err := r.s.do(ctx, func(st *state) error {
		if a, ok := st.accounts[senderID]; ok {
			pair.Sender = &a
		}
		if id, ok := st.numbers[receiverNumber]; ok {
			a := st.accounts[id]
			pair.Receiver = &a
		}
		return nil
	})

	return pair, err
}

func (r *AccountRepo) SaveAccount(ctx context.Context, a models.Account) (models.Account, error) {
	if !balanceInRange(a.Balance) {
		return a, fmt.Errorf("balance %s of account %s: %w", a.Balance, a.Number, apperrors.ErrInvariantViolation)
	}

	var saved models.Account

	err := r.s.do(ctx, func(st *state) error {
		current, ok := st.accounts[a.ID]
		if !ok {
			return apperrors.ErrAccountNotFound
		}

		// Only mutable fields are taken from the argument
		current.Balance = a.Balance.Round(2)
		current.IsFrozen = a.IsFrozen
		current.UpdatedAt = time.Now()

		put(st, st.accounts, a.ID, current)
		saved = current
		return nil
	})

	return saved, err
}

func (r *AccountRepo) ListAccounts(ctx context.Context, userID uuid.UUID) ([]models.Account, error) {
	var accounts []models.Account

	err := r.s.do(ctx, func(st *state) error {
		for _, a := range st.accounts {
			if a.UserID == userID {
				accounts = append(accounts, a)
			}
		}
		slices.SortFunc(accounts, func(a, b models.Account) int {
			if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
				return c
			}
			return strings.Compare(a.Number, b.Number)
		})
		return nil
	})

	return accounts, err
}

func (r *AccountRepo) CountAccounts(ctx context.Context) (int64, error) {
	var count int64

	err := r.s.do(ctx, func(st *state) error {
		count = int64(len(st.accounts))
		return nil
	})

	return count, err
}

func (r *AccountRepo) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	total := decimal.Zero

	err := r.s.do(ctx, func(st *state) error {
		for _, a := range st.accounts {
			total = total.Add(a.Balance)
		}
		return nil
	})

	return total, err
}
